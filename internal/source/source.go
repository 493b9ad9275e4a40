package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Source is one candidate location of a fleet descriptor.
type Source interface {
	Location() string
	Load(ctx context.Context) ([]byte, error)
}

type File struct {
	path string
}

func (f File) Location() string {
	return f.path
}

func (f File) Load(_ context.Context) ([]byte, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

type Remote struct {
	url    string
	client *http.Client
}

func (r Remote) Location() string {
	return r.url
}

func (r Remote) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch: unexpected status %s", resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return content, nil
}

func NewFile(path string) File {
	return File{path: path}
}

func NewRemote(rawURL string, client *http.Client) Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return Remote{url: rawURL, client: client}
}

// Open picks the source kind from the location: http(s) URLs are fetched,
// anything else is read from disk.
func Open(location string, client *http.Client) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewRemote(location, client)
	}
	return NewFile(location)
}

// branchURL appends path to base and pins the branch with the cgit ?h=
// query parameter.
func branchURL(base, path, branch string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/" + path)
	if err != nil {
		return "", fmt.Errorf("failed to parse remote url: %w", err)
	}

	query := u.Query()
	query.Set("h", branch)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
