package network

import (
	_ "embed"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strings"
)

//go:embed ula_pool.csv
var defaultPool string

var ErrNoPoolEntry = errors.New("no ipv6 pool entry")

// Pool maps interface indexes to IPv6 prefixes. Override entries replace the
// default table per index; blank or missing override positions fall back to
// the default table.
type Pool struct {
	defaults  []string
	overrides []string
}

func (p Pool) Prefix(index int) (netip.Prefix, error) {
	entry := ""
	if index >= 0 && index < len(p.overrides) {
		entry = p.overrides[index]
	}
	if entry == "" && index >= 0 && index < len(p.defaults) {
		entry = p.defaults[index]
	}
	if entry == "" {
		return netip.Prefix{}, fmt.Errorf("%w: index %d", ErrNoPoolEntry, index)
	}

	prefix, err := netip.ParsePrefix(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: pool entry %q: %w", ErrInvalidAddress, entry, err)
	}
	if !prefix.Addr().Is6() || prefix.Addr().Is4In6() {
		return netip.Prefix{}, fmt.Errorf("%w: pool entry %q is not ipv6", ErrInvalidAddress, entry)
	}

	return prefix.Masked(), nil
}

// Address returns host number host inside the prefix at index.
func (p Pool) Address(index int, host uint64) (netip.Addr, int, error) {
	prefix, err := p.Prefix(index)
	if err != nil {
		return netip.Addr{}, 0, err
	}

	raw := prefix.Addr().As16()
	low := binary.BigEndian.Uint64(raw[8:])
	binary.BigEndian.PutUint64(raw[8:], low+host)

	addr := netip.AddrFrom16(raw)
	if !prefix.Contains(addr) {
		return netip.Addr{}, 0, fmt.Errorf("%w: host %d does not fit %s", ErrInvalidAddress, host, prefix)
	}

	return addr, prefix.Bits(), nil
}

// ReadPool reads pool entries from r. Entries may be separated by newlines
// or commas; lines starting with # are ignored.
func ReadPool(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	entries := make([]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ipv6 pool: %w", err)
		}

		for _, field := range record {
			if field = strings.TrimSpace(field); field != "" {
				entries = append(entries, field)
			}
		}
	}

	return entries, nil
}

func DefaultPool() ([]string, error) {
	return ReadPool(strings.NewReader(defaultPool))
}

func NewPool(defaults, overrides []string) Pool {
	return Pool{defaults: defaults, overrides: overrides}
}
