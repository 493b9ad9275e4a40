package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/hogwarts-cloud/fleetplan/internal/parser"
	"go.uber.org/zap"
)

const (
	DefaultBranch      = "master"
	DefaultSchema      = 2
	NewerSchema        = 3
	DefaultModelRemote = "http://git.suse.provo.cloud/cgit/ardana/ardana-input-model/plain"
	modelVersionDir    = "2.0"
	inputModelCheckout = "ardana-input-model"
	fleetsDir          = "ardana-ci"
	descriptorDir      = "data"
	descriptorFile     = "servers.yml"
)

var (
	ErrSourceNotFound = errors.New("fleet descriptor not found")
	ErrFleetMismatch  = errors.New("resolver already bound to another fleet")
)

type Config struct {
	// Explicit is tried before every other candidate when set.
	Explicit string

	// ToolRoot is the checkout of this tool; the data model checkout is
	// expected next to it.
	ToolRoot      string
	ToolRemote    string
	ModelRemote   string
	SchemaVersion int
	RefModelTag   string
	Client        *http.Client
	Logger        *zap.Logger
}

type CandidatesFunc func(fleet, branch string) ([]Source, error)

// Resolver finds the descriptor of one fleet and keeps the first successful
// result for its whole lifetime.
type Resolver struct {
	candidates CandidatesFunc
	logger     *zap.Logger

	fleet  string
	cached *models.FleetDescriptor
}

func (r *Resolver) Resolve(ctx context.Context, fleet, branch string) (*models.FleetDescriptor, error) {
	if r.cached != nil {
		if fleet != r.fleet {
			return nil, fmt.Errorf("%w: %s, requested %s", ErrFleetMismatch, r.fleet, fleet)
		}
		return r.cached, nil
	}

	candidates, err := r.candidates(fleet, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to build candidate list: %w", err)
	}

	errs := []error{fmt.Errorf("%w: %s", ErrSourceNotFound, fleet)}
	for _, candidate := range candidates {
		descriptor, err := load(ctx, candidate)
		if err != nil {
			r.logger.Debug("fleet descriptor candidate failed",
				zap.String("location", candidate.Location()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", candidate.Location(), err))
			continue
		}

		descriptor.Source = candidate.Location()
		r.fleet = fleet
		r.cached = descriptor

		r.logger.Info("servers details loaded", zap.String("fleet", fleet), zap.String("location", descriptor.Source))

		return descriptor, nil
	}

	return nil, errors.Join(errs...)
}

func load(ctx context.Context, candidate Source) (*models.FleetDescriptor, error) {
	content, err := candidate.Load(ctx)
	if err != nil {
		return nil, err
	}

	descriptor, err := parser.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}

	return descriptor, nil
}

// Candidates lists the descriptor locations in lookup order: the explicit
// override, the tool's own tree, a sibling data model checkout, the tool's
// remote (newer schemas only) and the canonical data model remote. A pinned
// reference model tag skips both local checkouts.
func (c Config) Candidates(fleet, branch string) ([]Source, error) {
	candidates := make([]Source, 0, 5)

	if c.Explicit != "" {
		candidates = append(candidates, Open(c.Explicit, c.Client))
	}

	fleetPath := path.Join(fleetsDir, fleet, descriptorDir, descriptorFile)

	if c.RefModelTag == "" && c.ToolRoot != "" {
		candidates = append(candidates,
			NewFile(filepath.Join(c.ToolRoot, filepath.FromSlash(fleetPath))),
			NewFile(filepath.Join(filepath.Dir(filepath.Clean(c.ToolRoot)), inputModelCheckout, modelVersionDir, filepath.FromSlash(fleetPath))),
		)
	}

	if c.RefModelTag != "" {
		branch = c.RefModelTag
	}
	if branch == "" {
		branch = DefaultBranch
	}

	schema := c.SchemaVersion
	if schema == 0 {
		schema = DefaultSchema
	}

	if schema >= NewerSchema && c.ToolRemote != "" {
		u, err := branchURL(c.ToolRemote, fleetPath, branch)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, NewRemote(u, c.Client))
	}

	modelRemote := c.ModelRemote
	if modelRemote == "" {
		modelRemote = DefaultModelRemote
	}

	u, err := branchURL(modelRemote, path.Join(modelVersionDir, fleetPath), branch)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, NewRemote(u, c.Client))

	return candidates, nil
}

func New(cfg Config) *Resolver {
	return NewWithCandidates(cfg.Candidates, cfg.Logger)
}

func NewWithCandidates(candidates CandidatesFunc, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{candidates: candidates, logger: logger}
}
