package deployer

import (
	"context"
	"fmt"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const MaxConcurrentRequests = 3

type IncusProvider interface {
	GetInstanceNames(ctx context.Context) ([]string, error)
	DefineNode(ctx context.Context, node models.NodePlan) error
}

type Result struct {
	Defined []string `yaml:"defined"`
	Skipped []string `yaml:"skipped"`
}

type Deployer struct {
	incus  IncusProvider
	logger *zap.Logger
}

// Deploy defines every node of plan that has no instance yet. Existing
// instances are left untouched.
func (d *Deployer) Deploy(ctx context.Context, plan *models.FleetPlan) (Result, error) {
	existingInstancesNames, err := d.incus.GetInstanceNames(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get existing instances names: %w", err)
	}

	isExisting := func(node models.NodePlan, _ int) bool {
		return lo.Contains(existingInstancesNames, node.Name())
	}
	nodesToDefine := lo.Reject(plan.Nodes, isExisting)
	nodesToSkip := lo.Filter(plan.Nodes, isExisting)

	result := Result{
		Defined: lo.Map(nodesToDefine, func(node models.NodePlan, _ int) string { return node.Name() }),
		Skipped: lo.Map(nodesToSkip, func(node models.NodePlan, _ int) string { return node.Name() }),
	}

	for _, name := range result.Skipped {
		d.logger.Info("instance already exists", zap.String("name", name))
	}

	if err := d.defineNodes(ctx, nodesToDefine); err != nil {
		return Result{}, fmt.Errorf("failed to define nodes: %w", err)
	}

	return result, nil
}

func (d *Deployer) defineNodes(ctx context.Context, nodes []models.NodePlan) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(MaxConcurrentRequests)

	for _, node := range nodes {
		node := node

		eg.Go(func() error { return d.defineNode(ctx, node) })
	}

	return eg.Wait()
}

func (d *Deployer) defineNode(ctx context.Context, node models.NodePlan) error {
	if err := d.incus.DefineNode(ctx, node); err != nil {
		return fmt.Errorf("failed to define node %s: %w", node.Name(), err)
	}

	d.logger.Info("instance defined",
		zap.String("name", node.Name()),
		zap.Stringer("type", node.Type),
		zap.String("box", node.Box),
	)

	return nil
}

func New(incus IncusProvider, logger *zap.Logger) *Deployer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Deployer{incus: incus, logger: logger}
}
