package planner

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/hogwarts-cloud/fleetplan/internal/network"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	AptCacheVolume      = "persistent-apt-cache-v2.qcow2"
	AptCacheSize        = "10G"
	DeployerAddressVar  = "deployer_address"
	AptDeviceVar        = "persistent_apt_device"
	AptCacheVolumeVar   = "persistent_apt_cache_volume"
	firstDiskLetterBase = 10
)

var ErrUnknownDeployer = errors.New("unknown deployer")

type SourceResolver interface {
	Resolve(ctx context.Context, fleet, branch string) (*models.FleetDescriptor, error)
}

type RoleClassifier interface {
	Classify(role string) models.NodeType
}

type HardwareResolver interface {
	Resolve(node models.ServerRecord, nodeType models.NodeType, ciSettings map[string]map[string]any) (models.HardwareProfile, error)
}

type NetworkPlanner interface {
	Plan(node models.ServerRecord, vipOffset, idleCount int) ([]models.NetworkInterface, error)
}

type Config struct {
	Source         SourceResolver
	Classifier     RoleClassifier
	Hardware       HardwareResolver
	Network        NetworkPlanner
	Overrides      models.Overrides
	Branch         string
	Logger         *zap.Logger
	IdleInterfaces int
}

type Builder struct {
	source         SourceResolver
	classifier     RoleClassifier
	hardware       HardwareResolver
	network        NetworkPlanner
	distros        distroSelector
	branch         string
	idleInterfaces int
	logger         *zap.Logger
}

// Build resolves the descriptor of fleet and plans every server in
// descriptor order. Any failing node aborts the whole build.
func (b *Builder) Build(ctx context.Context, fleet, deployerID string) (*models.FleetPlan, error) {
	descriptor, err := b.source.Resolve(ctx, fleet, b.branch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fleet descriptor: %w", err)
	}

	servers := lo.Filter(descriptor.Servers, func(server models.ServerRecord, _ int) bool {
		return !server.IsShadow()
	})

	deployer, ok := lo.Find(servers, func(server models.ServerRecord) bool {
		return server.ID == deployerID
	})
	if !ok {
		return nil, fmt.Errorf("%w: %q is not in fleet %s", ErrUnknownDeployer, deployerID, fleet)
	}

	ports := newGraphicsPorts(servers)
	vips := network.NewVIPAllocator()

	nodes := make([]models.NodePlan, 0, len(servers))
	for _, server := range servers {
		node, err := b.planNode(server, descriptor.CISettings, ports, vips)
		if err != nil {
			return nil, fmt.Errorf("failed to plan server %s: %w", server.ID, err)
		}

		nodes = append(nodes, node)
	}

	planID := uuid.NewString()

	distributions := lo.Uniq(lo.Map(nodes, func(node models.NodePlan, _ int) string {
		return node.OSDist
	}))

	for i := range nodes {
		nodes[i].PlanID = planID
		if nodes[i].Server.ID == deployerID {
			markDeployer(&nodes[i], distributions)
		} else {
			nodes[i].ExtraVars = map[string]string{DeployerAddressVar: deployer.IPAddr}
		}
	}

	b.logger.Info("fleet planned",
		zap.String("id", planID),
		zap.String("fleet", fleet),
		zap.Int("nodes", len(nodes)),
		zap.Int("skipped", len(descriptor.Servers)-len(servers)),
		zap.Strings("distributions", distributions),
	)

	return &models.FleetPlan{
		ID:            planID,
		Fleet:         fleet,
		Source:        descriptor.Source,
		DeployerID:    deployerID,
		Distributions: distributions,
		Nodes:         nodes,
	}, nil
}

func (b *Builder) planNode(
	server models.ServerRecord,
	ciSettings map[string]map[string]any,
	ports *graphicsPorts,
	vips *network.VIPAllocator,
) (models.NodePlan, error) {
	nodeType := b.classifier.Classify(server.Role)

	hardware, err := b.hardware.Resolve(server, nodeType, ciSettings)
	if err != nil {
		return models.NodePlan{}, fmt.Errorf("failed to resolve hardware: %w", err)
	}

	dist := b.distros.resolve(server, nodeType)
	server.OSDist = dist
	offset := vips.Next(nodeType)

	interfaces, err := b.network.Plan(server, offset, b.idleInterfaces)
	if err != nil {
		return models.NodePlan{}, fmt.Errorf("failed to plan network: %w", err)
	}

	b.logger.Debug("server planned",
		zap.String("id", server.ID),
		zap.String("role", server.Role),
		zap.Stringer("type", nodeType),
		zap.Int("vip_offset", offset),
		zap.String("os_dist", dist),
	)

	return models.NodePlan{
		Server:       server,
		Type:         nodeType,
		Hardware:     hardware,
		Interfaces:   interfaces,
		GraphicsPort: ports.assign(server),
		OSDist:       dist,
		Box:          dist + boxSuffix,
		VIPOffset:    offset,
	}, nil
}

// markDeployer puts the persistent apt cache in front of the deployer's
// disks and tells provisioning which device it will appear as.
func markDeployer(node *models.NodePlan, distributions []string) {
	disks := make([]models.Disk, 0, len(node.Hardware.Disks)+1)
	disks = append(disks, models.Disk{
		Bus:           models.SCSIBus,
		Size:          AptCacheSize,
		Path:          AptCacheVolume,
		AllowExisting: true,
	})
	disks = append(disks, node.Hardware.Disks...)

	node.Hardware.Disks = disks
	node.Deployer = true
	node.Distributions = distributions
	node.ExtraVars = map[string]string{
		AptDeviceVar:      "/dev/sd" + strconv.FormatInt(int64(firstDiskLetterBase+len(disks)), 36),
		AptCacheVolumeVar: AptCacheVolume,
	}
}

func New(cfg Config) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		source:         cfg.Source,
		classifier:     cfg.Classifier,
		hardware:       cfg.Hardware,
		network:        cfg.Network,
		distros:        newDistroSelector(cfg.Overrides),
		branch:         cfg.Branch,
		idleInterfaces: cfg.IdleInterfaces,
		logger:         logger,
	}
}
