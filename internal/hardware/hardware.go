package hardware

import (
	"errors"
	"fmt"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/mitchellh/mapstructure"
)

var ErrMissingHardware = errors.New("missing hardware")

const (
	MemoryField     = "MEMORY"
	CPUField        = "CPU"
	FlavorField     = "FLAVOR"
	DiskField       = "DISK"
	ExtraDisksField = "EXTRA_DISKS"
)

// declared is the per-node hardware block of a server record. Absent keys
// keep the value resolved from the environment or the defaults.
type declared struct {
	Memory     *int    `mapstructure:"memory"`
	CPU        *int    `mapstructure:"cpu"`
	Flavor     *string `mapstructure:"flavor"`
	DiskSize   *string `mapstructure:"disk-size"`
	ExtraDisks *int    `mapstructure:"extra-disks"`
}

type Resolver struct {
	overrides models.Overrides
	defaults  map[models.NodeType]Defaults
}

// Resolve produces the hardware profile of node. A block in ciSettings keyed
// by the node's role is returned as is; otherwise the node type defaults are
// layered with the environment overrides of its family and the node's own
// hardware block, in that order.
func (r *Resolver) Resolve(node models.ServerRecord, nodeType models.NodeType, ciSettings map[string]map[string]any) (models.HardwareProfile, error) {
	if block, ok := ciSettings[node.Role]; ok {
		profile, err := decodeProfile(block)
		if err != nil {
			return models.HardwareProfile{}, fmt.Errorf("%w: ci settings for role %s: %w", ErrMissingHardware, node.Role, err)
		}

		return profile, nil
	}

	spec, ok := r.defaults[nodeType]
	if !ok {
		return models.HardwareProfile{}, fmt.Errorf("%w: no defaults for node type %s", ErrMissingHardware, nodeType)
	}

	spec, err := r.applyOverrides(spec, nodeType.Family())
	if err != nil {
		return models.HardwareProfile{}, fmt.Errorf("failed to apply overrides for %s: %w", node.ID, err)
	}

	spec, err = applyDeclared(spec, node.Hardware)
	if err != nil {
		return models.HardwareProfile{}, fmt.Errorf("%w: server %s: %w", ErrMissingHardware, node.ID, err)
	}

	if spec.Memory <= 0 || spec.CPU <= 0 || spec.ExtraDisks < 0 {
		return models.HardwareProfile{}, fmt.Errorf(
			"%w: server %s resolved to memory=%d cpu=%d extra-disks=%d",
			ErrMissingHardware, node.ID, spec.Memory, spec.CPU, spec.ExtraDisks,
		)
	}

	profile := models.HardwareProfile{
		Memory:      spec.Memory,
		CPU:         spec.CPU,
		BootDiskGiB: models.BootDiskGiB,
		Flavor:      spec.Flavor,
	}

	if spec.DiskSize != "" {
		for i := 0; i < spec.ExtraDisks; i++ {
			profile.Disks = append(profile.Disks, models.Disk{Bus: models.SCSIBus, Size: spec.DiskSize})
		}
	}

	return profile, nil
}

func (r *Resolver) applyOverrides(spec Defaults, family models.Family) (Defaults, error) {
	if family == "" {
		return spec, nil
	}

	ints := []struct {
		field  string
		target *int
	}{
		{field: MemoryField, target: &spec.Memory},
		{field: CPUField, target: &spec.CPU},
		{field: ExtraDisksField, target: &spec.ExtraDisks},
	}

	for _, item := range ints {
		value, ok, err := r.overrides.Int(overrideKey(family, item.field))
		if err != nil {
			return Defaults{}, err
		}
		if ok {
			*item.target = value
		}
	}

	spec.Flavor = r.overrides.StringOr(overrideKey(family, FlavorField), spec.Flavor)
	spec.DiskSize = r.overrides.StringOr(overrideKey(family, DiskField), spec.DiskSize)

	return spec, nil
}

func applyDeclared(spec Defaults, block map[string]any) (Defaults, error) {
	if len(block) == 0 {
		return spec, nil
	}

	var hw declared
	if err := decode(block, &hw); err != nil {
		return Defaults{}, err
	}

	if hw.Memory != nil {
		spec.Memory = *hw.Memory
	}
	if hw.CPU != nil {
		spec.CPU = *hw.CPU
	}
	if hw.Flavor != nil {
		spec.Flavor = *hw.Flavor
	}
	if hw.DiskSize != nil {
		spec.DiskSize = *hw.DiskSize
	}
	if hw.ExtraDisks != nil {
		spec.ExtraDisks = *hw.ExtraDisks
	}

	return spec, nil
}

func decodeProfile(block map[string]any) (models.HardwareProfile, error) {
	var profile models.HardwareProfile
	if err := decode(block, &profile); err != nil {
		return models.HardwareProfile{}, err
	}

	if profile.Memory <= 0 || profile.CPU <= 0 {
		return models.HardwareProfile{}, fmt.Errorf("memory and cpu must be positive, got memory=%d cpu=%d", profile.Memory, profile.CPU)
	}

	return profile, nil
}

func decode(input map[string]any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode hardware block: %w", err)
	}

	return nil
}

func New(overrides models.Overrides) *Resolver {
	return &Resolver{overrides: overrides, defaults: DefaultTable}
}

func NewWithDefaults(overrides models.Overrides, defaults map[models.NodeType]Defaults) *Resolver {
	return &Resolver{overrides: overrides, defaults: defaults}
}
