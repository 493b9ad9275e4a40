package models

const (
	BootDiskGiB = 200
	SCSIBus     = "scsi"
)

type HardwareProfile struct {
	Memory      int    `yaml:"memory" mapstructure:"memory"`
	CPU         int    `yaml:"cpu" mapstructure:"cpu"`
	BootDiskGiB int    `yaml:"boot-disk" mapstructure:"boot-disk"`
	Flavor      string `yaml:"flavor,omitempty" mapstructure:"flavor"`
	Disks       []Disk `yaml:"disks,omitempty" mapstructure:"disks"`
}

type Disk struct {
	Bus           string `yaml:"bus" mapstructure:"bus"`
	Size          string `yaml:"size" mapstructure:"size"`
	Path          string `yaml:"path,omitempty" mapstructure:"path"`
	AllowExisting bool   `yaml:"allow-existing,omitempty" mapstructure:"allow-existing"`
}
