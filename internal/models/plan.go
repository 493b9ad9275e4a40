package models

type InterfaceKind string

const (
	AccessInterface       InterfaceKind = "access"
	ClusterInterface      InterfaceKind = "cluster"
	ProvisioningInterface InterfaceKind = "provisioning"
	IdleInterface         InterfaceKind = "idle"
)

type NetworkInterface struct {
	Index      int           `yaml:"index"`
	Kind       InterfaceKind `yaml:"kind"`
	IP         string        `yaml:"ip,omitempty"`
	Netmask    string        `yaml:"netmask,omitempty"`
	IPv6       string        `yaml:"ipv6,omitempty"`
	IPv6Prefix int           `yaml:"ipv6-prefix,omitempty"`
	MAC        string        `yaml:"mac,omitempty"`
	DHCP       bool          `yaml:"dhcp"`
	AutoConfig bool          `yaml:"auto-config"`
	Bridged    bool          `yaml:"bridged"`
	Device     string        `yaml:"device,omitempty"`
}

type NodePlan struct {
	Server        ServerRecord       `yaml:"server"`
	Type          NodeType           `yaml:"type"`
	Hardware      HardwareProfile    `yaml:"hardware"`
	Interfaces    []NetworkInterface `yaml:"interfaces"`
	GraphicsPort  int                `yaml:"graphics-port"`
	OSDist        string             `yaml:"os-dist"`
	Box           string             `yaml:"box"`
	VIPOffset     int                `yaml:"vip-offset"`
	Deployer      bool               `yaml:"deployer"`
	ExtraVars     map[string]string  `yaml:"extra-vars,omitempty"`
	Distributions []string           `yaml:"distributions,omitempty"`
	PlanID        string             `yaml:"-"`
}

func (p NodePlan) Name() string {
	return p.Server.ID
}

// ProvisioningInterface returns the node's single provisioning interface.
func (p NodePlan) ProvisioningInterface() (NetworkInterface, bool) {
	for _, nic := range p.Interfaces {
		if nic.Kind == ProvisioningInterface {
			return nic, true
		}
	}
	return NetworkInterface{}, false
}

type FleetPlan struct {
	ID            string     `yaml:"id"`
	Fleet         string     `yaml:"fleet"`
	Source        string     `yaml:"source"`
	DeployerID    string     `yaml:"deployer"`
	Distributions []string   `yaml:"distributions"`
	Nodes         []NodePlan `yaml:"nodes"`
}
