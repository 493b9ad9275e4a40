package models

const HypervisorIDKey = "hypervisor-id"

type FleetDescriptor struct {
	Servers    []ServerRecord            `yaml:"servers"`
	CISettings map[string]map[string]any `yaml:"ci_settings"`
	Source     string                    `yaml:"-"`
}

type ServerRecord struct {
	ID           string         `yaml:"id"`
	Role         string         `yaml:"role"`
	OSDist       string         `yaml:"os-dist,omitempty"`
	IPAddr       string         `yaml:"ip-addr,omitempty"`
	MACAddr      string         `yaml:"mac-addr,omitempty"`
	GraphicsPort int            `yaml:"graphics-port,omitempty"`
	Hardware     map[string]any `yaml:"hardware,omitempty"`
	Extra        map[string]any `yaml:",inline"`
}

// IsShadow reports whether the record describes a virtual control plane VM
// hosted on one of the fleet's own hypervisors.
func (s ServerRecord) IsShadow() bool {
	_, ok := s.Extra[HypervisorIDKey]
	return ok
}
