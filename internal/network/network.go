package network

import (
	"errors"
	"fmt"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/hogwarts-cloud/fleetplan/pkg/utils"
)

const (
	ClusterSubnet     = "192.168.245"
	LinkLocalSubnet   = "169.254"
	Netmask           = "255.255.255.0"
	DefaultIdleCount  = 6
	OpenStackProvider = "openstack"

	ClusterBridgeKey  = "ARDANA_ARDANA_INTF"
	PXEBridgeKey      = "ARDANA_PXE_INTF"
	IdleBridgeKey     = "ARDANA_IDLE_INTF_%d"
	IPv6EnabledKey    = "ARDANA_IPV6_INTF_%d"
	IPv6PoolKey       = "ARDANA_IPV6_POOL"
	clusterPoolIndex  = 0
	idleIPv6Host      = 2
	maxIPv4HostOctet  = 254
	maxIdleInterfaces = 255
)

var ErrInvalidAddress = errors.New("invalid address")

type Config struct {
	Provider  string
	Modifier  int
	Overrides models.Overrides
	Pool      Pool
}

type Planner struct {
	provider  string
	modifier  int
	overrides models.Overrides
	pool      Pool
}

// Plan lays out the interfaces of node: an optional access network, the
// cluster network addressed by vipOffset, the provisioning network and
// idleCount placeholder interfaces.
func (p *Planner) Plan(node models.ServerRecord, vipOffset, idleCount int) ([]models.NetworkInterface, error) {
	if idleCount < 0 || idleCount > maxIdleInterfaces {
		return nil, fmt.Errorf("%w: idle interface count %d", ErrInvalidAddress, idleCount)
	}

	nics := make([]models.NetworkInterface, 0, idleCount+3)

	if p.provider == OpenStackProvider {
		nics = append(nics, models.NetworkInterface{
			Kind:       models.AccessInterface,
			DHCP:       true,
			AutoConfig: true,
		})
	}

	cluster, err := p.clusterInterface(vipOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to plan cluster interface of %s: %w", node.ID, err)
	}
	nics = append(nics, cluster)

	provisioning, err := p.provisioningInterface(node)
	if err != nil {
		return nil, fmt.Errorf("failed to plan provisioning interface of %s: %w", node.ID, err)
	}
	nics = append(nics, provisioning)

	for n := 1; n <= idleCount; n++ {
		idle, err := p.idleInterface(n)
		if err != nil {
			return nil, fmt.Errorf("failed to plan idle interface %d of %s: %w", n, node.ID, err)
		}
		nics = append(nics, idle)
	}

	for i := range nics {
		nics[i].Index = i
	}

	return nics, nil
}

func (p *Planner) clusterInterface(vipOffset int) (models.NetworkInterface, error) {
	host := 1 + vipOffset + p.modifier
	if host < 1 || host > maxIPv4HostOctet {
		return models.NetworkInterface{}, fmt.Errorf("%w: cluster host %d out of range", ErrInvalidAddress, host)
	}

	nic := models.NetworkInterface{
		Kind:    models.ClusterInterface,
		IP:      fmt.Sprintf("%s.%d", ClusterSubnet, host),
		Netmask: Netmask,
	}
	p.bridge(&nic, ClusterBridgeKey)

	if err := p.assignIPv6(&nic, clusterPoolIndex, uint64(host)); err != nil {
		return models.NetworkInterface{}, err
	}

	return nic, nil
}

func (p *Planner) provisioningInterface(node models.ServerRecord) (models.NetworkInterface, error) {
	nic := models.NetworkInterface{
		Kind:       models.ProvisioningInterface,
		AutoConfig: true,
		MAC:        node.MACAddr,
	}
	p.bridge(&nic, PXEBridgeKey)

	if node.IPAddr == "" {
		nic.DHCP = true
		return nic, nil
	}

	nic.IP = node.IPAddr
	nic.Netmask = Netmask

	if nic.MAC == "" {
		mac, err := utils.GenerateMAC(node.IPAddr)
		if err != nil {
			return models.NetworkInterface{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		nic.MAC = mac
	}

	return nic, nil
}

func (p *Planner) idleInterface(n int) (models.NetworkInterface, error) {
	nic := models.NetworkInterface{
		Kind:    models.IdleInterface,
		IP:      fmt.Sprintf("%s.%d.2", LinkLocalSubnet, n),
		Netmask: Netmask,
	}
	p.bridge(&nic, fmt.Sprintf(IdleBridgeKey, n))

	if err := p.assignIPv6(&nic, n, idleIPv6Host); err != nil {
		return models.NetworkInterface{}, err
	}

	return nic, nil
}

func (p *Planner) bridge(nic *models.NetworkInterface, key string) {
	if device, ok := p.overrides.String(key); ok {
		nic.Bridged = true
		nic.Device = device
	}
}

func (p *Planner) assignIPv6(nic *models.NetworkInterface, index int, host uint64) error {
	if !p.overrides.Flag(fmt.Sprintf(IPv6EnabledKey, index)) {
		return nil
	}

	addr, bits, err := p.pool.Address(index, host)
	if err != nil {
		return fmt.Errorf("failed to assign ipv6 to interface index %d: %w", index, err)
	}

	nic.IPv6 = addr.String()
	nic.IPv6Prefix = bits

	return nil
}

func New(cfg Config) *Planner {
	return &Planner{
		provider:  cfg.Provider,
		modifier:  cfg.Modifier,
		overrides: cfg.Overrides,
		pool:      cfg.Pool,
	}
}

// NewPoolFromOverrides combines the embedded default pool with the
// comma separated ARDANA_IPV6_POOL override.
func NewPoolFromOverrides(overrides models.Overrides) (Pool, error) {
	defaults, err := DefaultPool()
	if err != nil {
		return Pool{}, err
	}

	return NewPool(defaults, overrides.Fields(IPv6PoolKey, ",")), nil
}
