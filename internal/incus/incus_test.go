package incus

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	incus "github.com/lxc/incus/client"
	"github.com/lxc/incus/shared/api"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errServer = errors.New("server unavailable")

type fakeOperation struct {
	incus.Operation
	err error
}

func (o *fakeOperation) WaitContext(_ context.Context) error {
	return o.err
}

type fakeServer struct {
	names     []string
	instances []api.InstancesPost
	volumes   map[string]api.StorageVolumesPost
	createErr error
	waitErr   error
}

func newFakeServer() *fakeServer {
	return &fakeServer{volumes: make(map[string]api.StorageVolumesPost)}
}

func (s *fakeServer) GetInstanceNames(_ api.InstanceType) ([]string, error) {
	return s.names, nil
}

func (s *fakeServer) CreateInstance(instance api.InstancesPost) (incus.Operation, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.instances = append(s.instances, instance)
	return &fakeOperation{err: s.waitErr}, nil
}

func (s *fakeServer) GetStoragePoolVolume(_ string, _ string, name string) (*api.StorageVolume, string, error) {
	if _, ok := s.volumes[name]; !ok {
		return nil, "", api.StatusErrorf(http.StatusNotFound, "volume %s not found", name)
	}
	return &api.StorageVolume{Name: name}, "", nil
}

func (s *fakeServer) CreateStoragePoolVolume(_ string, volume api.StorageVolumesPost) error {
	if _, ok := s.volumes[volume.Name]; ok {
		return api.StatusErrorf(http.StatusConflict, "volume %s exists", volume.Name)
	}
	s.volumes[volume.Name] = volume
	return nil
}

func (s *fakeServer) DeleteStoragePoolVolume(_ string, _ string, name string) error {
	if _, ok := s.volumes[name]; !ok {
		return api.StatusErrorf(http.StatusNotFound, "volume %s not found", name)
	}
	delete(s.volumes, name)
	return nil
}

func newIncus(t *testing.T, server IncusServerProvider) *Incus {
	t.Helper()

	i, err := New(Config{Server: server, Pool: "default", Network: "ardana"})
	require.NoError(t, err)
	return i
}

func deployerPlan() models.NodePlan {
	return models.NodePlan{
		Server: models.ServerRecord{ID: "deployer", Role: "ARDANA-ROLE"},
		Type:   models.DeployerNode,
		Hardware: models.HardwareProfile{
			Memory:      2048,
			CPU:         4,
			BootDiskGiB: models.BootDiskGiB,
			Disks: []models.Disk{
				{Bus: models.SCSIBus, Size: "10G", Path: "persistent-apt-cache-v2.qcow2", AllowExisting: true},
				{Bus: models.SCSIBus, Size: "20GB"},
			},
		},
		Interfaces: []models.NetworkInterface{
			{Index: 0, Kind: models.ClusterInterface, IP: "192.168.245.3", Netmask: "255.255.255.0", IPv6: "fd6e:8b2a:7c01::3", IPv6Prefix: 64},
			{Index: 1, Kind: models.ProvisioningInterface, IP: "192.168.10.254", Netmask: "255.255.255.0", MAC: "ee:00:c0:a8:0a:fe", AutoConfig: true},
			{Index: 2, Kind: models.IdleInterface, IP: "169.254.1.2", Netmask: "255.255.255.0", Bridged: true, Device: "br-idle1"},
		},
		GraphicsPort: 5910,
		OSDist:       "sles12sp3",
		Box:          "sles12sp3box",
		Deployer:     true,
		ExtraVars:    map[string]string{"persistent_apt_device": "/dev/sdc"},
		PlanID:       "5f1b6a52-3b8e-4c36-9d1e-7a0c2f4e8b11",
	}
}

func Test_DefineNode(t *testing.T) {
	server := newFakeServer()
	i := newIncus(t, server)

	require.NoError(t, i.DefineNode(context.Background(), deployerPlan()))
	require.Len(t, server.instances, 1)

	instance := server.instances[0]
	assert.Equal(t, "deployer", instance.Name)
	assert.Equal(t, api.InstanceTypeVM, instance.Type)
	assert.Equal(t, api.InstanceSource{Type: "image", Alias: "sles12sp3box"}, instance.Source)

	assert.Equal(t, "4", instance.Config["limits.cpu"])
	assert.Equal(t, "2048MiB", instance.Config["limits.memory"])
	assert.Equal(t, "ARDANA-ROLE", instance.Config[UserRoleKey])
	assert.Equal(t, "DEPLOYER", instance.Config[UserTypeKey])
	assert.Equal(t, "5910", instance.Config[UserGraphicsPortKey])
	assert.Equal(t, "true", instance.Config[UserDeployerKey])
	assert.Equal(t, "5f1b6a52-3b8e-4c36-9d1e-7a0c2f4e8b11", instance.Config[UserPlanKey])
	assert.Equal(t, "/dev/sdc", instance.Config[UserVarPrefix+"persistent_apt_device"])

	assert.Equal(t, "200GiB", instance.Devices["root"]["size"])
	assert.Equal(t, "persistent-apt-cache-v2", instance.Devices["disk0"]["source"])
	assert.Equal(t, "deployer-disk1", instance.Devices["disk1"]["source"])

	assert.Equal(t, map[string]string{"type": "nic", "name": "eth0", "network": "ardana"}, instance.Devices["eth0"])
	assert.Equal(t, "ee:00:c0:a8:0a:fe", instance.Devices["eth1"]["hwaddr"])
	assert.Equal(t, map[string]string{"type": "nic", "name": "eth2", "nictype": "bridged", "parent": "br-idle1"}, instance.Devices["eth2"])

	networkConfig := instance.Config[CloudInitNetworkConfig]
	assert.Contains(t, networkConfig, "- 192.168.245.3/24")
	assert.Contains(t, networkConfig, "- fd6e:8b2a:7c01::3/64")
	assert.Contains(t, networkConfig, `macaddress: "ee:00:c0:a8:0a:fe"`)
	assert.Contains(t, networkConfig, "- 169.254.1.2/24")

	require.Len(t, server.volumes, 2)
	assert.Equal(t, "10GB", server.volumes["persistent-apt-cache-v2"].Config["size"])
	assert.Equal(t, BlockContentType, server.volumes["deployer-disk1"].ContentType)
}

func Test_DefineNodeReusesExistingVolume(t *testing.T) {
	server := newFakeServer()
	server.volumes["persistent-apt-cache-v2"] = api.StorageVolumesPost{Name: "persistent-apt-cache-v2"}
	i := newIncus(t, server)

	require.NoError(t, i.DefineNode(context.Background(), deployerPlan()))
	assert.Len(t, server.volumes, 2)
}

func Test_DefineNodeErrors(t *testing.T) {
	testCases := []struct {
		name   string
		server func() *fakeServer
		node   func() models.NodePlan
		err    error
	}{
		{
			name: "create fails",
			server: func() *fakeServer {
				s := newFakeServer()
				s.createErr = errServer
				return s
			},
			node: deployerPlan,
			err:  errServer,
		},
		{
			name: "operation fails",
			server: func() *fakeServer {
				s := newFakeServer()
				s.waitErr = errServer
				return s
			},
			node: deployerPlan,
			err:  errServer,
		},
		{
			name:   "bad netmask",
			server: newFakeServer,
			node: func() models.NodePlan {
				node := deployerPlan()
				node.Interfaces[0].Netmask = "nope"
				return node
			},
			err: ErrInvalidNetmask,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			i := newIncus(t, tc.server())

			err := i.DefineNode(context.Background(), tc.node())
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func Test_DefineNodeRetryAfterFailedCreate(t *testing.T) {
	testCases := []struct {
		name      string
		createErr error
		waitErr   error
	}{
		{name: "create fails", createErr: errServer},
		{name: "operation fails", waitErr: errServer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newFakeServer()
			server.createErr = tc.createErr
			server.waitErr = tc.waitErr
			i := newIncus(t, server)

			err := i.DefineNode(context.Background(), deployerPlan())
			assert.ErrorIs(t, err, errServer)
			assert.Empty(t, server.volumes)

			server.createErr = nil
			server.waitErr = nil

			require.NoError(t, i.DefineNode(context.Background(), deployerPlan()))
			assert.Len(t, server.volumes, 2)
		})
	}
}

func Test_DefineNodeKeepsReusedVolumeOnFailure(t *testing.T) {
	server := newFakeServer()
	server.volumes["persistent-apt-cache-v2"] = api.StorageVolumesPost{Name: "persistent-apt-cache-v2"}
	server.createErr = errServer
	i := newIncus(t, server)

	err := i.DefineNode(context.Background(), deployerPlan())
	assert.ErrorIs(t, err, errServer)
	assert.Equal(t, []string{"persistent-apt-cache-v2"}, lo.Keys(server.volumes))
}

func Test_DefineNodeRootSize(t *testing.T) {
	testCases := []struct {
		name     string
		bootDisk int
		expected map[string]string
	}{
		{
			name:     "declared size",
			bootDisk: 120,
			expected: map[string]string{"type": "disk", "path": "/", "pool": "default", "size": "120GiB"},
		},
		{
			name:     "pool default when unset",
			bootDisk: 0,
			expected: map[string]string{"type": "disk", "path": "/", "pool": "default"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newFakeServer()
			i := newIncus(t, server)

			node := deployerPlan()
			node.Hardware.BootDiskGiB = tc.bootDisk

			require.NoError(t, i.DefineNode(context.Background(), node))
			require.Len(t, server.instances, 1)
			assert.Equal(t, tc.expected, server.instances[0].Devices["root"])
		})
	}
}

func Test_DefineNodeExistingVolumeConflict(t *testing.T) {
	server := newFakeServer()
	server.volumes["deployer-disk1"] = api.StorageVolumesPost{Name: "deployer-disk1"}
	i := newIncus(t, server)

	err := i.DefineNode(context.Background(), deployerPlan())
	assert.Error(t, err)
	assert.Empty(t, server.instances)
	assert.NotContains(t, server.volumes, "persistent-apt-cache-v2")
	assert.Contains(t, server.volumes, "deployer-disk1")
}

func Test_GetInstanceNames(t *testing.T) {
	server := newFakeServer()
	server.names = []string{"deployer", "compute1"}

	names, err := newIncus(t, server).GetInstanceNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"deployer", "compute1"}, names)
}

func Test_prefixLen(t *testing.T) {
	testCases := []struct {
		netmask  string
		expected int
		wantErr  bool
	}{
		{netmask: "255.255.255.0", expected: 24},
		{netmask: "255.255.0.0", expected: 16},
		{netmask: "255.0.255.0", wantErr: true},
		{netmask: "", wantErr: true},
	}

	for _, tc := range testCases {
		actual, err := prefixLen(tc.netmask)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidNetmask)
		} else {
			assert.Equal(t, tc.expected, actual)
		}
	}
}

func Test_volumeSize(t *testing.T) {
	assert.Equal(t, "10GB", volumeSize("10G"))
	assert.Equal(t, "20GB", volumeSize("20GB"))
	assert.Equal(t, "512MiB", volumeSize("512MiB"))
	assert.Equal(t, "", volumeSize(""))
}
