package incus

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"text/template"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	incus "github.com/lxc/incus/client"
	"github.com/lxc/incus/shared/api"
	"github.com/samber/lo"
)

const (
	CloudInitNetworkConfig = "cloud-init.network-config"
	NetworkConfigTemplate  = "network-config.yaml.tmpl"
	CustomVolumeType       = "custom"
	BlockContentType       = "block"

	UserRoleKey         = "user.ardana.role"
	UserTypeKey         = "user.ardana.type"
	UserOSDistKey       = "user.ardana.os-dist"
	UserGraphicsPortKey = "user.ardana.graphics-port"
	UserDeployerKey     = "user.ardana.deployer"
	UserPlanKey         = "user.ardana.plan"
	UserVarPrefix       = "user.ardana.var."
)

var ErrInvalidNetmask = errors.New("invalid netmask")

//go:embed templates
var templatesFS embed.FS

//go:generate mockgen -source incus.go -destination mocks/incus_server_provider.go -package mocks
type IncusServerProvider interface {
	GetInstanceNames(instanceType api.InstanceType) ([]string, error)
	CreateInstance(instance api.InstancesPost) (incus.Operation, error)
	GetStoragePoolVolume(pool string, volType string, name string) (*api.StorageVolume, string, error)
	CreateStoragePoolVolume(pool string, volume api.StorageVolumesPost) error
	DeleteStoragePoolVolume(pool string, volType string, name string) error
}

type Config struct {
	Server  IncusServerProvider
	Pool    string
	Network string
}

// Incus defines fleet nodes as virtual machines. Instances are created
// stopped so that provisioning can start them in its own order.
type Incus struct {
	server    IncusServerProvider
	pool      string
	network   string
	templates *template.Template
}

func (i *Incus) GetInstanceNames(ctx context.Context) ([]string, error) {
	names, err := i.server.GetInstanceNames(api.InstanceTypeVM)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance names: %w", err)
	}

	return names, nil
}

// DefineNode creates the VM of node. Volumes created by a call that fails
// are removed again so that the node can be defined later.
func (i *Incus) DefineNode(ctx context.Context, node models.NodePlan) (err error) {
	networkConfig := &strings.Builder{}
	if err := i.templates.ExecuteTemplate(networkConfig, NetworkConfigTemplate, node); err != nil {
		return fmt.Errorf("failed to execute network config template: %w", err)
	}

	root := map[string]string{
		"type": "disk",
		"path": "/",
		"pool": i.pool,
	}
	if node.Hardware.BootDiskGiB > 0 {
		root["size"] = fmt.Sprintf("%dGiB", node.Hardware.BootDiskGiB)
	}

	devices := map[string]map[string]string{"root": root}

	created := make([]string, 0, len(node.Hardware.Disks))
	defer func() {
		if err != nil {
			err = errors.Join(err, i.deleteVolumes(created))
		}
	}()

	for index, disk := range node.Hardware.Disks {
		volume := volumeName(node.Name(), index, disk)

		isCreated, err := i.ensureVolume(volume, disk)
		if err != nil {
			return fmt.Errorf("failed to prepare disk %d of %s: %w", index, node.Name(), err)
		}
		if isCreated {
			created = append(created, volume)
		}

		devices[fmt.Sprintf("disk%d", index)] = map[string]string{
			"type":   "disk",
			"pool":   i.pool,
			"source": volume,
		}
	}

	for _, nic := range node.Interfaces {
		devices[nicName(nic.Index)] = i.nicDevice(nic)
	}

	instanceConfig := map[string]string{
		"limits.cpu":           strconv.Itoa(node.Hardware.CPU),
		"limits.memory":        fmt.Sprintf("%dMiB", node.Hardware.Memory),
		CloudInitNetworkConfig: networkConfig.String(),
		UserRoleKey:            node.Server.Role,
		UserTypeKey:            node.Type.String(),
		UserOSDistKey:          node.OSDist,
		UserGraphicsPortKey:    strconv.Itoa(node.GraphicsPort),
		UserDeployerKey:        strconv.FormatBool(node.Deployer),
		UserPlanKey:            node.PlanID,
	}
	for key, value := range node.ExtraVars {
		instanceConfig[UserVarPrefix+key] = value
	}

	op, err := i.server.CreateInstance(api.InstancesPost{
		InstancePut: api.InstancePut{
			Config:  instanceConfig,
			Devices: devices,
		},
		Name:   node.Name(),
		Source: api.InstanceSource{Type: "image", Alias: node.Box},
		Type:   api.InstanceTypeVM,
	})
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}

	if err := op.WaitContext(ctx); err != nil {
		return fmt.Errorf("failed to wait create instance operation: %w", err)
	}

	return nil
}

// ensureVolume creates the custom block volume backing disk and reports
// whether it did. Disks that allow an existing volume reuse it.
func (i *Incus) ensureVolume(name string, disk models.Disk) (bool, error) {
	if disk.AllowExisting {
		_, _, err := i.server.GetStoragePoolVolume(i.pool, CustomVolumeType, name)
		if err == nil {
			return false, nil
		}
		if !api.StatusErrorCheck(err, http.StatusNotFound) {
			return false, fmt.Errorf("failed to get storage volume: %w", err)
		}
	}

	if err := i.server.CreateStoragePoolVolume(i.pool, api.StorageVolumesPost{
		Name:        name,
		Type:        CustomVolumeType,
		ContentType: BlockContentType,
		StorageVolumePut: api.StorageVolumePut{
			Config: map[string]string{"size": volumeSize(disk.Size)},
		},
	}); err != nil {
		return false, fmt.Errorf("failed to create storage volume: %w", err)
	}

	return true, nil
}

func (i *Incus) deleteVolumes(names []string) error {
	errs := make([]error, 0)
	for _, name := range names {
		if err := i.server.DeleteStoragePoolVolume(i.pool, CustomVolumeType, name); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete storage volume %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

func (i *Incus) nicDevice(nic models.NetworkInterface) map[string]string {
	device := map[string]string{
		"type": "nic",
		"name": nicName(nic.Index),
	}

	if nic.Bridged {
		device["nictype"] = "bridged"
		device["parent"] = nic.Device
	} else {
		device["network"] = i.network
	}

	if nic.MAC != "" {
		device["hwaddr"] = nic.MAC
	}

	return device
}

func New(config Config) (*Incus, error) {
	templates, err := template.New("").
		Funcs(template.FuncMap{"nicName": nicName, "prefixLen": prefixLen}).
		ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Incus{
		server:    config.Server,
		pool:      config.Pool,
		network:   config.Network,
		templates: templates,
	}, nil
}

func nicName(index int) string {
	return fmt.Sprintf("eth%d", index)
}

func prefixLen(netmask string) (int, error) {
	ip := net.ParseIP(netmask).To4()
	if ip == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNetmask, netmask)
	}

	ones, bits := net.IPMask(ip).Size()
	if bits == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNetmask, netmask)
	}

	return ones, nil
}

// volumeName derives the storage volume of a disk. Disks with a path keep
// it as their shared name so that they survive redefinition of the node.
func volumeName(node string, index int, disk models.Disk) string {
	if disk.Path == "" {
		return fmt.Sprintf("%s-disk%d", node, index)
	}

	base := path.Base(disk.Path)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.ReplaceAll(base, ".", "-")
}

// volumeSize turns sizes such as "10G" into the "10GB" form Incus parses.
func volumeSize(size string) string {
	if size != "" && lo.Contains([]string{"K", "M", "G", "T"}, size[len(size)-1:]) {
		return size + "B"
	}
	return size
}
