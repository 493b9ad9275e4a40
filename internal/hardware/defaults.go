package hardware

import "github.com/hogwarts-cloud/fleetplan/internal/models"

type Defaults struct {
	Memory     int
	CPU        int
	Flavor     string
	DiskSize   string
	ExtraDisks int
}

// DefaultTable holds the built-in sizing of every node type. Memory is in
// MiB. Controllers in the full-size models run every control plane service
// and get the most memory.
var DefaultTable = map[models.NodeType]Defaults{
	models.DeployerNode:          {Memory: 2048, CPU: 4, Flavor: "standard.xsmall"},
	models.StdDeployerNode:       {Memory: 4096, CPU: 4, Flavor: "standard.small"},
	models.VMFactoryNode:         {Memory: 32768, CPU: 16, Flavor: "standard.xlarge", DiskSize: "70GB", ExtraDisks: 5},
	models.HypervisorNode:        {Memory: 32768, CPU: 16, Flavor: "standard.xlarge", DiskSize: "70GB", ExtraDisks: 5},
	models.ControllerNode:        {Memory: 15360, CPU: 4, Flavor: "standard.medium", DiskSize: "20GB", ExtraDisks: 5},
	models.MidControllerNode:     {Memory: 10240, CPU: 4, Flavor: "standard.medium", DiskSize: "20GB", ExtraDisks: 5},
	models.LiteControllerNode:    {Memory: 9216, CPU: 2, Flavor: "standard.medium", DiskSize: "20GB", ExtraDisks: 5},
	models.StdOSCControllerNode:  {Memory: 12288, CPU: 4, Flavor: "standard.medium", DiskSize: "20GB", ExtraDisks: 5},
	models.StdDBMQControllerNode: {Memory: 8192, CPU: 2, Flavor: "standard.medium", DiskSize: "20GB", ExtraDisks: 5},
	models.StdMMLControllerNode:  {Memory: 10240, CPU: 4, Flavor: "standard.medium", DiskSize: "20GB", ExtraDisks: 5},
	models.DACControllerNode:     {Memory: 16384, CPU: 4, Flavor: "standard.large", DiskSize: "20GB", ExtraDisks: 5},
	models.ComputeNode:           {Memory: 6144, CPU: 4, Flavor: "standard.small", DiskSize: "20GB", ExtraDisks: 1},
	models.LiteComputeNode:       {Memory: 4096, CPU: 2, Flavor: "standard.small", DiskSize: "20GB", ExtraDisks: 1},
	models.StdComputeNode:        {Memory: 6144, CPU: 4, Flavor: "standard.small", DiskSize: "20GB", ExtraDisks: 1},
	models.DACComputeNode:        {Memory: 6144, CPU: 4, Flavor: "standard.small", DiskSize: "20GB", ExtraDisks: 1},
	models.OSDNode:               {Memory: 4096, CPU: 2, Flavor: "standard.small", DiskSize: "11GB", ExtraDisks: 6},
	models.VSANode:               {Memory: 12288, CPU: 2, Flavor: "standard.medium", DiskSize: "30GB", ExtraDisks: 6},
	models.RGWNode:               {Memory: 4096, CPU: 2, Flavor: "standard.small"},
	models.SwiftObjectNode:       {Memory: 2048, CPU: 2, Flavor: "standard.small", DiskSize: "20GB", ExtraDisks: 5},
}

func overrideKey(family models.Family, field string) string {
	return "ARDANA_" + string(family) + "_" + field
}
