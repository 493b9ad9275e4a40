package classifier

import (
	"strings"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
)

// Fallback is used for roles no rule matches: the mid-size controllers of the
// smaller CI models.
const Fallback = models.MidControllerNode

type Rule struct {
	Marker string
	Type   models.NodeType
}

// Rules are evaluated top to bottom and the first rule whose marker occurs in
// the role wins. Role names overlap ("STD-OSC-CONTROLLER" also contains
// "CONTROLLER", "ARDANA-HYPERVISOR" contains "ARDANA"), so every specific
// marker must stay above the generic one it contains.
var Rules = []Rule{
	{Marker: "LITE-COMPUTE", Type: models.LiteComputeNode},
	{Marker: "STD-COMPUTE", Type: models.StdComputeNode},
	{Marker: "DAC-COMPUTE", Type: models.DACComputeNode},
	{Marker: "COMPUTE", Type: models.ComputeNode},
	{Marker: "VMFACTORY", Type: models.VMFactoryNode},
	{Marker: "ARDANA-HYPERVISOR", Type: models.HypervisorNode},
	{Marker: "LITE-CONTROLLER", Type: models.LiteControllerNode},
	{Marker: "STD-OSC-CONTROLLER", Type: models.StdOSCControllerNode},
	{Marker: "STD-DBMQ-CONTROLLER", Type: models.StdDBMQControllerNode},
	{Marker: "STD-MML-CONTROLLER", Type: models.StdMMLControllerNode},
	{Marker: "DAC-CONTROLLER", Type: models.DACControllerNode},
	{Marker: "CONTROLLER", Type: models.ControllerNode},
	{Marker: "OSD", Type: models.OSDNode},
	{Marker: "VSA", Type: models.VSANode},
	{Marker: "STD-ARDANA", Type: models.StdDeployerNode},
	{Marker: "ARDANA", Type: models.DeployerNode},
	{Marker: "RGW", Type: models.RGWNode},
	{Marker: "SWOBJ", Type: models.SwiftObjectNode},
}

type Classifier struct {
	rules []Rule
}

func (c *Classifier) Classify(role string) models.NodeType {
	for _, rule := range c.rules {
		if strings.Contains(role, rule.Marker) {
			return rule.Type
		}
	}

	return Fallback
}

func New() *Classifier {
	return &Classifier{rules: Rules}
}

func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}
