package models

type NodeType string

const (
	DeployerNode          NodeType = "DEPLOYER"
	StdDeployerNode       NodeType = "STD_DEPLOYER"
	VMFactoryNode         NodeType = "VMFACTORY"
	HypervisorNode        NodeType = "ARDANA_HYPERVISOR"
	ControllerNode        NodeType = "CONTROLLER"
	MidControllerNode     NodeType = "MID_CONTROLLER"
	LiteControllerNode    NodeType = "LITE_CONTROLLER"
	StdOSCControllerNode  NodeType = "STD_OSC_CONTROLLER"
	StdDBMQControllerNode NodeType = "STD_DBMQ_CONTROLLER"
	StdMMLControllerNode  NodeType = "STD_MML_CONTROLLER"
	DACControllerNode     NodeType = "DAC_CONTROLLER"
	ComputeNode           NodeType = "COMPUTE"
	LiteComputeNode       NodeType = "LITE_COMPUTE"
	StdComputeNode        NodeType = "STD_COMPUTE"
	DACComputeNode        NodeType = "DAC_COMPUTE"
	OSDNode               NodeType = "OSD"
	VSANode               NodeType = "VSA"
	RGWNode               NodeType = "RGW"
	SwiftObjectNode       NodeType = "SWOBJ"
)

// Family is the prefix shared by the override keys of related node types,
// e.g. every controller variant reads ARDANA_CCN_*.
type Family string

const (
	DeployerFamily    Family = "DPL"
	VMFactoryFamily   Family = "VMF"
	HypervisorFamily  Family = "HV"
	ControllerFamily  Family = "CCN"
	ComputeFamily     Family = "CPN"
	OSDFamily         Family = "CON"
	VSAFamily         Family = "VSA"
	RGWFamily         Family = "RGW"
	SwiftObjectFamily Family = "SWOBJ"
)

var NodeTypes = []NodeType{
	DeployerNode,
	StdDeployerNode,
	VMFactoryNode,
	HypervisorNode,
	ControllerNode,
	MidControllerNode,
	LiteControllerNode,
	StdOSCControllerNode,
	StdDBMQControllerNode,
	StdMMLControllerNode,
	DACControllerNode,
	ComputeNode,
	LiteComputeNode,
	StdComputeNode,
	DACComputeNode,
	OSDNode,
	VSANode,
	RGWNode,
	SwiftObjectNode,
}

func (t NodeType) Family() Family {
	switch t {
	case DeployerNode, StdDeployerNode:
		return DeployerFamily
	case VMFactoryNode:
		return VMFactoryFamily
	case HypervisorNode:
		return HypervisorFamily
	case ControllerNode, MidControllerNode, LiteControllerNode,
		StdOSCControllerNode, StdDBMQControllerNode, StdMMLControllerNode, DACControllerNode:
		return ControllerFamily
	case ComputeNode, LiteComputeNode, StdComputeNode, DACComputeNode:
		return ComputeFamily
	case OSDNode:
		return OSDFamily
	case VSANode:
		return VSAFamily
	case RGWNode:
		return RGWFamily
	case SwiftObjectNode:
		return SwiftObjectFamily
	}
	return ""
}

func (t NodeType) IsCompute() bool {
	return t.Family() == ComputeFamily
}

func (t NodeType) String() string {
	return string(t)
}
