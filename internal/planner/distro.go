package planner

import (
	"slices"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
)

const (
	SLESDist = "sles12sp3"
	RHELDist = "rhel7"

	DefaultDistKey = "ARDANA_DEFAULT_OS_DIST"
	RHELComputeKey = "ARDANA_RHEL_COMPUTE"
	RHELNodesKey   = "ARDANA_RHEL_COMPUTE_NODES"
	SLESComputeKey = "ARDANA_SLES_COMPUTE"
	SLESNodesKey   = "ARDANA_SLES_COMPUTE_NODES"
	nodeListSep    = ":"
	boxSuffix      = "box"
)

type distroSelector struct {
	fallback  string
	rhelAll   bool
	rhelNodes []string
	slesAll   bool
	slesNodes []string
}

// resolve picks the distribution of a node. An explicit os-dist always wins;
// node lists select by id, blanket switches apply to compute nodes only and
// SLES is checked after RHEL so it wins when both match.
func (d distroSelector) resolve(node models.ServerRecord, nodeType models.NodeType) string {
	if node.OSDist != "" {
		return node.OSDist
	}

	dist := d.fallback
	if slices.Contains(d.rhelNodes, node.ID) || (d.rhelAll && nodeType.IsCompute()) {
		dist = RHELDist
	}
	if slices.Contains(d.slesNodes, node.ID) || (d.slesAll && nodeType.IsCompute()) {
		dist = SLESDist
	}

	return dist
}

func newDistroSelector(overrides models.Overrides) distroSelector {
	return distroSelector{
		fallback:  overrides.StringOr(DefaultDistKey, SLESDist),
		rhelAll:   overrides.Flag(RHELComputeKey),
		rhelNodes: overrides.List(RHELNodesKey, nodeListSep),
		slesAll:   overrides.Flag(SLESComputeKey),
		slesNodes: overrides.List(SLESNodesKey, nodeListSep),
	}
}
