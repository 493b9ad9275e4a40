package network

import "github.com/hogwarts-cloud/fleetplan/internal/models"

// VIPAllocator hands out cluster network offsets in fleet order. Each
// contiguous run of same-typed nodes reserves one group offset ahead of its
// members, so the sequence depends on the order of the fleet descriptor.
type VIPAllocator struct {
	offset   int
	previous models.NodeType
}

func (a *VIPAllocator) Next(nodeType models.NodeType) int {
	if nodeType != a.previous {
		a.offset++
		a.previous = nodeType
	}

	offset := a.offset
	a.offset++

	return offset
}

func NewVIPAllocator() *VIPAllocator {
	return &VIPAllocator{offset: 1}
}
