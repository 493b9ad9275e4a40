package planner

import "github.com/hogwarts-cloud/fleetplan/internal/models"

const GraphicsPortBase = 5910

// graphicsPorts hands out console ports to nodes that do not declare one,
// counting up from GraphicsPortBase and skipping ports claimed explicitly
// anywhere in the fleet.
type graphicsPorts struct {
	next    int
	claimed map[int]struct{}
}

func (g *graphicsPorts) assign(node models.ServerRecord) int {
	if node.GraphicsPort > 0 {
		return node.GraphicsPort
	}

	for {
		port := g.next
		g.next++

		if _, ok := g.claimed[port]; !ok {
			return port
		}
	}
}

func newGraphicsPorts(servers []models.ServerRecord) *graphicsPorts {
	claimed := make(map[int]struct{})
	for _, server := range servers {
		if server.GraphicsPort > 0 {
			claimed[server.GraphicsPort] = struct{}{}
		}
	}

	return &graphicsPorts{next: GraphicsPortBase, claimed: claimed}
}
