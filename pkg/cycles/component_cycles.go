package cycles

import (
	"sort"

	"github.com/ritzau/unity-analyzer/pkg/graph"
)

// ComponentCycle represents a circular dependency between components
type ComponentCycle struct {
	Components []string `json:"components"` // Sorted member names
	SelfLoop   bool     `json:"selfLoop,omitempty"`
}

// FindComponentCycles finds all circular dependencies in the component graph.
// Every strongly connected component with more than one member is one cycle,
// and every self-reference is a single-member cycle. Cycles are sorted by
// their first member.
func FindComponentCycles(g *graph.ComponentGraph) []ComponentCycle {
	tarjan := NewTarjanSCC(g.Graph())
	sccs := tarjan.FindSCCs()

	cycles := make([]ComponentCycle, 0, len(sccs))
	for _, scc := range sccs {
		// Convert node IDs back to names
		names := make([]string, 0, len(scc))
		for _, nodeID := range scc {
			if name, ok := g.NameOf(nodeID); ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		if len(names) > 1 {
			cycles = append(cycles, ComponentCycle{Components: names})
		}
	}

	for _, name := range g.SelfLoops() {
		cycles = append(cycles, ComponentCycle{Components: []string{name}, SelfLoop: true})
	}

	sort.SliceStable(cycles, func(i, j int) bool {
		a, b := cycles[i].Components, cycles[j].Components
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return len(a) > len(b)
	})

	return cycles
}
