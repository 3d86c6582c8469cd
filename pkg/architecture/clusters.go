package architecture

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/unity-analyzer/pkg/graph"
)

// Cluster is a group of components connected by references between them,
// ignoring direction. External types do not join clusters.
type Cluster struct {
	Components []string `json:"components"` // Sorted
	Edges      int      `json:"edges"`      // Distinct component-to-component references inside
}

// Clusters returns the connected components of the undirected
// component-to-component graph that have at least two members, sorted by
// their first member
func Clusters(g *graph.ComponentGraph) []Cluster {
	names := g.Components()
	ids := make(map[string]int64, len(names))
	u := simple.NewUndirectedGraph()
	for i, name := range names {
		ids[name] = int64(i)
		u.AddNode(simple.Node(i))
	}

	for _, source := range names {
		for _, target := range g.Dependencies(source) {
			tid, ok := ids[target]
			if !ok || target == source {
				continue
			}
			sid := ids[source]
			if !u.HasEdgeBetween(sid, tid) {
				u.SetEdge(u.NewEdge(u.Node(sid), u.Node(tid)))
			}
		}
	}

	out := []Cluster{}
	for _, members := range topo.ConnectedComponents(u) {
		if len(members) < 2 {
			continue
		}
		c := Cluster{Components: make([]string, 0, len(members))}
		for _, n := range members {
			c.Components = append(c.Components, names[n.ID()])
		}
		sort.Strings(c.Components)
		in := make(map[string]bool, len(c.Components))
		for _, name := range c.Components {
			in[name] = true
		}
		for _, source := range c.Components {
			for _, target := range g.Dependencies(source) {
				if in[target] && target != source {
					c.Edges++
				}
			}
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Components[0] < out[j].Components[0]
	})
	return out
}
