package web

import (
	"sort"

	"github.com/ritzau/unity-analyzer/pkg/graph"
	"github.com/ritzau/unity-analyzer/pkg/model"
)

// Node roles in a focused graph
const (
	RoleFocused  = "focused"
	RoleIncoming = "incoming" // Depends on the focused component
	RoleOutgoing = "outgoing" // The focused component depends on it
	RoleContext  = "context"  // Further than one hop away
)

// MaxFocusDepth bounds the neighbourhood a client can request
const MaxFocusDepth = 5

// FocusedGraph cuts the visualization graph down to one component and every
// component within depth hops of it, ignoring edge direction. Each node
// carries its role and distance; edges between two kept nodes are kept.
func FocusedGraph(g *graph.ComponentGraph, name string, depth int) *model.Graph {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxFocusDepth {
		depth = MaxFocusDepth
	}

	full := g.Visualization()
	out := model.NewGraph()

	distances := neighbourhood(g, name, depth)
	roles := map[string]string{name: RoleFocused}
	for _, dep := range g.Dependents(name) {
		roles[dep] = RoleIncoming
	}
	for _, dep := range g.Dependencies(name) {
		if roles[dep] == "" {
			roles[dep] = RoleOutgoing
		}
	}

	for id, dist := range distances {
		node, ok := full.Nodes[id]
		if !ok {
			continue
		}
		role := roles[id]
		if role == "" {
			role = RoleContext
		}

		copied := *node
		copied.Metadata = make(map[string]interface{}, len(node.Metadata)+2)
		for k, v := range node.Metadata {
			copied.Metadata[k] = v
		}
		copied.Metadata["role"] = role
		copied.Metadata["distance"] = dist
		out.AddNode(&copied)
	}

	for _, e := range full.Edges {
		if _, ok := distances[e.Source]; !ok {
			continue
		}
		if _, ok := distances[e.Target]; ok {
			out.AddEdge(e)
		}
	}
	return out
}

// neighbourhood runs a breadth-first search from name over the undirected
// component graph and returns the hop count of every node reached
func neighbourhood(g *graph.ComponentGraph, name string, depth int) map[string]int {
	distances := map[string]int{name: 0}
	queue := []string{name}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if distances[current] == depth {
			continue
		}

		neighbours := append(g.Dependencies(current), g.Dependents(current)...)
		sort.Strings(neighbours)
		for _, n := range neighbours {
			if _, seen := distances[n]; seen {
				continue
			}
			distances[n] = distances[current] + 1
			queue = append(queue, n)
		}
	}
	return distances
}
