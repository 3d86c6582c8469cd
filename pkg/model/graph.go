package model

import "sort"

// Graph is the visualization form of a component dependency graph.
// It is what the web layer serves; analysis code works on graph.ComponentGraph.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node is a component or an external type referenced by a component.
type Node struct {
	ID       string                 `json:"id"`
	Label    string                 `json:"label"`
	Type     string                 `json:"type"`             // "component" or "external"
	Parent   string                 `json:"parent,omitempty"` // Namespace the component is declared in
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Edge is a de-duplicated dependency between two nodes.
type Edge struct {
	Source   string                 `json:"source"`
	Target   string                 `json:"target"`
	Type     string                 `json:"type"` // Reference kinds joined with "+", e.g. "TypedAccess+FieldReference"
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AddNode adds a node to the graph. If a node with the same ID exists, it updates it.
func (g *Graph) AddNode(node *Node) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]interface{})
	}
	g.Nodes[node.ID] = node
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	if edge.Metadata == nil {
		edge.Metadata = make(map[string]interface{})
	}
	g.Edges = append(g.Edges, edge)
}

// NodeIDs returns all node IDs in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
