package graph

import (
	"encoding/json"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/unity-analyzer/pkg/model"
)

// HighCouplingThreshold is the dependency or dependent count at which a
// component counts as highly coupled
const HighCouplingThreshold = 5

// ComponentGraph is the project-wide dependency graph. Nodes are components
// and the external types they reference.
type ComponentGraph struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64 // Map from type name to graph ID
	names  map[int64]string // Map from graph ID to type name
	nextID int64

	components map[string]*model.Component
	sorted     []string // Component names in sorted order

	adjacency map[string][]string
	reverse   map[string][]string
	selfLoops map[string]bool
	edges     []model.DependencyEdge
}

// NewComponentGraph creates an empty graph
func NewComponentGraph() *ComponentGraph {
	return &ComponentGraph{
		graph:      simple.NewDirectedGraph(),
		ids:        make(map[string]int64),
		names:      make(map[int64]string),
		components: make(map[string]*model.Component),
		adjacency:  make(map[string][]string),
		reverse:    make(map[string][]string),
		selfLoops:  make(map[string]bool),
		edges:      make([]model.DependencyEdge, 0),
	}
}

// Build creates the graph from the merged components. Every reference becomes
// one raw edge; adjacency is de-duplicated. Components are expected to have
// unique names; a later duplicate replaces an earlier one.
func Build(components []*model.Component) *ComponentGraph {
	g := NewComponentGraph()

	for _, c := range components {
		g.components[c.ClassName] = c
	}
	for name := range g.components {
		g.sorted = append(g.sorted, name)
	}
	sort.Strings(g.sorted)

	for _, name := range g.sorted {
		g.addNode(name)
	}

	for _, name := range g.sorted {
		c := g.components[name]
		for _, ref := range c.References {
			g.edges = append(g.edges, model.DependencyEdge{
				Source:  name,
				Target:  ref.Type,
				Kind:    ref.Kind,
				Context: ref.Kind.Context(),
				Line:    ref.Line,
			})
			g.addDependency(name, ref.Type)
		}
	}

	for name := range g.adjacency {
		sort.Strings(g.adjacency[name])
		sort.Strings(g.reverse[name])
	}

	return g
}

func (g *ComponentGraph) addNode(name string) {
	if _, exists := g.ids[name]; exists {
		return
	}

	g.ids[name] = g.nextID
	g.names[g.nextID] = name
	g.graph.AddNode(simple.Node(g.nextID))
	g.adjacency[name] = []string{}
	g.reverse[name] = []string{}

	g.nextID++
}

func (g *ComponentGraph) addDependency(source, target string) {
	g.addNode(source)
	g.addNode(target)

	// simple.DirectedGraph panics on self edges, so they are tracked apart
	if source == target {
		if !g.selfLoops[source] {
			g.selfLoops[source] = true
			g.adjacency[source] = append(g.adjacency[source], target)
			g.reverse[target] = append(g.reverse[target], source)
		}
		return
	}

	sourceID, targetID := g.ids[source], g.ids[target]
	if g.graph.HasEdgeFromTo(sourceID, targetID) {
		return
	}
	g.graph.SetEdge(g.graph.NewEdge(g.graph.Node(sourceID), g.graph.Node(targetID)))
	g.adjacency[source] = append(g.adjacency[source], target)
	g.reverse[target] = append(g.reverse[target], source)
}

// Graph returns the underlying directed graph. Self-loops are not part of it;
// see SelfLoops.
func (g *ComponentGraph) Graph() *simple.DirectedGraph {
	return g.graph
}

// NameOf returns the type name for a graph ID
func (g *ComponentGraph) NameOf(id int64) (string, bool) {
	name, ok := g.names[id]
	return name, ok
}

// IsComponent reports whether the node is a component rather than an external type
func (g *ComponentGraph) IsComponent(name string) bool {
	_, ok := g.components[name]
	return ok
}

// Component returns the component with the given name
func (g *ComponentGraph) Component(name string) (*model.Component, bool) {
	c, ok := g.components[name]
	return c, ok
}

// Components returns component names in sorted order
func (g *ComponentGraph) Components() []string {
	return append([]string(nil), g.sorted...)
}

// Nodes returns every node name in sorted order
func (g *ComponentGraph) Nodes() []string {
	nodes := make([]string, 0, len(g.ids))
	for name := range g.ids {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return nodes
}

// SelfLoops returns the components that reference themselves, sorted
func (g *ComponentGraph) SelfLoops() []string {
	var loops []string
	for name := range g.selfLoops {
		loops = append(loops, name)
	}
	sort.Strings(loops)
	return loops
}

// Edges returns every raw edge, duplicates included, in source order
func (g *ComponentGraph) Edges() []model.DependencyEdge {
	return append([]model.DependencyEdge(nil), g.edges...)
}

// Adjacency returns a copy of the forward adjacency: node -> sorted unique dependencies
func (g *ComponentGraph) Adjacency() map[string][]string {
	return copyAdjacency(g.adjacency)
}

// ReverseAdjacency returns a copy of the reverse adjacency: node -> sorted unique dependents
func (g *ComponentGraph) ReverseAdjacency() map[string][]string {
	return copyAdjacency(g.reverse)
}

func copyAdjacency(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string{}, v...)
	}
	return out
}

// graphJSON is the exported form: both adjacency directions plus every raw
// edge with its evidence
type graphJSON struct {
	Adjacency        map[string][]string    `json:"adjacency"`
	ReverseAdjacency map[string][]string    `json:"reverseAdjacency"`
	Edges            []model.DependencyEdge `json:"edges"`
	SelfLoops        []string               `json:"selfLoops"`
}

// MarshalJSON exports the adjacency maps, the raw edges in build order and
// the self-loops. Map keys are written sorted, so equal graphs encode to
// identical bytes.
func (g *ComponentGraph) MarshalJSON() ([]byte, error) {
	out := graphJSON{
		Adjacency:        g.Adjacency(),
		ReverseAdjacency: g.ReverseAdjacency(),
		Edges:            append([]model.DependencyEdge{}, g.edges...),
		SelfLoops:        append([]string{}, g.SelfLoops()...),
	}
	return json.Marshal(out)
}

// Dependencies returns what the node refers to
func (g *ComponentGraph) Dependencies(name string) []string {
	return append([]string{}, g.adjacency[name]...)
}

// Dependents returns the nodes referring to name
func (g *ComponentGraph) Dependents(name string) []string {
	return append([]string{}, g.reverse[name]...)
}

// DependsOn reports whether source has a direct edge to target
func (g *ComponentGraph) DependsOn(source, target string) bool {
	deps := g.adjacency[source]
	i := sort.SearchStrings(deps, target)
	return i < len(deps) && deps[i] == target
}

const (
	white = iota
	grey
	black
)

type dfsFrame struct {
	name string
	next int // Index of the next dependency to visit
}

// HasCycle reports whether the graph contains a directed cycle. A self-loop
// is a cycle.
func (g *ComponentGraph) HasCycle() bool {
	color := make(map[string]int, len(g.ids))

	for _, start := range g.sorted {
		if color[start] != white {
			continue
		}
		color[start] = grey
		stack := []dfsFrame{{name: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.adjacency[top.name]
			if top.next >= len(deps) {
				color[top.name] = black
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++
			switch color[dep] {
			case grey:
				return true
			case white:
				color[dep] = grey
				stack = append(stack, dfsFrame{name: dep})
			}
		}
	}
	return false
}

// TopologicalOrder returns the components in reversed DFS post-order: a
// component comes before the components it depends on. Roots and
// dependencies are visited in sorted order. On a cyclic graph the order is
// still a permutation of the components but some edges point backwards.
func (g *ComponentGraph) TopologicalOrder() []string {
	visited := make(map[string]bool, len(g.ids))
	post := make([]string, 0, len(g.sorted))

	for _, start := range g.sorted {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack := []dfsFrame{{name: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.adjacency[top.name]
			if top.next >= len(deps) {
				post = append(post, top.name)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++
			if !visited[dep] {
				visited[dep] = true
				stack = append(stack, dfsFrame{name: dep})
			}
		}
	}

	order := make([]string, 0, len(g.sorted))
	for i := len(post) - 1; i >= 0; i-- {
		if g.IsComponent(post[i]) {
			order = append(order, post[i])
		}
	}
	return order
}

// HighCoupling returns the components with at least HighCouplingThreshold
// dependencies or dependents, sorted
func (g *ComponentGraph) HighCoupling() []string {
	var out []string
	for _, name := range g.sorted {
		if len(g.adjacency[name]) >= HighCouplingThreshold || len(g.reverse[name]) >= HighCouplingThreshold {
			out = append(out, name)
		}
	}
	return out
}

// Isolated returns the components with no dependencies and no dependents, sorted
func (g *ComponentGraph) Isolated() []string {
	var out []string
	for _, name := range g.sorted {
		if len(g.adjacency[name]) == 0 && len(g.reverse[name]) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// Visualization converts the graph into the node/edge form served to the UI
func (g *ComponentGraph) Visualization() *model.Graph {
	vis := model.NewGraph()

	for _, name := range g.Nodes() {
		node := &model.Node{ID: name, Label: name, Type: "external"}
		if c, ok := g.components[name]; ok {
			node.Type = "component"
			node.Parent = c.Namespace
			node.Metadata = map[string]interface{}{
				"filePath":   c.FilePath,
				"complexity": c.Complexity,
				"lifecycle":  c.LifecycleMethods,
			}
		}
		vis.AddNode(node)
	}

	kinds := make(map[[2]string][]string)
	for _, e := range g.edges {
		key := [2]string{e.Source, e.Target}
		kind := string(e.Kind)
		if !contains(kinds[key], kind) {
			kinds[key] = append(kinds[key], kind)
		}
	}

	for _, source := range g.Nodes() {
		for _, target := range g.adjacency[source] {
			k := kinds[[2]string{source, target}]
			sort.Strings(k)
			vis.AddEdge(&model.Edge{
				Source: source,
				Target: target,
				Type:   strings.Join(k, "+"),
			})
		}
	}

	return vis
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
