package graph

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"

	"github.com/ritzau/unity-analyzer/pkg/model"
)

// comp builds a component with one typed-access reference per target
func comp(name string, targets ...string) *model.Component {
	c := &model.Component{ClassName: name}
	for i, target := range targets {
		c.AddReference(model.Reference{Type: target, Kind: model.ReferenceTypedAccess, Line: i + 1})
	}
	return c
}

func TestBuildSimpleDependency(t *testing.T) {
	g := Build([]*model.Component{comp("A", "B"), comp("B")})

	if got := g.Dependencies("A"); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("Dependencies(A) = %v, want [B]", got)
	}
	if got := g.Dependents("B"); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Dependents(B) = %v, want [A]", got)
	}
	if g.HasCycle() {
		t.Error("Expected no cycle")
	}
	if got := g.TopologicalOrder(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("TopologicalOrder() = %v, want [A B]", got)
	}
}

func TestMutualDependencyIsCycle(t *testing.T) {
	g := Build([]*model.Component{comp("A", "B"), comp("B", "A")})

	if !g.HasCycle() {
		t.Error("Expected A <-> B to be a cycle")
	}

	order := g.TopologicalOrder()
	sort.Strings(order)
	if !reflect.DeepEqual(order, []string{"A", "B"}) {
		t.Errorf("TopologicalOrder() should still cover all components, got %v", order)
	}
}

func TestSelfLoop(t *testing.T) {
	g := Build([]*model.Component{comp("Node", "Node")})

	if !g.HasCycle() {
		t.Error("Expected self-loop to be a cycle")
	}
	if got := g.SelfLoops(); !reflect.DeepEqual(got, []string{"Node"}) {
		t.Errorf("SelfLoops() = %v", got)
	}
	if got := g.Dependencies("Node"); !reflect.DeepEqual(got, []string{"Node"}) {
		t.Errorf("Dependencies(Node) = %v", got)
	}
	if g.Graph().Edges().Len() != 0 {
		t.Error("Self-loop must not reach the gonum graph")
	}
}

func TestDuplicateReferencesStayInRawEdges(t *testing.T) {
	a := comp("A", "Rigidbody", "Rigidbody")
	a.AddReference(model.Reference{Type: "Rigidbody", Kind: model.ReferenceRequired, Line: 1})

	g := Build([]*model.Component{a})

	if len(g.Edges()) != 3 {
		t.Errorf("Expected 3 raw edges, got %d", len(g.Edges()))
	}
	if got := g.Dependencies("A"); !reflect.DeepEqual(got, []string{"Rigidbody"}) {
		t.Errorf("Dependencies(A) = %v, want [Rigidbody]", got)
	}

	edge := g.Edges()[2]
	if edge.Kind != model.ReferenceRequired || edge.Context != "Declaration" {
		t.Errorf("Unexpected edge %+v", edge)
	}
}

func TestAdjacencyIsExactInverse(t *testing.T) {
	g := Build([]*model.Component{
		comp("A", "B", "C", "Rigidbody"),
		comp("B", "C", "A"),
		comp("C", "C"),
		comp("D"),
	})

	fwd := g.Adjacency()
	rev := g.ReverseAdjacency()

	for u, vs := range fwd {
		if !sort.StringsAreSorted(vs) {
			t.Errorf("adjacency[%s] not sorted: %v", u, vs)
		}
		for _, v := range vs {
			if !containsString(rev[v], u) {
				t.Errorf("%s -> %s missing from reverse adjacency", u, v)
			}
		}
	}
	for v, us := range rev {
		for _, u := range us {
			if !containsString(fwd[u], v) {
				t.Errorf("reverse %s <- %s missing from adjacency", v, u)
			}
		}
	}
}

func TestTopologicalOrderRespectsEdges(t *testing.T) {
	g := Build([]*model.Component{
		comp("UI", "Player", "Score"),
		comp("Player", "Weapon", "Rigidbody"),
		comp("Weapon"),
		comp("Score"),
	})

	order := g.TopologicalOrder()
	if len(order) != 4 {
		t.Fatalf("Expected 4 components, got %v", order)
	}

	pos := make(map[string]int)
	for i, name := range order {
		pos[name] = i
	}
	for _, e := range g.Edges() {
		if !g.IsComponent(e.Target) {
			continue
		}
		if pos[e.Source] > pos[e.Target] {
			t.Errorf("%s should come before %s in %v", e.Source, e.Target, order)
		}
	}
	if _, ok := pos["Rigidbody"]; ok {
		t.Error("External types must not appear in the order")
	}
}

func TestCoupling(t *testing.T) {
	g := Build([]*model.Component{
		comp("Hub", "T1", "T2", "T3", "T4", "T5"),
		comp("Lonely"),
		comp("Leaf"),
		comp("User", "Leaf"),
	})

	if got := g.HighCoupling(); !reflect.DeepEqual(got, []string{"Hub"}) {
		t.Errorf("HighCoupling() = %v, want [Hub]", got)
	}
	if got := g.Isolated(); !reflect.DeepEqual(got, []string{"Lonely"}) {
		t.Errorf("Isolated() = %v, want [Lonely]", got)
	}
}

func TestEmptyGraph(t *testing.T) {
	g := Build(nil)

	if g.HasCycle() {
		t.Error("Empty graph has no cycle")
	}
	if len(g.TopologicalOrder()) != 0 {
		t.Error("Expected empty order")
	}
	if len(g.Nodes()) != 0 {
		t.Error("Expected no nodes")
	}
}

func TestVisualization(t *testing.T) {
	a := comp("A", "B")
	a.Namespace = "Game"
	a.AddReference(model.Reference{Type: "B", Kind: model.ReferenceField, Line: 4})

	vis := Build([]*model.Component{a, comp("B", "Rigidbody")}).Visualization()

	if len(vis.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(vis.Nodes))
	}
	if vis.Nodes["A"].Type != "component" || vis.Nodes["A"].Parent != "Game" {
		t.Errorf("Unexpected node A: %+v", vis.Nodes["A"])
	}
	if vis.Nodes["Rigidbody"].Type != "external" {
		t.Errorf("Rigidbody should be external, got %s", vis.Nodes["Rigidbody"].Type)
	}
	if len(vis.Edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(vis.Edges))
	}
	if vis.Edges[0].Type != "FieldReference+TypedAccess" {
		t.Errorf("Edge type = %q", vis.Edges[0].Type)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestMarshalJSON(t *testing.T) {
	a := comp("A", "B", "B", "Rigidbody")
	g := Build([]*model.Component{a, comp("B"), comp("Loop", "Loop")})

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got struct {
		Adjacency        map[string][]string    `json:"adjacency"`
		ReverseAdjacency map[string][]string    `json:"reverseAdjacency"`
		Edges            []model.DependencyEdge `json:"edges"`
		SelfLoops        []string               `json:"selfLoops"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	wantAdj := map[string][]string{
		"A":         {"B", "Rigidbody"},
		"B":         {},
		"Loop":      {"Loop"},
		"Rigidbody": {},
	}
	if !reflect.DeepEqual(got.Adjacency, wantAdj) {
		t.Errorf("adjacency = %v, want %v", got.Adjacency, wantAdj)
	}
	wantRev := map[string][]string{
		"A":         {},
		"B":         {"A"},
		"Loop":      {"Loop"},
		"Rigidbody": {"A"},
	}
	if !reflect.DeepEqual(got.ReverseAdjacency, wantRev) {
		t.Errorf("reverseAdjacency = %v, want %v", got.ReverseAdjacency, wantRev)
	}

	// Duplicate references stay as separate evidence
	if len(got.Edges) != 4 {
		t.Fatalf("edges = %d, want 4", len(got.Edges))
	}
	first := got.Edges[0]
	if first.Source != "A" || first.Target != "B" || first.Kind != model.ReferenceTypedAccess || first.Line != 1 || first.Context == "" {
		t.Errorf("first edge = %+v", first)
	}
	if got.Edges[1].Line != 2 {
		t.Errorf("duplicate edge line = %d, want 2", got.Edges[1].Line)
	}
	if !reflect.DeepEqual(got.SelfLoops, []string{"Loop"}) {
		t.Errorf("selfLoops = %v", got.SelfLoops)
	}

	again, err := json.Marshal(Build([]*model.Component{comp("Loop", "Loop"), comp("B"), a}))
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Errorf("encoding depends on input order:\n%s\n%s", data, again)
	}
}

func TestMarshalJSONEmpty(t *testing.T) {
	data, err := json.Marshal(Build(nil))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"adjacency":{},"reverseAdjacency":{},"edges":[],"selfLoops":[]}`
	if string(data) != want {
		t.Errorf("Marshal(empty) = %s, want %s", data, want)
	}
}
