package architecture

import (
	"fmt"
	"sort"

	"github.com/ritzau/unity-analyzer/pkg/graph"
	"github.com/ritzau/unity-analyzer/pkg/model"
)

// Direction is the role a component plays in the flow of data
type Direction string

const (
	DirectionInput         Direction = "Input"         // Produces data: input handling, players, controllers
	DirectionOutput        Direction = "Output"        // Consumes data: UI, rendering, audio
	DirectionProcessing    Direction = "Processing"    // Transforms data between the two
	DirectionBidirectional Direction = "Bidirectional" // Exchanges data both ways through a cycle
	DirectionInternal      Direction = "Internal"      // Not connected to the flow
)

const (
	maxPriority          = 5
	maxHotspots          = 5
	hotspotThreshold     = 3
	fanOutBottleneck     = 5
	complexityBottleneck = 50
	couplingBottleneck   = 8
)

// FlowNode is one component placed in the data flow
type FlowNode struct {
	Component string    `json:"component"`
	Direction Direction `json:"direction"`
	DataType  string    `json:"dataType"`
	Priority  int       `json:"priority"`  // 1 to 5
	Connected []string  `json:"connected"` // Dependencies and dependents, sorted
}

// DataFlow summarizes how data moves between components
type DataFlow struct {
	Nodes       []FlowNode             `json:"nodes"`
	ByDirection map[Direction][]string `json:"byDirection"`
	Hotspots    []string               `json:"hotspots"`
	Bottlenecks []string               `json:"bottlenecks"`
}

// AnalyzeDataFlow classifies every component. cyclic holds the components
// that take part in a dependency cycle.
func AnalyzeDataFlow(components []*model.Component, g *graph.ComponentGraph, cyclic map[string]bool) DataFlow {
	flow := DataFlow{
		Nodes:       make([]FlowNode, 0, len(components)),
		ByDirection: make(map[Direction][]string),
		Hotspots:    []string{},
		Bottlenecks: []string{},
	}

	for _, c := range components {
		deps := g.Dependencies(c.ClassName)
		dependents := g.Dependents(c.ClassName)

		node := FlowNode{
			Component: c.ClassName,
			Direction: direction(c, deps, dependents, cyclic[c.ClassName]),
			DataType:  dataType(c.ClassName),
			Priority:  priority(c, dependents),
			Connected: union(deps, dependents),
		}
		flow.Nodes = append(flow.Nodes, node)
		flow.ByDirection[node.Direction] = append(flow.ByDirection[node.Direction], c.ClassName)

		flow.Bottlenecks = append(flow.Bottlenecks, bottlenecks(c, deps, dependents)...)
	}

	flow.Hotspots = hotspots(flow.Nodes)
	return flow
}

// direction checks name keywords first, then falls back on graph shape
func direction(c *model.Component, deps, dependents []string, cyclic bool) Direction {
	name := c.ClassName
	switch {
	case inputNames.match(name) || c.HasLifecycleMethod("Update") && len(deps) == 0:
		return DirectionInput
	case outputNames.match(name) || len(dependents) > 0 && len(deps) == 0:
		return DirectionOutput
	case processingNames.match(name):
		return DirectionProcessing
	case cyclic:
		return DirectionBidirectional
	case len(deps) > 0 && len(dependents) > 0:
		return DirectionProcessing
	}
	return DirectionInternal
}

func dataType(name string) string {
	for _, d := range dataTypes {
		if d.names.match(name) {
			return d.label
		}
	}
	return defaultDataType
}

var (
	criticalNames = keywords{"player", "controller"}
	managerNames  = keywords{"manager"}
)

func priority(c *model.Component, dependents []string) int {
	p := 1
	if len(dependents) > 3 {
		p += 2
	}
	if c.Complexity > 30 {
		p++
	}
	switch {
	case criticalNames.match(c.ClassName):
		p += 3
	case managerNames.match(c.ClassName):
		p += 2
	}
	if p > maxPriority {
		p = maxPriority
	}
	return p
}

func bottlenecks(c *model.Component, deps, dependents []string) []string {
	var out []string
	if len(dependents) > fanOutBottleneck {
		out = append(out, fmt.Sprintf("%s (high fan-out: %d dependents)", c.ClassName, len(dependents)))
	}
	if c.Complexity > complexityBottleneck {
		out = append(out, fmt.Sprintf("%s (high complexity: %d)", c.ClassName, c.Complexity))
	}
	if len(deps) > couplingBottleneck {
		out = append(out, fmt.Sprintf("%s (high coupling: %d dependencies)", c.ClassName, len(deps)))
	}
	return out
}

// hotspots ranks nodes by connections plus priority and keeps at most five
// scoring above the threshold. Ties go to the lower name.
func hotspots(nodes []FlowNode) []string {
	type scored struct {
		name  string
		score int
	}
	ranked := make([]scored, 0, len(nodes))
	for _, n := range nodes {
		ranked = append(ranked, scored{n.Component, len(n.Connected) + n.Priority})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	out := []string{}
	for i := 0; i < len(ranked) && i < maxHotspots; i++ {
		if ranked[i].score > hotspotThreshold {
			out = append(out, ranked[i].name)
		}
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}
