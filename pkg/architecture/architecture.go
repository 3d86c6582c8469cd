// Package architecture derives project-level structure from the dependency
// graph and the pattern detections: clusters, data flow roles, system
// groups with their cohesion and coupling, and quality scores.
package architecture

import (
	"strings"

	"github.com/ritzau/unity-analyzer/pkg/cycles"
	"github.com/ritzau/unity-analyzer/pkg/graph"
	"github.com/ritzau/unity-analyzer/pkg/model"
)

// Report is the architecture view of one analysis run
type Report struct {
	ComplexityLevel string         `json:"complexityLevel"`
	Style           Style          `json:"style"`
	Clusters        []Cluster      `json:"clusters"`
	Isolated        []string       `json:"isolated"`
	HighCoupling    []string       `json:"highCoupling"`
	DataFlow        DataFlow       `json:"dataFlow"`
	Systems         []System       `json:"systems"`
	Patterns        PatternSummary `json:"patterns"`
	Quality         Quality        `json:"quality"`
	Health          Health         `json:"health"`
	Suggestions     []string       `json:"suggestions"`
}

// Analyze builds the report from the graph's components. Per-component lists
// follow the order of components.
func Analyze(components []*model.Component, g *graph.ComponentGraph, found []cycles.ComponentCycle, instances []model.PatternInstance) *Report {
	cyclic := make(map[string]bool)
	for _, c := range found {
		for _, name := range c.Components {
			cyclic[name] = true
		}
	}
	hasCycle := len(found) > 0

	r := &Report{
		ComplexityLevel: ComplexityLevel(components),
		Clusters:        Clusters(g),
		Isolated:        nonNil(g.Isolated()),
		HighCoupling:    nonNil(g.HighCoupling()),
		DataFlow:        AnalyzeDataFlow(components, g, cyclic),
		Systems:         Systems(components),
		Patterns:        summarizePatterns(instances),
	}
	r.Quality = scoreQuality(components, g, instances)
	r.Style = detectStyle(components, r, hasCycle)
	r.Health = assessHealth(r, components, hasCycle, len(instances))
	r.Suggestions = suggestions(r, hasCycle)
	return r
}

// Architecture styles a project can show
const (
	StyleComponentBased = "Component-Based Entity"
	StyleMVC            = "Model-View-Controller"
	StyleECS            = "Entity-Component-System"
	StyleLayered        = "Layered Architecture"
	StyleEventDriven    = "Event-Driven Architecture"
	StyleServiceBased   = "Service-Oriented Architecture"
)

// styleOrder breaks score ties: the earlier style wins
var styleOrder = []string{StyleComponentBased, StyleMVC, StyleECS, StyleLayered, StyleEventDriven, StyleServiceBased}

// Style is the overall architecture the project most resembles
type Style struct {
	Primary    string   `json:"primary"`
	Secondary  []string `json:"secondary"`
	Confidence float64  `json:"confidence"` // In [0, 1]
	Evidence   []string `json:"evidence"`
}

func detectStyle(components []*model.Component, r *Report, hasCycle bool) Style {
	freq := r.Patterns.Frequency
	has := func(k model.PatternKind) bool { return freq[k] > 0 }

	scores := map[string]float64{StyleComponentBased: 0.4}
	if has(model.PatternMVC) {
		scores[StyleMVC] = 0.8
	}
	if has(model.PatternECS) {
		scores[StyleECS] = 0.9
	}
	if has(model.PatternObserver) {
		scores[StyleEventDriven] = 0.7
	}
	if has(model.PatternServiceLocator) {
		scores[StyleServiceBased] = 0.6
	}

	managers, controllers := 0, 0
	for _, c := range components {
		lower := strings.ToLower(c.ClassName)
		if strings.Contains(lower, "manager") {
			managers++
		}
		if strings.Contains(lower, "controller") {
			controllers++
		}
	}
	if managers >= 3 {
		scores[StyleServiceBased] += 0.3
	}
	if controllers >= 2 {
		scores[StyleMVC] += 0.2
	}
	if len(r.Systems) >= 4 {
		scores[StyleLayered] = 0.5
	}

	s := Style{Primary: StyleComponentBased, Secondary: []string{}}
	best := 0.0
	for _, style := range styleOrder {
		if scores[style] > best {
			best = scores[style]
			s.Primary = style
		}
	}

	if s.Primary != StyleComponentBased {
		s.Secondary = append(s.Secondary, StyleComponentBased)
	}
	if has(model.PatternObserver) && s.Primary != StyleEventDriven {
		s.Secondary = append(s.Secondary, StyleEventDriven)
	}
	if len(r.Systems) >= 3 && s.Primary != StyleLayered {
		s.Secondary = append(s.Secondary, StyleLayered)
	}

	s.Evidence = styleEvidence(s.Primary, r, hasCycle)
	confidence := 0.5 + 0.1*float64(len(s.Evidence)) + 0.2*r.Patterns.Consistency
	if s.Primary == StyleComponentBased {
		confidence += 0.3
	}
	s.Confidence = round(clamp(confidence, 0, 1))
	return s
}

func styleEvidence(style string, r *Report, hasCycle bool) []string {
	freq := r.Patterns.Frequency
	var ev []string
	switch style {
	case StyleComponentBased:
		ev = append(ev, "Unity MonoBehaviour component system", "GameObject-based entity structure")
		if len(freq) > 0 {
			ev = append(ev, "Component composition patterns detected")
		}
	case StyleMVC:
		if freq[model.PatternMVC] > 0 {
			ev = append(ev, "MVC pattern implementation found")
		}
	case StyleECS:
		ev = append(ev, "ECS pattern implementation found")
	case StyleEventDriven:
		ev = append(ev, "Observer pattern for event handling")
	case StyleServiceBased:
		if freq[model.PatternServiceLocator] > 0 {
			ev = append(ev, "Service locator pattern detected")
		}
	case StyleLayered:
		ev = append(ev, "Multiple distinct system layers")
	}
	if hasCycle {
		ev = append(ev, "Contains circular dependencies")
	} else {
		ev = append(ev, "Clean dependency hierarchy")
	}
	return ev
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
