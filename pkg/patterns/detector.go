// Package patterns tags components with heuristic design pattern detections.
package patterns

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ritzau/unity-analyzer/pkg/model"
)

const (
	baseConfidence    = 0.5
	evidenceBonus     = 0.15
	maxConfidence     = 0.95
	compositionMinDep = 3
)

// Confidence scores a detection from its evidence count, clamped to [0, 0.95]
func Confidence(evidence []string) float64 {
	score := baseConfidence + evidenceBonus*float64(len(evidence))
	score = math.Round(score*100) / 100
	return math.Max(0, math.Min(maxConfidence, score))
}

// Detector inspects all components and returns its detections
type Detector func(components []*model.Component) []model.PatternInstance

// kindInfo is the fixed text attached to every instance of a kind
type kindInfo struct {
	name        string
	description string
	purpose     string
	evidence    []string
}

var kinds = map[model.PatternKind]kindInfo{
	model.PatternSingleton: {
		"Singleton MonoBehaviour",
		"MonoBehaviour implementing singleton pattern for global access",
		"Ensure single instance and provide global access point",
		[]string{"Static instance field", "Instance access method", "DontDestroyOnLoad usage"},
	},
	model.PatternObjectPool: {
		"Object Pooling",
		"Reuses objects to avoid frequent allocation/deallocation",
		"Optimize performance by reusing game objects",
		[]string{"Pool collection field", "Get/Return methods", "SetActive usage"},
	},
	model.PatternState: {
		"State Pattern",
		"Implements state-based behavior with state transitions",
		"Manage complex object behavior through states",
		[]string{"Multiple state classes", "State transition methods", "Current state field"},
	},
	model.PatternObserver: {
		"Observer Pattern",
		"Implements event-driven communication between objects",
		"Decouple objects through event notifications",
		[]string{"Event declarations", "Subscribe/Unsubscribe methods", "Notification methods"},
	},
	model.PatternComposition: {
		"Component Composition",
		"Combines multiple components to create complex behavior",
		"Build complex functionality through component composition",
		[]string{"Multiple component dependencies", "GetComponent calls", "RequireComponent attributes"},
	},
	model.PatternServiceLocator: {
		"Service Locator",
		"Provides centralized access to services",
		"Manage and provide access to game services",
		[]string{"Service/Manager classes", "Service registration", "Service lookup methods"},
	},
	model.PatternFactory: {
		"Factory Pattern",
		"Creates objects without specifying exact classes",
		"Encapsulate object creation logic",
		[]string{"Factory/Creator classes", "Create methods", "Instantiate calls"},
	},
	model.PatternCommand: {
		"Command Pattern",
		"Encapsulates requests as objects",
		"Support undo/redo operations and request queuing",
		[]string{"Command/Action classes", "Execute methods", "Undo/Redo support"},
	},
	model.PatternMVC: {
		"MVC Pattern",
		"Separates application logic into Model, View, and Controller",
		"Improve code organization and maintainability",
		[]string{"Controller classes", "View classes", "Model classes"},
	},
	model.PatternECS: {
		"Entity Component System",
		"Implements data-oriented design with entities, components, and systems",
		"Optimize performance and improve code modularity",
		[]string{"Entity classes", "Component data", "System logic"},
	},
}

// Kinds lists the pattern kinds in detection order
var Kinds = []model.PatternKind{
	model.PatternSingleton,
	model.PatternObjectPool,
	model.PatternState,
	model.PatternObserver,
	model.PatternComposition,
	model.PatternServiceLocator,
	model.PatternFactory,
	model.PatternCommand,
	model.PatternMVC,
	model.PatternECS,
}

// Name returns the display name of a kind
func Name(kind model.PatternKind) string {
	if k, ok := kinds[kind]; ok {
		return k.name
	}
	return "Unknown Pattern"
}

// Description returns the fixed description of a kind
func Description(kind model.PatternKind) string {
	if k, ok := kinds[kind]; ok {
		return k.description
	}
	return "Unknown pattern"
}

func newInstance(kind model.PatternKind, components []string) model.PatternInstance {
	k := kinds[kind]
	evidence := append([]string(nil), k.evidence...)
	return model.PatternInstance{
		Kind:        kind,
		Name:        k.name,
		Components:  components,
		Evidence:    evidence,
		Confidence:  Confidence(evidence),
		Description: k.description,
		Purpose:     k.purpose,
	}
}

// perComponent builds a detector yielding one instance per matching component
func perComponent(kind model.PatternKind, match func(*model.Component) bool) Detector {
	return func(components []*model.Component) []model.PatternInstance {
		var out []model.PatternInstance
		for _, c := range components {
			if match(c) {
				out = append(out, newInstance(kind, []string{c.ClassName}))
			}
		}
		return out
	}
}

// byName builds a detector yielding one instance covering every component
// whose name fully matches one of the expressions, when at least minMatches match
func byName(kind model.PatternKind, minMatches int, exprs ...string) Detector {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		patterns[i] = regexp.MustCompile("^(?:" + e + ")$")
	}
	return func(components []*model.Component) []model.PatternInstance {
		var names []string
		// Each expression contributes its matches in turn, so a name may appear twice
		for _, p := range patterns {
			for _, c := range components {
				if p.MatchString(c.ClassName) {
					names = append(names, c.ClassName)
				}
			}
		}
		if len(names) < minMatches || len(names) == 0 {
			return nil
		}
		return []model.PatternInstance{newInstance(kind, names)}
	}
}

func isSingleton(c *model.Component) bool {
	for _, f := range c.Fields {
		if f.IsStatic && strings.Contains(strings.ToLower(f.Name), "instance") {
			return true
		}
	}
	for _, m := range c.CustomMethods {
		if m == "Instance" || m == "GetInstance" {
			return true
		}
	}
	return false
}

func isPool(c *model.Component) bool {
	return anyContains(c.SerializedFields, "Pool", "Queue", "List") &&
		anyContains(c.CustomMethods, "Get", "Return", "Pool")
}

func isComposition(c *model.Component) bool {
	return len(c.DeclaredDependencies) >= compositionMinDep
}

func detectState(components []*model.Component) []model.PatternInstance {
	var names []string
	for _, c := range components {
		if strings.Contains(c.ClassName, "State") {
			names = append(names, c.ClassName)
		}
	}
	if len(names) < 2 {
		return nil
	}
	return []model.PatternInstance{newInstance(model.PatternState, names)}
}

// detectObserver reports the components that both raise and listen for events
func detectObserver(components []*model.Component) []model.PatternInstance {
	var names []string
	for _, c := range components {
		if anyContains(c.CustomMethods, "Event", "Notify") && anyContains(c.CustomMethods, "Subscribe", "Listen") {
			names = append(names, c.ClassName)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return []model.PatternInstance{newInstance(model.PatternObserver, names)}
}

func anyContains(list []string, subs ...string) bool {
	for _, s := range list {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
	}
	return false
}

// Detectors returns the battery in detection order
func Detectors() []Detector {
	return []Detector{
		perComponent(model.PatternSingleton, isSingleton),
		perComponent(model.PatternObjectPool, isPool),
		detectState,
		detectObserver,
		perComponent(model.PatternComposition, isComposition),
		byName(model.PatternServiceLocator, 2, `.*Service.*|.*Manager.*`),
		byName(model.PatternFactory, 1, `.*Factory.*|.*Creator.*|.*Builder.*`),
		byName(model.PatternCommand, 1, `.*Command.*|.*Action.*`),
		byName(model.PatternMVC, 3, `.*Controller.*`, `.*View.*`, `.*Model.*`),
		byName(model.PatternECS, 3, `.*Entity.*|.*Component.*|.*System.*`),
	}
}

// Detect runs every detector over the components. Components are taken in
// name order so the result does not depend on input order.
func Detect(components []*model.Component) []model.PatternInstance {
	sorted := append([]*model.Component(nil), components...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ClassName < sorted[j].ClassName })

	out := make([]model.PatternInstance, 0)
	for _, d := range Detectors() {
		out = append(out, d(sorted)...)
	}
	return out
}

// Frequency counts instances per kind
func Frequency(instances []model.PatternInstance) map[model.PatternKind]int {
	freq := make(map[model.PatternKind]int)
	for _, p := range instances {
		freq[p.Kind]++
	}
	return freq
}

// ByKind returns the instances of one kind
func ByKind(instances []model.PatternInstance, kind model.PatternKind) []model.PatternInstance {
	var out []model.PatternInstance
	for _, p := range instances {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// Summary renders the detections as plain text
func Summary(instances []model.PatternInstance) string {
	var b strings.Builder
	b.WriteString("Unity Design Patterns Detected:\n\n")

	freq := Frequency(instances)
	for _, kind := range Kinds {
		if n := freq[kind]; n > 0 {
			fmt.Fprintf(&b, "%s: %d instances\n", Name(kind), n)
		}
	}

	b.WriteString("\nDetailed Analysis:\n")
	for _, p := range instances {
		fmt.Fprintf(&b, "\n%s (Confidence: %d%%)\n", p.Name, int(math.Round(p.Confidence*100)))
		fmt.Fprintf(&b, "  Components: %s\n", strings.Join(p.Components, ", "))
		fmt.Fprintf(&b, "  Purpose: %s\n", p.Purpose)
	}

	return b.String()
}
