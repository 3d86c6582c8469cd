package architecture

import (
	"fmt"
	"math"
	"sort"

	"github.com/ritzau/unity-analyzer/pkg/graph"
	"github.com/ritzau/unity-analyzer/pkg/model"
	"github.com/ritzau/unity-analyzer/pkg/patterns"
)

// Quality holds the project scores, each in [0, 100]
type Quality struct {
	Maintainability float64 `json:"maintainability"`
	Testability     float64 `json:"testability"`
	Performance     float64 `json:"performance"`
	Architecture    float64 `json:"architecture"`
}

// Health rates the design against the SOLID principles the graph can show
type Health struct {
	SeparationOfConcerns float64  `json:"separationOfConcerns"`
	DependencyInversion  float64  `json:"dependencyInversion"`
	SingleResponsibility float64  `json:"singleResponsibility"`
	OpenClosed           float64  `json:"openClosed"`
	Overall              float64  `json:"overall"`
	Violations           []string `json:"violations"`
	Strengths            []string `json:"strengths"`
}

// PatternSummary condenses the pattern detections
type PatternSummary struct {
	Frequency   map[model.PatternKind]int `json:"frequency"`
	Dominant    []model.PatternKind       `json:"dominant"`    // Most frequent kinds, sorted
	Consistency float64                   `json:"consistency"` // Mean confidence
}

func summarizePatterns(instances []model.PatternInstance) PatternSummary {
	s := PatternSummary{Frequency: patterns.Frequency(instances), Dominant: []model.PatternKind{}}

	most := 0
	for _, n := range s.Frequency {
		if n > most {
			most = n
		}
	}
	for kind, n := range s.Frequency {
		if n == most && most > 0 {
			s.Dominant = append(s.Dominant, kind)
		}
	}
	sort.Slice(s.Dominant, func(i, j int) bool { return s.Dominant[i] < s.Dominant[j] })

	if len(instances) > 0 {
		total := 0.0
		for _, p := range instances {
			total += p.Confidence
		}
		s.Consistency = round(total / float64(len(instances)))
	}
	return s
}

func scoreQuality(components []*model.Component, g *graph.ComponentGraph, instances []model.PatternInstance) Quality {
	maintainability := 100.0
	updates := 0
	for _, c := range components {
		if len(c.LifecycleMethods) > 10 {
			maintainability -= 5
		}
		if len(c.DeclaredDependencies) > 5 {
			maintainability -= 10
		}
		if len(c.CustomMethods) > 20 {
			maintainability -= 5
		}
		if c.HasLifecycleMethod("Update") {
			updates++
		}
	}

	testability := 100.0
	for _, name := range g.Components() {
		if len(g.Dependencies(name)) > 3 {
			testability -= 10
		}
	}

	performance := 100.0
	if updates > 10 {
		performance -= float64(updates-10) * 5
	}

	arch := 50.0
	for _, p := range instances {
		arch += p.Confidence * 10
	}

	return Quality{
		Maintainability: percent(maintainability),
		Testability:     percent(testability),
		Performance:     percent(performance),
		Architecture:    percent(arch),
	}
}

func assessHealth(r *Report, components []*model.Component, hasCycle bool, patternCount int) Health {
	h := Health{Violations: []string{}, Strengths: []string{}}

	soc, srp := 100.0, 100.0
	for _, c := range components {
		methods := len(c.LifecycleMethods) + len(c.CustomMethods)
		if c.Complexity > complexityBottleneck {
			soc -= 10
		}
		if methods > 15 {
			srp -= 5
		}
		if methods > 20 {
			h.Violations = append(h.Violations, fmt.Sprintf("Single Responsibility Principle: %s has too many methods", c.ClassName))
		}
		if len(c.DeclaredDependencies) > couplingBottleneck {
			h.Violations = append(h.Violations, fmt.Sprintf("Dependency Inversion Principle: %s has too many dependencies", c.ClassName))
		}
	}

	di := 80.0
	if hasCycle {
		di -= 30
		h.Violations = append([]string{"Dependency Inversion Principle: Circular dependencies detected"}, h.Violations...)
	}
	di -= 5 * float64(len(r.HighCoupling))

	h.SeparationOfConcerns = percent(soc)
	h.DependencyInversion = percent(di)
	h.SingleResponsibility = percent(srp)
	h.OpenClosed = percent(70 + 5*float64(patternCount))
	h.Overall = round((h.SeparationOfConcerns + h.DependencyInversion + h.SingleResponsibility + h.OpenClosed) / 4)

	if !hasCycle {
		h.Strengths = append(h.Strengths, "Clean dependency hierarchy without cycles")
	}
	cores := 0
	for _, s := range r.Systems {
		if s.Core {
			cores++
		}
	}
	if cores >= 3 {
		h.Strengths = append(h.Strengths, "Well-organized system architecture")
	}
	if r.Patterns.Consistency > 0.7 {
		h.Strengths = append(h.Strengths, "Consistent design pattern usage")
	}
	if r.Quality.Maintainability > 80 {
		h.Strengths = append(h.Strengths, "High maintainability score")
	}
	if len(r.Isolated) < 2 {
		h.Strengths = append(h.Strengths, "Good component integration")
	}
	return h
}

func suggestions(r *Report, hasCycle bool) []string {
	out := []string{}
	if r.Quality.Maintainability < 70 {
		out = append(out, "Consider reducing component complexity by breaking down large classes")
	}
	if r.Quality.Testability < 70 {
		out = append(out, "Reduce coupling between components for better testability")
	}
	if r.Quality.Performance < 70 {
		out = append(out, "Optimize Update methods and consider object pooling")
	}
	if hasCycle {
		out = append(out, "Resolve circular dependencies to improve architecture")
	}
	if len(r.HighCoupling) > 0 {
		out = append(out, "Refactor high-coupling components using dependency injection")
	}
	return out
}

// ComplexityLevel buckets the mean component complexity
func ComplexityLevel(components []*model.Component) string {
	if len(components) == 0 {
		return "Simple"
	}
	total := 0
	for _, c := range components {
		total += c.Complexity
	}
	switch avg := float64(total) / float64(len(components)); {
	case avg < 10:
		return "Simple"
	case avg < 25:
		return "Moderate"
	case avg < 50:
		return "Complex"
	}
	return "Very Complex"
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func percent(v float64) float64 {
	return round(clamp(v, 0, 100))
}

// round keeps two decimals so scores encode the same on every run
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
