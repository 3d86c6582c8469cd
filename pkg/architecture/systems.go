package architecture

import (
	"sort"

	"github.com/ritzau/unity-analyzer/pkg/model"
)

// coreSystemSize is the member count from which a system is a core system
const coreSystemSize = 3

// System groups components by what their names say they are for
type System struct {
	Name           string   `json:"name"`
	Components     []string `json:"components"` // Sorted
	Core           bool     `json:"core"`
	Complexity     int      `json:"complexity"` // Sum over members
	Responsibility string   `json:"responsibility"`
	Cohesion       float64  `json:"cohesion"` // In [0, 1]
	Coupling       float64  `json:"coupling"` // Share of member dependencies outside the system
	WellDesigned   bool     `json:"wellDesigned"`
}

const (
	baseCohesion        = 0.8
	sharedDepBonus      = 0.1
	internalRefBonus    = 0.1
	wellDesignedMinCoh  = 0.7
	wellDesignedMaxCoup = 0.5
)

// Systems groups components and scores each group. Groups are sorted by
// cohesion, most cohesive first, then by name.
func Systems(components []*model.Component) []System {
	byName := make(map[string]*System)
	for _, c := range components {
		name, responsibility := systemOf(c.ClassName)
		s, ok := byName[name]
		if !ok {
			s = &System{Name: name, Components: []string{}, Responsibility: responsibility}
			byName[name] = s
		}
		s.Components = append(s.Components, c.ClassName)
		s.Complexity += c.Complexity
	}

	lookup := make(map[string]*model.Component, len(components))
	for _, c := range components {
		lookup[c.ClassName] = c
	}

	out := make([]System, 0, len(byName))
	for _, s := range byName {
		sort.Strings(s.Components)
		s.Core = len(s.Components) >= coreSystemSize
		s.Cohesion = round(cohesion(s.Components, lookup))
		s.Coupling = round(coupling(s.Components, lookup))
		s.WellDesigned = s.Cohesion > wellDesignedMinCoh && s.Coupling < wellDesignedMaxCoup
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Cohesion != out[j].Cohesion {
			return out[i].Cohesion > out[j].Cohesion
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// cohesion starts from a base score and rises when members share a
// dependency or reference each other
func cohesion(members []string, lookup map[string]*model.Component) float64 {
	if len(members) == 0 {
		return 0
	}
	in := make(map[string]bool, len(members))
	for _, m := range members {
		in[m] = true
	}

	score := baseCohesion
	seen := make(map[string]int)
	shared, internal := false, false
	for _, m := range members {
		for _, dep := range lookup[m].DeclaredDependencies {
			seen[dep]++
			if seen[dep] > 1 {
				shared = true
			}
			if in[dep] && dep != m {
				internal = true
			}
		}
	}
	if shared {
		score += sharedDepBonus
	}
	if internal {
		score += internalRefBonus
	}
	return clamp(score, 0, 1)
}

// coupling is the fraction of member dependencies that leave the system
func coupling(members []string, lookup map[string]*model.Component) float64 {
	in := make(map[string]bool, len(members))
	for _, m := range members {
		in[m] = true
	}

	total, external := 0, 0
	for _, m := range members {
		for _, dep := range lookup[m].DeclaredDependencies {
			total++
			if !in[dep] {
				external++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(external) / float64(total)
}
