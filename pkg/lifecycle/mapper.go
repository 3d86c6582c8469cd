// Package lifecycle places component callbacks in the engine's execution phases.
package lifecycle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ritzau/unity-analyzer/pkg/component"
	"github.com/ritzau/unity-analyzer/pkg/model"
)

// UnknownOrder is the execution order of any method without a fixed slot
const UnknownOrder = 1000

var phases = map[string]model.Phase{
	"Awake":       model.PhaseInitialization,
	"Start":       model.PhaseInitialization,
	"OnEnable":    model.PhaseActivation,
	"Update":      model.PhaseFrameUpdate,
	"FixedUpdate": model.PhasePhysicsUpdate,
	"LateUpdate":  model.PhaseLateFrameUpdate,

	"OnTriggerEnter":     model.PhasePhysicsEvent,
	"OnTriggerExit":      model.PhasePhysicsEvent,
	"OnTriggerStay":      model.PhasePhysicsEvent,
	"OnCollisionEnter":   model.PhasePhysicsEvent,
	"OnCollisionExit":    model.PhasePhysicsEvent,
	"OnCollisionStay":    model.PhasePhysicsEvent,
	"OnTriggerEnter2D":   model.PhasePhysicsEvent,
	"OnTriggerExit2D":    model.PhasePhysicsEvent,
	"OnTriggerStay2D":    model.PhasePhysicsEvent,
	"OnCollisionEnter2D": model.PhasePhysicsEvent,
	"OnCollisionExit2D":  model.PhasePhysicsEvent,
	"OnCollisionStay2D":  model.PhasePhysicsEvent,

	"OnMouseDown":       model.PhaseInputEvent,
	"OnMouseUp":         model.PhaseInputEvent,
	"OnMouseEnter":      model.PhaseInputEvent,
	"OnMouseExit":       model.PhaseInputEvent,
	"OnMouseOver":       model.PhaseInputEvent,
	"OnMouseDrag":       model.PhaseInputEvent,
	"OnMouseUpAsButton": model.PhaseInputEvent,

	"OnPreRender":          model.PhaseRenderingEvent,
	"OnPostRender":         model.PhaseRenderingEvent,
	"OnRenderObject":       model.PhaseRenderingEvent,
	"OnWillRenderObject":   model.PhaseRenderingEvent,
	"OnBecameVisible":      model.PhaseRenderingEvent,
	"OnBecameInvisible":    model.PhaseRenderingEvent,
	"OnDrawGizmos":         model.PhaseRenderingEvent,
	"OnDrawGizmosSelected": model.PhaseRenderingEvent,

	"OnDisable": model.PhaseDeactivation,
	"OnDestroy": model.PhaseCleanup,
}

// 2D physics callbacks have a phase but no slot and sort with unknown methods
var orders = map[string]int{
	"Awake":    1,
	"OnEnable": 2,
	"Start":    3,

	"Update":      100,
	"FixedUpdate": 101,
	"LateUpdate":  102,

	"OnTriggerEnter":   200,
	"OnTriggerStay":    201,
	"OnTriggerExit":    202,
	"OnCollisionEnter": 203,
	"OnCollisionStay":  204,
	"OnCollisionExit":  205,

	"OnMouseDown":       300,
	"OnMouseUp":         301,
	"OnMouseEnter":      302,
	"OnMouseExit":       303,
	"OnMouseOver":       304,
	"OnMouseDrag":       305,
	"OnMouseUpAsButton": 306,

	"OnPreRender":          400,
	"OnWillRenderObject":   401,
	"OnRenderObject":       402,
	"OnPostRender":         403,
	"OnBecameVisible":      404,
	"OnBecameInvisible":    405,
	"OnDrawGizmos":         406,
	"OnDrawGizmosSelected": 407,

	"OnDisable": 500,
	"OnDestroy": 501,
}

// Phases lists every phase in execution order
var Phases = []model.Phase{
	model.PhaseInitialization,
	model.PhaseActivation,
	model.PhaseFrameUpdate,
	model.PhasePhysicsUpdate,
	model.PhaseLateFrameUpdate,
	model.PhasePhysicsEvent,
	model.PhaseInputEvent,
	model.PhaseRenderingEvent,
	model.PhaseDeactivation,
	model.PhaseCleanup,
	model.PhaseCustom,
}

var methodInteractions = map[string][]string{
	"Awake":       {"Initializes component references", "Sets up initial state"},
	"Start":       {"Accesses other initialized components", "Starts component behaviors"},
	"Update":      {"Processes input", "Updates game state"},
	"FixedUpdate": {"Applies physics forces", "Updates rigidbody properties"},
}

// PhaseOf returns the phase of a method; unknown names are Custom
func PhaseOf(method string) model.Phase {
	if p, ok := phases[method]; ok {
		return p
	}
	return model.PhaseCustom
}

// OrderOf returns the execution order of a method; unknown names get UnknownOrder
func OrderOf(method string) int {
	if o, ok := orders[method]; ok {
		return o
	}
	return UnknownOrder
}

// PhaseDescription returns the human readable phase name
func PhaseDescription(phase model.Phase) string {
	switch phase {
	case model.PhaseInitialization:
		return "Initialization"
	case model.PhaseActivation:
		return "Activation"
	case model.PhaseFrameUpdate:
		return "Frame Update"
	case model.PhasePhysicsUpdate:
		return "Physics Update"
	case model.PhaseLateFrameUpdate:
		return "Late Frame Update"
	case model.PhasePhysicsEvent:
		return "Physics Events"
	case model.PhaseInputEvent:
		return "Input Events"
	case model.PhaseRenderingEvent:
		return "Rendering Events"
	case model.PhaseDeactivation:
		return "Deactivation"
	case model.PhaseCleanup:
		return "Cleanup"
	case model.PhaseCustom:
		return "Custom"
	}
	return "Unknown"
}

// Map builds the lifecycle flow of one component. Methods are sorted by
// execution order, ties broken by name.
func Map(c *model.Component) model.LifecycleFlow {
	flow := model.LifecycleFlow{
		Component:    c.ClassName,
		Methods:      make([]model.LifecycleMethod, 0, len(c.LifecycleMethods)),
		DataFlow:     dataFlow(c.LifecycleMethods),
		Interactions: dependencyInteractions(c),
	}

	for _, name := range c.LifecycleMethods {
		flow.Methods = append(flow.Methods, model.LifecycleMethod{
			Method:       name,
			Component:    c.ClassName,
			Phase:        PhaseOf(name),
			Order:        OrderOf(name),
			Purpose:      component.Purpose(name),
			Interactions: append(dependencyInteractions(c), methodInteractions[name]...),
		})
	}

	sort.SliceStable(flow.Methods, func(i, j int) bool {
		a, b := flow.Methods[i], flow.Methods[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Method < b.Method
	})

	return flow
}

// MapAll maps every component, keeping the input order
func MapAll(components []*model.Component) []model.LifecycleFlow {
	flows := make([]model.LifecycleFlow, 0, len(components))
	for _, c := range components {
		flows = append(flows, Map(c))
	}
	return flows
}

func dependencyInteractions(c *model.Component) []string {
	out := make([]string, 0, len(c.DeclaredDependencies))
	for _, dep := range c.DeclaredDependencies {
		out = append(out, "Interacts with "+dep)
	}
	return out
}

func dataFlow(methods []string) []string {
	var flow []string
	var input, physics, rendering bool

	for _, m := range methods {
		switch {
		case m == "Update":
			input = true
			flow = append(flow, "Input Processing")
		case m == "FixedUpdate":
			physics = true
			flow = append(flow, "Physics Update")
		case strings.Contains(m, "OnRender") || strings.Contains(m, "OnDraw"):
			rendering = true
			flow = append(flow, "Rendering")
		}
	}

	if input && physics {
		flow = append(flow, "Input → Physics")
	}
	if physics && rendering {
		flow = append(flow, "Physics → Rendering")
	}
	return flow
}

// ExecutionOrder returns "Component::Method" for every callback across all
// flows, sorted by execution order, then component, then method
func ExecutionOrder(flows []model.LifecycleFlow) []string {
	var all []model.LifecycleMethod
	for _, f := range flows {
		all = append(all, f.Methods...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Component != b.Component {
			return a.Component < b.Component
		}
		return a.Method < b.Method
	})

	out := make([]string, 0, len(all))
	for _, m := range all {
		out = append(out, m.Component+"::"+m.Method)
	}
	return out
}

// MethodsInPhase returns "Component::Method" for the callbacks in phase, sorted
func MethodsInPhase(flows []model.LifecycleFlow, phase model.Phase) []string {
	var out []string
	for _, f := range flows {
		for _, m := range f.Methods {
			if m.Phase == phase {
				out = append(out, f.Component+"::"+m.Method)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Summary renders a plain text overview of the flows
func Summary(flows []model.LifecycleFlow) string {
	var b strings.Builder
	b.WriteString("Unity Lifecycle Analysis Summary:\n\n")

	for _, f := range flows {
		fmt.Fprintf(&b, "Component: %s\n", f.Component)
		fmt.Fprintf(&b, "Lifecycle Methods: %d\n", len(f.Methods))

		for _, phase := range Phases {
			var names []string
			for _, m := range f.Methods {
				if m.Phase == phase {
					names = append(names, m.Method)
				}
			}
			if len(names) > 0 {
				fmt.Fprintf(&b, "  %s: %s\n", PhaseDescription(phase), strings.Join(names, ", "))
			}
		}

		if len(f.DataFlow) > 0 {
			fmt.Fprintf(&b, "Data Flow: %s\n", strings.Join(f.DataFlow, " → "))
		}
		b.WriteString("\n")
	}

	return b.String()
}
