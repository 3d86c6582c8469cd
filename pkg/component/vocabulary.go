package component

import "strings"

// lifecycleMethods is the closed set of engine callbacks recognized by name
var lifecycleMethods = map[string]bool{
	"Awake":       true,
	"Start":       true,
	"Update":      true,
	"FixedUpdate": true,
	"LateUpdate":  true,
	"OnEnable":    true,
	"OnDisable":   true,
	"OnDestroy":   true,

	"OnTriggerEnter":     true,
	"OnTriggerExit":      true,
	"OnTriggerStay":      true,
	"OnCollisionEnter":   true,
	"OnCollisionExit":    true,
	"OnCollisionStay":    true,
	"OnTriggerEnter2D":   true,
	"OnTriggerExit2D":    true,
	"OnTriggerStay2D":    true,
	"OnCollisionEnter2D": true,
	"OnCollisionExit2D":  true,
	"OnCollisionStay2D":  true,

	"OnPreRender":          true,
	"OnPostRender":         true,
	"OnRenderObject":       true,
	"OnWillRenderObject":   true,
	"OnBecameVisible":      true,
	"OnBecameInvisible":    true,
	"OnDrawGizmos":         true,
	"OnDrawGizmosSelected": true,

	"OnMouseDown":       true,
	"OnMouseUp":         true,
	"OnMouseEnter":      true,
	"OnMouseExit":       true,
	"OnMouseOver":       true,
	"OnMouseDrag":       true,
	"OnMouseUpAsButton": true,
}

var purposes = map[string]string{
	"Awake":       "Initialize component references and setup",
	"Start":       "Initialize after all objects are created",
	"Update":      "Handle per-frame logic and input",
	"FixedUpdate": "Handle physics and fixed-timestep logic",
	"LateUpdate":  "Handle logic after all Update calls",
	"OnEnable":    "Handle component activation",
	"OnDisable":   "Handle component deactivation",
	"OnDestroy":   "Cleanup resources and references",
}

// IsLifecycleMethod reports whether name is an engine callback
func IsLifecycleMethod(name string) bool {
	return lifecycleMethods[name]
}

// LifecycleMethodNames returns the vocabulary in no particular order
func LifecycleMethodNames() []string {
	names := make([]string, 0, len(lifecycleMethods))
	for name := range lifecycleMethods {
		names = append(names, name)
	}
	return names
}

// Purpose describes what a callback is typically used for
func Purpose(method string) string {
	if p, ok := purposes[method]; ok {
		return p
	}
	switch {
	case strings.HasPrefix(method, "OnTrigger"):
		return "Handle trigger collision events"
	case strings.HasPrefix(method, "OnCollision"):
		return "Handle physics collision events"
	case strings.HasPrefix(method, "OnMouse"):
		return "Handle mouse input events"
	}
	return "Unity callback method"
}
