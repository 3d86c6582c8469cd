package model

import "sort"

// ReferenceKind describes how a component refers to another type
type ReferenceKind string

const (
	ReferenceTypedAccess ReferenceKind = "TypedAccess"         // GetComponent<T>() and its children/parent variants
	ReferenceRequired    ReferenceKind = "RequiredDeclaration" // [RequireComponent(typeof(T))]
	ReferenceField       ReferenceKind = "FieldReference"      // Serialized field typed as another component
)

// Context returns the origin label recorded on the dependency edge
func (k ReferenceKind) Context() string {
	switch k {
	case ReferenceTypedAccess:
		return "Runtime"
	case ReferenceRequired:
		return "Declaration"
	case ReferenceField:
		return "Field"
	}
	return ""
}

// Reference is one occurrence of a type reference inside a component
type Reference struct {
	Type   string        `json:"type"`
	Kind   ReferenceKind `json:"kind"`
	Line   int           `json:"line"`
	Detail string        `json:"detail,omitempty"` // Call or field name that produced the reference
}

// Component is a class deriving by name from the engine's base behaviour type
type Component struct {
	ClassName        string              `json:"className"`
	FilePath         string              `json:"filePath"`
	Namespace        string              `json:"namespace,omitempty"`
	BaseType         string              `json:"baseType"`
	LifecycleMethods []string            `json:"lifecycleMethods"`
	CustomMethods    []string            `json:"customMethods"`
	SerializedFields []string            `json:"serializedFields"` // "name : type"
	Fields           []FieldDeclaration  `json:"fields,omitempty"`
	Methods          []MethodDeclaration `json:"-"`

	// DeclaredDependencies is the sorted, de-duplicated set of referenced type names
	DeclaredDependencies []string    `json:"declaredDependencies"`
	References           []Reference `json:"references"` // Every reference, duplicates kept
	Attributes           []string    `json:"attributes,omitempty"`
	Span                 Span        `json:"span"`
	Complexity           int         `json:"complexity"`
}

// AddReference records a reference and keeps DeclaredDependencies sorted and unique
func (c *Component) AddReference(ref Reference) {
	c.References = append(c.References, ref)

	i := sort.SearchStrings(c.DeclaredDependencies, ref.Type)
	if i < len(c.DeclaredDependencies) && c.DeclaredDependencies[i] == ref.Type {
		return
	}
	c.DeclaredDependencies = append(c.DeclaredDependencies, "")
	copy(c.DeclaredDependencies[i+1:], c.DeclaredDependencies[i:])
	c.DeclaredDependencies[i] = ref.Type
}

// HasLifecycleMethod reports whether the component declares the named callback
func (c *Component) HasLifecycleMethod(name string) bool {
	for _, m := range c.LifecycleMethods {
		if m == name {
			return true
		}
	}
	return false
}

// ComputeComplexity scores the component: callbacks weigh 2, custom methods 1,
// dependencies 3 and serialized fields 1.
func (c *Component) ComputeComplexity() int {
	c.Complexity = len(c.LifecycleMethods)*2 +
		len(c.CustomMethods) +
		len(c.DeclaredDependencies)*3 +
		len(c.SerializedFields)
	return c.Complexity
}

// DependencyEdge is a directed "source references target" relationship
type DependencyEdge struct {
	Source  string        `json:"source"`
	Target  string        `json:"target"`
	Kind    ReferenceKind `json:"kind"`
	Context string        `json:"context"`
	Line    int           `json:"line"`
}

// Phase is the execution phase a lifecycle callback belongs to
type Phase string

const (
	PhaseInitialization  Phase = "Initialization"
	PhaseActivation      Phase = "Activation"
	PhaseFrameUpdate     Phase = "FrameUpdate"
	PhasePhysicsUpdate   Phase = "PhysicsUpdate"
	PhaseLateFrameUpdate Phase = "LateFrameUpdate"
	PhasePhysicsEvent    Phase = "PhysicsEvent"
	PhaseInputEvent      Phase = "InputEvent"
	PhaseRenderingEvent  Phase = "RenderingEvent"
	PhaseDeactivation    Phase = "Deactivation"
	PhaseCleanup         Phase = "Cleanup"
	PhaseCustom          Phase = "Custom"
)

// LifecycleMethod is one callback of a component placed in its execution phase
type LifecycleMethod struct {
	Method       string   `json:"method"`
	Component    string   `json:"component"`
	Phase        Phase    `json:"phase"`
	Order        int      `json:"order"` // Lower runs earlier
	Purpose      string   `json:"purpose"`
	Interactions []string `json:"interactions,omitempty"`
}

// LifecycleFlow is the ordered lifecycle of one component
type LifecycleFlow struct {
	Component    string            `json:"component"`
	Methods      []LifecycleMethod `json:"methods"`
	DataFlow     []string          `json:"dataFlow,omitempty"`
	Interactions []string          `json:"interactions,omitempty"`
}

// PatternKind identifies a design pattern detector
type PatternKind string

const (
	PatternSingleton      PatternKind = "Singleton"
	PatternObjectPool     PatternKind = "ObjectPooling"
	PatternState          PatternKind = "State"
	PatternObserver       PatternKind = "Observer"
	PatternComposition    PatternKind = "ComponentComposition"
	PatternServiceLocator PatternKind = "ServiceLocator"
	PatternFactory        PatternKind = "Factory"
	PatternCommand        PatternKind = "Command"
	PatternMVC            PatternKind = "MVC"
	PatternECS            PatternKind = "EntityComponentSystem"
)

// PatternInstance is one heuristic pattern detection
type PatternInstance struct {
	Kind        PatternKind `json:"kind"`
	Name        string      `json:"name"`
	Components  []string    `json:"components"`
	Evidence    []string    `json:"evidence"`
	Confidence  float64     `json:"confidence"` // In [0, 0.95]
	Description string      `json:"description"`
	Purpose     string      `json:"purpose"`
}
