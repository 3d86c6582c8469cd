package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/extract"
	"github.com/ritzau/unity-analyzer/pkg/model"
	"github.com/ritzau/unity-analyzer/pkg/syntax"
)

func classify(t *testing.T, path, src string) []*model.Component {
	t.Helper()
	tree, err := syntax.Parse([]byte(src))
	require.NoError(t, err)
	file := extract.Extract(path, tree)
	return NewClassifier(nil).Classify(file, tree.Source())
}

const playerSource = `using UnityEngine;

[RequireComponent(typeof(Rigidbody))]
public class Player : MonoBehaviour
{
    public float speed;
    [SerializeField] private Weapon weapon;
    private int hidden;

    void Awake()
    {
        rb = GetComponent<Rigidbody>();
        anim = GetComponentInChildren<Animator>();
    }

    void Update()
    {
        GetComponent<Rigidbody>().AddForce(Vector3.up);
    }

    public void Jump() { }
}

public class Helper
{
    void Update() { }
}
`

func TestClassifyComponent(t *testing.T) {
	comps := classify(t, "Assets/Player.cs", playerSource)
	require.Len(t, comps, 1)

	p := comps[0]
	assert.Equal(t, "Player", p.ClassName)
	assert.Equal(t, "Assets/Player.cs", p.FilePath)
	assert.Equal(t, "MonoBehaviour", p.BaseType)
	assert.Equal(t, []string{"Awake", "Update"}, p.LifecycleMethods)
	assert.Equal(t, []string{"Jump"}, p.CustomMethods)
	assert.Equal(t, []string{"speed : float", "weapon : Weapon"}, p.SerializedFields)
	assert.Equal(t, []string{"Animator", "Rigidbody"}, p.DeclaredDependencies)
}

func TestClassifyKeepsEveryCallSite(t *testing.T) {
	comps := classify(t, "Assets/Player.cs", playerSource)
	require.Len(t, comps, 1)

	refs := comps[0].References
	require.Len(t, refs, 4)

	assert.Equal(t, model.Reference{Type: "Rigidbody", Kind: model.ReferenceRequired, Line: 3, Detail: "RequireComponent"}, refs[0])
	assert.Equal(t, model.Reference{Type: "Rigidbody", Kind: model.ReferenceTypedAccess, Line: 12, Detail: "GetComponent"}, refs[1])
	assert.Equal(t, model.Reference{Type: "Animator", Kind: model.ReferenceTypedAccess, Line: 13, Detail: "GetComponentInChildren"}, refs[2])
	assert.Equal(t, model.Reference{Type: "Rigidbody", Kind: model.ReferenceTypedAccess, Line: 18, Detail: "GetComponent"}, refs[3])
}

func TestClassifyComplexity(t *testing.T) {
	comps := classify(t, "Assets/Player.cs", playerSource)
	require.Len(t, comps, 1)

	// 2 callbacks*2 + 1 custom + 2 deps*3 + 2 serialized
	assert.Equal(t, 13, comps[0].Complexity)
}

func TestClassifyQualifiedBaseType(t *testing.T) {
	comps := classify(t, "A.cs", `public class A : UnityEngine.MonoBehaviour { }`)
	require.Len(t, comps, 1)
	assert.Equal(t, "A", comps[0].ClassName)
	assert.Empty(t, comps[0].LifecycleMethods)
	assert.NotNil(t, comps[0].DeclaredDependencies)
}

func TestClassifyIndirectSubclassIsNotComponent(t *testing.T) {
	comps := classify(t, "B.cs", `
public class Base : MonoBehaviour { }
public class Derived : Base { }
`)
	require.Len(t, comps, 1)
	assert.Equal(t, "Base", comps[0].ClassName)
}

func TestClassifyCustomBaseTypes(t *testing.T) {
	tree, err := syntax.Parse([]byte(`public class Enemy : GameBehaviour { void Start() { } }`))
	require.NoError(t, err)
	file := extract.Extract("Enemy.cs", tree)

	c := NewClassifier(&config.Context{BaseTypes: []string{"GameBehaviour"}})
	comps := c.Classify(file, tree.Source())
	require.Len(t, comps, 1)
	assert.Equal(t, []string{"Start"}, comps[0].LifecycleMethods)
}

func TestClassifyNestedClassMethodsStayWithOwner(t *testing.T) {
	comps := classify(t, "Outer.cs", `
public class Outer : MonoBehaviour
{
    void Start() { }

    public class Inner : MonoBehaviour
    {
        void Update() { }
    }
}
`)
	require.Len(t, comps, 2)
	assert.Equal(t, []string{"Start"}, comps[0].LifecycleMethods)
	assert.Equal(t, "Inner", comps[1].ClassName)
	assert.Equal(t, []string{"Update"}, comps[1].LifecycleMethods)
}

func TestClassifyRequireComponentTakesEveryType(t *testing.T) {
	comps := classify(t, "Car.cs", `
[RequireComponent(typeof(Rigidbody), typeof(UnityEngine.BoxCollider), typeof(AudioSource))]
public class Car : MonoBehaviour { }
`)
	require.Len(t, comps, 1)

	var required []string
	for _, ref := range comps[0].References {
		assert.Equal(t, model.ReferenceRequired, ref.Kind)
		required = append(required, ref.Type)
	}
	assert.Equal(t, []string{"Rigidbody", "BoxCollider", "AudioSource"}, required)
	assert.Equal(t, []string{"AudioSource", "BoxCollider", "Rigidbody"}, comps[0].DeclaredDependencies)
}

func TestRequiredTypes(t *testing.T) {
	tests := []struct {
		attr string
		want []string
	}{
		{"RequireComponent(typeof(Rigidbody))", []string{"Rigidbody"}},
		{"RequireComponent(typeof(Rigidbody), typeof(Collider))", []string{"Rigidbody", "Collider"}},
		{"UnityEngine.RequireComponent( typeof( Animator ) )", []string{"Animator"}},
		{"SerializeField", nil},
		{"DisallowMultipleComponent", nil},
		{"Tooltip(\"typeof(Rigidbody)\")", nil},
	}

	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredTypes(tt.attr))
		})
	}
}

func TestClassifyQualifiedSerializeField(t *testing.T) {
	tree, err := syntax.Parse([]byte(`
public class Turret : MonoBehaviour
{
    [UnityEngine.SerializeField] private Target target;
}
public class Target : MonoBehaviour { }
`))
	require.NoError(t, err)
	comps := NewClassifier(nil).Classify(extract.Extract("Turret.cs", tree), tree.Source())
	require.Len(t, comps, 2)

	turret := comps[0]
	assert.Equal(t, []string{"target : Target"}, turret.SerializedFields)

	ResolveFieldReferences(comps)
	require.Len(t, turret.References, 1)
	assert.Equal(t, model.ReferenceField, turret.References[0].Kind)
	assert.Equal(t, "Target", turret.References[0].Type)
	assert.Equal(t, "target", turret.References[0].Detail)
}

func TestResolveFieldReferences(t *testing.T) {
	a := &model.Component{
		ClassName: "Player",
		Fields: []model.FieldDeclaration{
			{Name: "weapon", Type: "Weapon", Access: model.AccessPrivate, Attributes: []string{"SerializeField"}, Line: 7},
			{Name: "allies", Type: "List<Ally>", Access: model.AccessPublic, Line: 8},
			{Name: "secret", Type: "Weapon", Access: model.AccessPrivate, Line: 9},
			{Name: "body", Type: "Rigidbody", Access: model.AccessPublic, Line: 10},
		},
	}
	w := &model.Component{ClassName: "Weapon"}
	ally := &model.Component{ClassName: "Ally"}

	ResolveFieldReferences([]*model.Component{a, w, ally})

	assert.Equal(t, []string{"Ally", "Weapon"}, a.DeclaredDependencies)
	require.Len(t, a.References, 2)
	assert.Equal(t, model.ReferenceField, a.References[0].Kind)
	assert.Equal(t, "weapon", a.References[0].Detail)
	assert.Equal(t, 7, a.References[0].Line)
	assert.Empty(t, w.References)
}

func TestElementType(t *testing.T) {
	tests := map[string]string{
		"Weapon":                     "Weapon",
		"Weapon[]":                   "Weapon",
		"List<Weapon>":               "Weapon",
		" int ":                      "int",
		"Dictionary<string, Weapon>": "Dictionary<string, Weapon>",
	}
	for in, want := range tests {
		assert.Equal(t, want, ElementType(in), in)
	}
}

func TestPurpose(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"Awake", "Initialize component references and setup"},
		{"OnTriggerEnter2D", "Handle trigger collision events"},
		{"OnCollisionStay", "Handle physics collision events"},
		{"OnMouseDrag", "Handle mouse input events"},
		{"OnPreRender", "Unity callback method"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, Purpose(tt.method))
		})
	}
}

func TestLifecycleVocabulary(t *testing.T) {
	assert.Len(t, LifecycleMethodNames(), 35)
	assert.True(t, IsLifecycleMethod("OnMouseUpAsButton"))
	assert.False(t, IsLifecycleMethod("Jump"))
	assert.False(t, IsLifecycleMethod("update"))
}
