package model

import (
	"reflect"
	"testing"
)

func TestAttributeName(t *testing.T) {
	tests := []struct {
		attr string
		want string
	}{
		{"SerializeField", "SerializeField"},
		{"RequireComponent(typeof(Rigidbody))", "RequireComponent"},
		{"Header(\"Movement\")", "Header"},
		{"SerializeFieldAttribute", "SerializeField"},
		{"UnityEngine.SerializeField", "SerializeField"},
		{"global::UnityEngine.SerializeField", "SerializeField"},
		{"UnityEngine.RequireComponent(typeof(Rigidbody))", "RequireComponent"},
		{"Tooltip(\"a.b\")", "Tooltip"},
		{"Attribute", "Attribute"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			if got := AttributeName(tt.attr); got != tt.want {
				t.Errorf("AttributeName(%q) = %q, want %q", tt.attr, got, tt.want)
			}
		})
	}
}

func TestAddReferenceKeepsDuplicatesAsEvidence(t *testing.T) {
	c := &Component{ClassName: "Player"}

	c.AddReference(Reference{Type: "Rigidbody", Kind: ReferenceTypedAccess, Line: 10})
	c.AddReference(Reference{Type: "Animator", Kind: ReferenceTypedAccess, Line: 11})
	c.AddReference(Reference{Type: "Rigidbody", Kind: ReferenceRequired, Line: 2})

	if len(c.References) != 3 {
		t.Errorf("Expected 3 references, got %d", len(c.References))
	}

	want := []string{"Animator", "Rigidbody"}
	if !reflect.DeepEqual(c.DeclaredDependencies, want) {
		t.Errorf("DeclaredDependencies = %v, want %v", c.DeclaredDependencies, want)
	}
}

func TestComputeComplexity(t *testing.T) {
	c := &Component{
		LifecycleMethods:     []string{"Awake", "Update"},
		CustomMethods:        []string{"Jump"},
		SerializedFields:     []string{"speed : float", "target : Transform"},
		DeclaredDependencies: []string{"Rigidbody"},
	}

	// 2*2 + 1 + 1*3 + 2
	if got := c.ComputeComplexity(); got != 10 {
		t.Errorf("ComputeComplexity() = %d, want 10", got)
	}
	if c.Complexity != 10 {
		t.Errorf("Complexity field not stored, got %d", c.Complexity)
	}
}

func TestDiagnosticFatal(t *testing.T) {
	tests := []struct {
		kind  DiagnosticKind
		fatal bool
	}{
		{DiagnosticReadFailure, true},
		{DiagnosticParseFailure, true},
		{DiagnosticExtractFailure, true},
		{DiagnosticSyntaxError, false},
		{DiagnosticDuplicateName, false},
	}

	for _, tt := range tests {
		d := Diagnostic{Kind: tt.kind}
		if d.Fatal() != tt.fatal {
			t.Errorf("Diagnostic{%s}.Fatal() = %v, want %v", tt.kind, d.Fatal(), tt.fatal)
		}
	}
}

func TestSourceFileMethodsOf(t *testing.T) {
	f := &SourceFile{
		Methods: []MethodDeclaration{
			{Name: "Update", Owner: "Player"},
			{Name: "Tick", Owner: "Inner"},
			{Name: "Jump", Owner: "Player"},
		},
	}

	got := f.MethodsOf("Player")
	if len(got) != 2 || got[0].Name != "Update" || got[1].Name != "Jump" {
		t.Errorf("MethodsOf(Player) = %v", got)
	}
}
