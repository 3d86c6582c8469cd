package model

import "strings"

// AccessModifier is the declared visibility of a class member
type AccessModifier string

const (
	AccessPublic    AccessModifier = "public"
	AccessPrivate   AccessModifier = "private"
	AccessProtected AccessModifier = "protected"
	AccessInternal  AccessModifier = "internal"
)

// Span locates a declaration in its source file. Lines are 1-based.
type Span struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
	StartByte int `json:"-"`
	EndByte   int `json:"-"`
}

// Contains reports whether offset lies inside the span
func (s Span) Contains(offset int) bool {
	return offset >= s.StartByte && offset < s.EndByte
}

// ClassDeclaration is one class found in a source file
type ClassDeclaration struct {
	Name       string   `json:"name"`
	Namespace  string   `json:"namespace,omitempty"`
	BaseType   string   `json:"baseType,omitempty"`   // First entry of the base list
	Interfaces []string `json:"interfaces,omitempty"` // Remaining base list entries
	Attributes []string `json:"attributes,omitempty"` // Full attribute text, e.g. RequireComponent(typeof(Rigidbody))
	Modifiers  []string `json:"modifiers,omitempty"`
	Span       Span     `json:"span"`
}

// MethodDeclaration is one method found in a source file
type MethodDeclaration struct {
	Name       string         `json:"name"`
	Owner      string         `json:"owner,omitempty"` // Name of the innermost enclosing class
	ReturnType string         `json:"returnType"`
	Parameters []string       `json:"parameters,omitempty"` // Parameter text, e.g. "Collision collision"
	Attributes []string       `json:"attributes,omitempty"`
	Access     AccessModifier `json:"access"`
	IsStatic   bool           `json:"isStatic,omitempty"`
	IsVirtual  bool           `json:"isVirtual,omitempty"`
	IsOverride bool           `json:"isOverride,omitempty"`
	Span       Span           `json:"span"`
}

// FieldDeclaration is one declared variable of a field declaration
type FieldDeclaration struct {
	Name       string         `json:"name"`
	Owner      string         `json:"owner,omitempty"`
	Type       string         `json:"type"`
	Attributes []string       `json:"attributes,omitempty"`
	Access     AccessModifier `json:"access"`
	IsStatic   bool           `json:"isStatic,omitempty"`
	IsReadonly bool           `json:"isReadonly,omitempty"`
	Line       int            `json:"line"`
}

// HasAttribute reports whether the field carries an attribute with the given name
func (f FieldDeclaration) HasAttribute(name string) bool {
	for _, attr := range f.Attributes {
		if AttributeName(attr) == name {
			return true
		}
	}
	return false
}

// SourceFile holds everything extracted from one file
type SourceFile struct {
	Path            string              `json:"path"`
	Namespace       string              `json:"namespace,omitempty"` // Last namespace declaration seen
	Usings          []string            `json:"usings,omitempty"`
	Classes         []ClassDeclaration  `json:"classes"`
	Methods         []MethodDeclaration `json:"methods"`
	Fields          []FieldDeclaration  `json:"fields"`
	ContentHash     uint64              `json:"contentHash"`
	HasSyntaxErrors bool                `json:"hasSyntaxErrors,omitempty"`
}

// MethodsOf returns the methods whose innermost enclosing class is owner
func (f *SourceFile) MethodsOf(owner string) []MethodDeclaration {
	var out []MethodDeclaration
	for _, m := range f.Methods {
		if m.Owner == owner {
			out = append(out, m)
		}
	}
	return out
}

// FieldsOf returns the fields whose innermost enclosing class is owner
func (f *SourceFile) FieldsOf(owner string) []FieldDeclaration {
	var out []FieldDeclaration
	for _, fd := range f.Fields {
		if fd.Owner == owner {
			out = append(out, fd)
		}
	}
	return out
}

// AttributeName returns the attribute name without namespace qualifier,
// arguments or an "Attribute" suffix, e.g.
// "UnityEngine.RequireComponent(typeof(Rigidbody))" -> "RequireComponent".
func AttributeName(attr string) string {
	name := attr
	for i, r := range attr {
		if r == '(' || r == ' ' {
			name = attr[:i]
			break
		}
	}
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		name = name[i+1:]
	}
	if len(name) > len("Attribute") && name[len(name)-len("Attribute"):] == "Attribute" {
		name = name[:len(name)-len("Attribute")]
	}
	return name
}

// DiagnosticKind classifies a per-file problem recorded during a run
type DiagnosticKind string

const (
	DiagnosticReadFailure    DiagnosticKind = "ReadFailure"    // File could not be read
	DiagnosticParseFailure   DiagnosticKind = "ParseFailure"   // Parser produced no tree
	DiagnosticSyntaxError    DiagnosticKind = "SyntaxError"    // Tree contains error nodes; file still used
	DiagnosticExtractFailure DiagnosticKind = "ExtractFailure" // Extraction aborted; file dropped
	DiagnosticDuplicateName  DiagnosticKind = "DuplicateComponentName"
)

// Diagnostic describes a per-file problem. Only ReadFailure, ParseFailure and
// ExtractFailure drop the file's contribution.
type Diagnostic struct {
	File    string         `json:"file"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Line    int            `json:"line,omitempty"`
}

// Fatal reports whether the diagnostic caused the file to be skipped
func (d Diagnostic) Fatal() bool {
	switch d.Kind {
	case DiagnosticReadFailure, DiagnosticParseFailure, DiagnosticExtractFailure:
		return true
	}
	return false
}
