// Package component decides which classes are engine components and collects
// their callbacks, serialized state and references to other types.
package component

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/model"
)

var (
	typedAccessPattern = regexp.MustCompile(`(GetComponent|GetComponentInChildren|GetComponentInParent)<(\w+)>\(\)`)
	typeofPattern      = regexp.MustCompile(`typeof\(\s*(?:\w+\.)*(\w+)\s*\)`)
)

// Classifier turns extracted classes into components
type Classifier struct {
	baseTypes map[string]bool
}

// NewClassifier builds a classifier for the base type names of the context.
// A nil context uses the defaults.
func NewClassifier(actx *config.Context) *Classifier {
	if actx == nil {
		actx = config.DefaultContext()
	}
	c := &Classifier{baseTypes: make(map[string]bool, len(actx.BaseTypes))}
	for _, name := range actx.BaseTypes {
		c.baseTypes[name] = true
	}
	return c
}

// IsComponent reports whether the class names a component base type directly.
// Indirect subclasses are not detected.
func (c *Classifier) IsComponent(class model.ClassDeclaration) bool {
	return c.baseTypes[class.BaseType]
}

// Classify returns one component per qualifying class of the file, in
// declaration order. source is the text the file was extracted from and is
// scanned for typed component access inside each class.
func (c *Classifier) Classify(file *model.SourceFile, source []byte) []*model.Component {
	var components []*model.Component
	for _, class := range file.Classes {
		if !c.IsComponent(class) {
			continue
		}
		components = append(components, c.classify(file, class, source))
	}
	return components
}

func (c *Classifier) classify(file *model.SourceFile, class model.ClassDeclaration, source []byte) *model.Component {
	comp := &model.Component{
		ClassName:            class.Name,
		FilePath:             file.Path,
		Namespace:            class.Namespace,
		BaseType:             class.BaseType,
		LifecycleMethods:     []string{},
		CustomMethods:        []string{},
		SerializedFields:     []string{},
		DeclaredDependencies: []string{},
		References:           []model.Reference{},
		Attributes:           class.Attributes,
		Span:                 class.Span,
		Methods:              file.MethodsOf(class.Name),
		Fields:               file.FieldsOf(class.Name),
	}

	seen := make(map[string]bool)
	for _, m := range comp.Methods {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		if IsLifecycleMethod(m.Name) {
			comp.LifecycleMethods = append(comp.LifecycleMethods, m.Name)
		} else {
			comp.CustomMethods = append(comp.CustomMethods, m.Name)
		}
	}

	for _, f := range comp.Fields {
		if IsSerialized(f) {
			comp.SerializedFields = append(comp.SerializedFields, f.Name+" : "+f.Type)
		}
	}

	for _, attr := range class.Attributes {
		for _, typ := range RequiredTypes(attr) {
			comp.AddReference(model.Reference{
				Type:   typ,
				Kind:   model.ReferenceRequired,
				Line:   class.Span.StartLine,
				Detail: "RequireComponent",
			})
		}
	}

	for _, ref := range scanTypedAccess(source, class.Span) {
		comp.AddReference(ref)
	}

	comp.ComputeComplexity()
	return comp
}

// RequiredTypes returns the types named by a RequireComponent attribute in
// argument order, or nil for any other attribute.
func RequiredTypes(attr string) []string {
	if model.AttributeName(attr) != "RequireComponent" {
		return nil
	}
	open := strings.IndexByte(attr, '(')
	if open < 0 {
		return nil
	}

	var types []string
	for _, m := range typeofPattern.FindAllStringSubmatch(attr[open+1:], -1) {
		types = append(types, m[1])
	}
	return types
}

// IsSerialized reports whether the engine would persist the field: it is
// public or carries SerializeField.
func IsSerialized(f model.FieldDeclaration) bool {
	return f.Access == model.AccessPublic || f.HasAttribute("SerializeField")
}

// scanTypedAccess finds every GetComponent-style call inside the span. Each
// call site is one reference.
func scanTypedAccess(source []byte, span model.Span) []model.Reference {
	start, end := span.StartByte, span.EndByte
	if start < 0 || end > len(source) || start >= end {
		return nil
	}
	body := source[start:end]
	line := span.StartLine
	if line == 0 {
		line = bytes.Count(source[:start], []byte{'\n'}) + 1
	}

	var refs []model.Reference
	last := 0
	for _, loc := range typedAccessPattern.FindAllSubmatchIndex(body, -1) {
		line += bytes.Count(body[last:loc[0]], []byte{'\n'})
		last = loc[0]
		refs = append(refs, model.Reference{
			Type:   string(body[loc[4]:loc[5]]),
			Kind:   model.ReferenceTypedAccess,
			Line:   line,
			Detail: string(body[loc[2]:loc[3]]),
		})
	}
	return refs
}

// ResolveFieldReferences adds a field reference for every serialized field
// whose type, or element type, names one of the components. It must run after
// all files are merged so the outcome does not depend on file order.
func ResolveFieldReferences(components []*model.Component) {
	names := make(map[string]bool, len(components))
	for _, c := range components {
		names[c.ClassName] = true
	}

	for _, c := range components {
		fields := append([]model.FieldDeclaration(nil), c.Fields...)
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Line < fields[j].Line })
		for _, f := range fields {
			if !IsSerialized(f) {
				continue
			}
			typ := ElementType(f.Type)
			if !names[typ] {
				continue
			}
			c.AddReference(model.Reference{
				Type:   typ,
				Kind:   model.ReferenceField,
				Line:   f.Line,
				Detail: f.Name,
			})
		}
		c.ComputeComplexity()
	}
}

// ElementType unwraps T[] and List<T> to T; other types are returned as is
func ElementType(typ string) string {
	typ = strings.TrimSpace(typ)
	if strings.HasSuffix(typ, "[]") {
		return strings.TrimSpace(strings.TrimSuffix(typ, "[]"))
	}
	if strings.HasPrefix(typ, "List<") && strings.HasSuffix(typ, ">") {
		return strings.TrimSpace(typ[len("List<") : len(typ)-1])
	}
	return typ
}
