// Package extract turns a C# syntax tree into flat class, method and field records.
package extract

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ritzau/unity-analyzer/pkg/model"
	"github.com/ritzau/unity-analyzer/pkg/syntax"
)

// Node kinds the extractor acts on. Everything else is walked through.
const (
	kindUsing               = "using_directive"
	kindNamespace           = "namespace_declaration"
	kindFileScopedNamespace = "file_scoped_namespace_declaration"
	kindClass               = "class_declaration"
	kindMethod              = "method_declaration"
	kindField               = "field_declaration"
)

// Type declarations that own the members declared inside them.
var ownerKinds = map[string]bool{
	kindClass:               true,
	"struct_declaration":    true,
	"interface_declaration": true,
	"record_declaration":    true,
	"enum_declaration":      true,
}

var accessModifiers = map[string]model.AccessModifier{
	"public":    model.AccessPublic,
	"private":   model.AccessPrivate,
	"protected": model.AccessProtected,
	"internal":  model.AccessInternal,
}

type frame struct {
	node      *syntax.Node
	owner     string
	namespace string
}

// Extract walks the tree once, depth-first in document order, and collects
// the declarations of one file.
func Extract(path string, tree *syntax.Tree) *model.SourceFile {
	file := &model.SourceFile{
		Path:            path,
		Classes:         []model.ClassDeclaration{},
		Methods:         []model.MethodDeclaration{},
		Fields:          []model.FieldDeclaration{},
		ContentHash:     xxhash.Sum64(tree.Source()),
		HasSyntaxErrors: tree.HasErrors(),
	}

	root := tree.Root()
	if root == nil {
		return file
	}

	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node

		owner, namespace := f.owner, f.namespace
		switch n.Kind() {
		case kindUsing:
			if u := usingName(n); u != "" {
				file.Usings = append(file.Usings, u)
			}
		case kindNamespace, kindFileScopedNamespace:
			if name := n.Field("name").Text(); name != "" {
				file.Namespace = name
				namespace = name
			}
		case kindClass:
			class := extractClass(n)
			if namespace != "" {
				class.Namespace = namespace
			} else {
				class.Namespace = file.Namespace
			}
			file.Classes = append(file.Classes, class)
		case kindMethod:
			file.Methods = append(file.Methods, extractMethod(n, owner))
		case kindField:
			file.Fields = append(file.Fields, extractFields(n, owner)...)
		}

		if ownerKinds[n.Kind()] {
			owner = n.Field("name").Text()
		}

		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], owner: owner, namespace: namespace})
		}
	}

	return file
}

func usingName(n *syntax.Node) string {
	text := strings.TrimSpace(n.Text())
	text = strings.TrimSuffix(text, ";")
	text = strings.TrimPrefix(text, "global ")
	text = strings.TrimPrefix(text, "using")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "static ")
	return strings.TrimSpace(text)
}

func extractClass(n *syntax.Node) model.ClassDeclaration {
	class := model.ClassDeclaration{
		Name:       n.Field("name").Text(),
		Attributes: attributes(n),
		Modifiers:  modifiers(n),
		Span:       span(n),
	}

	if bases := n.ChildOfKind("base_list"); bases != nil {
		first := true
		for _, c := range bases.Children() {
			switch c.Kind() {
			case ":", ",", "argument_list":
				continue
			}
			name := strings.TrimSpace(c.Text())
			if name == "" {
				continue
			}
			if first {
				class.BaseType = name
				first = false
			} else {
				class.Interfaces = append(class.Interfaces, name)
			}
		}
	}

	return class
}

func extractMethod(n *syntax.Node, owner string) model.MethodDeclaration {
	name := n.Field("name")
	returns := n.Field("returns")
	if returns == nil {
		returns = n.Field("type")
	}

	method := model.MethodDeclaration{
		Name:       name.Text(),
		Owner:      owner,
		ReturnType: returns.Text(),
		Attributes: attributes(n),
		Access:     access(n),
		Span:       span(n),
	}

	for _, p := range n.Field("parameters").ChildrenOfKind("parameter") {
		method.Parameters = append(method.Parameters, strings.TrimSpace(p.Text()))
	}

	head := header(n, name)
	method.IsStatic = strings.Contains(head, "static")
	method.IsVirtual = strings.Contains(head, "virtual")
	method.IsOverride = strings.Contains(head, "override")

	return method
}

// extractFields returns one record per declared variable.
func extractFields(n *syntax.Node, owner string) []model.FieldDeclaration {
	decl := n.ChildOfKind("variable_declaration")
	if decl == nil {
		return nil
	}

	head := header(n, decl)
	attrs := attributes(n)
	acc := access(n)
	typ := decl.Field("type").Text()

	var fields []model.FieldDeclaration
	for _, v := range decl.ChildrenOfKind("variable_declarator") {
		name := v.Field("name")
		if name == nil {
			name = v.ChildOfKind("identifier")
		}
		if name == nil {
			continue
		}
		fields = append(fields, model.FieldDeclaration{
			Name:       name.Text(),
			Owner:      owner,
			Type:       typ,
			Attributes: attrs,
			Access:     acc,
			IsStatic:   strings.Contains(head, "static"),
			IsReadonly: strings.Contains(head, "readonly"),
			Line:       v.StartLine(),
		})
	}
	return fields
}

// attributes returns the full text of every attribute in the attribute lists
// attached to the declaration. Attributes of nested members are not included.
func attributes(n *syntax.Node) []string {
	var attrs []string
	for _, list := range n.ChildrenOfKind("attribute_list") {
		for _, attr := range list.FindAll("attribute") {
			attrs = append(attrs, strings.TrimSpace(attr.Text()))
		}
	}
	return attrs
}

func modifiers(n *syntax.Node) []string {
	var mods []string
	for _, m := range n.ChildrenOfKind("modifier") {
		mods = append(mods, strings.TrimSpace(m.Text()))
	}
	return mods
}

// access returns the first access keyword among the modifiers, defaulting to private.
func access(n *syntax.Node) model.AccessModifier {
	for _, m := range modifiers(n) {
		if a, ok := accessModifiers[m]; ok {
			return a
		}
	}
	return model.AccessPrivate
}

// header returns the declaration text that precedes stop, i.e. attributes,
// modifiers and type. Without a stop node the whole declaration is used.
func header(n, stop *syntax.Node) string {
	text := n.Text()
	if stop == nil {
		return text
	}
	end := stop.StartByte() - n.StartByte()
	if end < 0 || end > len(text) {
		return text
	}
	return text[:end]
}

func span(n *syntax.Node) model.Span {
	return model.Span{
		StartLine: n.StartLine(),
		EndLine:   n.EndLine(),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
}
