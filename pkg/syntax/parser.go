package syntax

import (
	"errors"
	"fmt"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
)

// ErrParseFailure is returned when no tree can be produced for the input.
var ErrParseFailure = errors.New("parse failure")

// fieldNames lists the grammar fields copied into Node.Field lookups.
var fieldNames = []string{
	"name",
	"type",
	"returns",
	"parameters",
	"body",
	"value",
	"arguments",
	"type_parameters",
}

// Parser wraps a tree-sitter parser configured for C#.
// A Parser is not safe for concurrent use; give each goroutine its own.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a C# parser.
func NewParser() (*Parser, error) {
	parser := sitter.NewParser()
	language := sitter.NewLanguage(tree_sitter_csharp.Language())
	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set C# language: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Close releases the underlying parser.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Parse parses content and returns an owned copy of the syntax tree.
// Malformed input still yields a tree; check Tree.HasErrors.
func (p *Parser) Parse(content []byte) (*Tree, error) {
	if p.parser == nil {
		return nil, fmt.Errorf("%w: parser is closed", ErrParseFailure)
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", ErrParseFailure)
	}

	// The tree must not alias the caller's buffer
	source := make([]byte, len(content))
	copy(source, content)

	raw := p.parser.Parse(source, nil)
	if raw == nil {
		return nil, fmt.Errorf("%w: no tree produced", ErrParseFailure)
	}
	defer raw.Close()

	rawRoot := raw.RootNode()
	if rawRoot == nil {
		return nil, fmt.Errorf("%w: tree has no root", ErrParseFailure)
	}

	t := &Tree{source: source, hasErrors: rawRoot.HasError()}
	t.root = copyTree(rawRoot, t)
	return t, nil
}

// Parse parses content with a short-lived parser.
func Parse(content []byte) (*Tree, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse(content)
}

type copyFrame struct {
	raw  *sitter.Node
	node *Node
}

// copyTree copies the raw tree into owned nodes using an explicit stack.
func copyTree(rawRoot *sitter.Node, t *Tree) *Node {
	root := newNode(rawRoot, nil, t)
	stack := []copyFrame{{raw: rawRoot, node: root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		count := f.raw.ChildCount()
		if count == 0 {
			continue
		}

		rawChildren := make([]*sitter.Node, 0, count)
		f.node.children = make([]*Node, 0, count)
		for i := uint(0); i < count; i++ {
			rc := f.raw.Child(i)
			if rc == nil {
				continue
			}
			child := newNode(rc, f.node, t)
			rawChildren = append(rawChildren, rc)
			f.node.children = append(f.node.children, child)
			stack = append(stack, copyFrame{raw: rc, node: child})
		}
		f.node.fields = copyFields(f.raw, rawChildren, f.node.children)
	}
	return root
}

func newNode(raw *sitter.Node, parent *Node, t *Tree) *Node {
	start := raw.StartPosition()
	end := raw.EndPosition()
	t.nodeCount++
	return &Node{
		kind:       raw.Kind(),
		startByte:  int(raw.StartByte()),
		endByte:    int(raw.EndByte()),
		startPoint: Point{Row: int(start.Row), Column: int(start.Column)},
		endPoint:   Point{Row: int(end.Row), Column: int(end.Column)},
		isError:    raw.IsError(),
		isMissing:  raw.IsMissing(),
		parent:     parent,
		tree:       t,
	}
}

// copyFields maps each known grammar field to the owned child it points at.
func copyFields(raw *sitter.Node, rawChildren []*sitter.Node, children []*Node) map[string]*Node {
	var fields map[string]*Node
	for _, name := range fieldNames {
		fc := raw.ChildByFieldName(name)
		if fc == nil {
			continue
		}
		for i, rc := range rawChildren {
			if rc.StartByte() == fc.StartByte() && rc.EndByte() == fc.EndByte() && rc.Kind() == fc.Kind() {
				if fields == nil {
					fields = make(map[string]*Node, 2)
				}
				fields[name] = children[i]
				break
			}
		}
	}
	return fields
}
