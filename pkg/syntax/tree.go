package syntax

import "fmt"

// Point is a zero-based row/column position in the source.
type Point struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Node is an owned copy of one syntax tree node.
//
// Nodes are copied out of the parser's tree while it is still open, so they
// stay valid after the parse session has been released. All accessors accept
// a nil receiver and return the zero value, which is how a missing child or
// field is represented.
type Node struct {
	kind       string
	startByte  int
	endByte    int
	startPoint Point
	endPoint   Point
	isError    bool
	isMissing  bool

	parent   *Node
	children []*Node
	fields   map[string]*Node
	tree     *Tree
}

// Kind returns the grammar type name of the node (e.g. "class_declaration").
func (n *Node) Kind() string {
	if n == nil {
		return ""
	}
	return n.kind
}

// Text returns the exact source text covered by the node.
func (n *Node) Text() string {
	if n == nil || n.tree == nil {
		return ""
	}
	src := n.tree.source
	if n.startByte < 0 || n.endByte > len(src) || n.startByte > n.endByte {
		return ""
	}
	return string(src[n.startByte:n.endByte])
}

func (n *Node) StartByte() int {
	if n == nil {
		return 0
	}
	return n.startByte
}

func (n *Node) EndByte() int {
	if n == nil {
		return 0
	}
	return n.endByte
}

func (n *Node) StartPoint() Point {
	if n == nil {
		return Point{}
	}
	return n.startPoint
}

func (n *Node) EndPoint() Point {
	if n == nil {
		return Point{}
	}
	return n.endPoint
}

// StartLine returns the 1-based line the node starts on, or 0 for a nil node.
func (n *Node) StartLine() int {
	if n == nil {
		return 0
	}
	return n.startPoint.Row + 1
}

// EndLine returns the 1-based line the node ends on, or 0 for a nil node.
func (n *Node) EndLine() int {
	if n == nil {
		return 0
	}
	return n.endPoint.Row + 1
}

// IsError reports whether the parser produced this node to cover invalid input.
func (n *Node) IsError() bool {
	return n != nil && n.isError
}

// IsMissing reports whether the parser inserted this node to recover from an error.
func (n *Node) IsMissing() bool {
	return n != nil && n.isMissing
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Child returns the i-th child or nil when i is out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns the node's children in source order. The slice must not be modified.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// Field returns the child stored under the named grammar field, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil || n.fields == nil {
		return nil
	}
	return n.fields[name]
}

// ChildOfKind returns the first direct child with the given kind, or nil.
func (n *Node) ChildOfKind(kind string) *Node {
	for _, c := range n.Children() {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns all direct children with the given kind.
func (n *Node) ChildrenOfKind(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children() {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FindAll returns every node of the given kind in the subtree rooted at n,
// including n itself, in document order.
func (n *Node) FindAll(kind string) []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		if c.kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FindFirst returns the first node of the given kind in document order, or nil.
func (n *Node) FindFirst(kind string) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c.kind == kind {
			found = c
			return false
		}
		return true
	})
	return found
}

// walk visits the subtree in pre-order using an explicit stack. Returning
// false from visit stops the walk.
func (n *Node) walk(visit func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			return
		}
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
	}
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s [%d:%d - %d:%d]", n.kind,
		n.startPoint.Row, n.startPoint.Column, n.endPoint.Row, n.endPoint.Column)
}

// Tree is the result of parsing one file.
type Tree struct {
	root      *Node
	source    []byte
	hasErrors bool
	nodeCount int
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	if t == nil {
		return nil
	}
	return t.root
}

// Source returns the parsed text. The slice must not be modified.
func (t *Tree) Source() []byte {
	if t == nil {
		return nil
	}
	return t.source
}

// NodeCount returns the number of nodes copied out of the parse.
func (t *Tree) NodeCount() int {
	if t == nil {
		return 0
	}
	return t.nodeCount
}

// HasErrors reports whether any subtree is an error or missing node.
func (t *Tree) HasErrors() bool {
	return t != nil && t.hasErrors
}

// SyntaxError locates one error or missing node. Lines and columns are 1-based.
type SyntaxError struct {
	StartLine   int  `json:"startLine"`
	StartColumn int  `json:"startColumn"`
	EndLine     int  `json:"endLine"`
	EndColumn   int  `json:"endColumn"`
	Missing     bool `json:"missing,omitempty"`
}

func (e SyntaxError) String() string {
	msg := fmt.Sprintf("Parse error at line %d, column %d", e.StartLine, e.StartColumn)
	if e.StartLine != e.EndLine || e.StartColumn != e.EndColumn {
		msg += fmt.Sprintf(" to line %d, column %d", e.EndLine, e.EndColumn)
	}
	if e.Missing {
		msg += " (missing token)"
	}
	return msg
}

// Errors returns the location of every error and missing node in document order.
func (t *Tree) Errors() []SyntaxError {
	if !t.HasErrors() {
		return nil
	}
	var errs []SyntaxError
	t.root.walk(func(n *Node) bool {
		if n.isError || n.isMissing {
			errs = append(errs, SyntaxError{
				StartLine:   n.startPoint.Row + 1,
				StartColumn: n.startPoint.Column + 1,
				EndLine:     n.endPoint.Row + 1,
				EndColumn:   n.endPoint.Column + 1,
				Missing:     n.isMissing,
			})
		}
		return true
	})
	return errs
}
