package ir

import (
	"fmt"
	"strings"
)

// Node is one operator application. Children are ids of earlier nodes in the
// same Term, or classes in a graph once the node has been added to one.
type Node struct {
	Op       Symbol
	Children []ID
}

// NewNode builds a node from an operator name and child ids.
func NewNode(op string, children ...ID) Node {
	return Node{Op: Intern(op), Children: children}
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// MapChildren returns a copy of n with every child passed through f.
func (n Node) MapChildren(f func(ID) ID) Node {
	if len(n.Children) == 0 {
		return n
	}
	children := make([]ID, len(n.Children))
	for i, c := range n.Children {
		children[i] = f(c)
	}
	return Node{Op: n.Op, Children: children}
}

// Key returns a string that is equal for structurally equal nodes.
// Used as the hashcons key.
func (n Node) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", uint32(n.Op))
	for _, c := range n.Children {
		fmt.Fprintf(&b, ",%d", uint32(c))
	}
	return b.String()
}

// Term is a flat, post-order encoding of an expression tree.
// Each node's children index earlier nodes; the last node is the root.
type Term struct {
	nodes []Node
}

// Add appends a node and returns its index.
// Panics if a child refers to a node that has not been added yet; that is a
// construction bug, not a data error.
func (t *Term) Add(n Node) ID {
	for _, c := range n.Children {
		if int(c) >= len(t.nodes) {
			panic(fmt.Sprintf("ir: child %d out of range (term has %d nodes)", c, len(t.nodes)))
		}
	}
	t.nodes = append(t.nodes, n)
	return ID(len(t.nodes) - 1)
}

// Nodes returns the node list. Callers must not modify it.
func (t Term) Nodes() []Node {
	return t.nodes
}

// Len returns the number of nodes.
func (t Term) Len() int {
	return len(t.nodes)
}

// IsEmpty reports whether the term has no nodes.
func (t Term) IsEmpty() bool {
	return len(t.nodes) == 0
}

// Root returns the index of the root node.
func (t Term) Root() ID {
	return ID(len(t.nodes) - 1)
}

// String renders the term as an S-expression.
func (t Term) String() string {
	if t.IsEmpty() {
		return "()"
	}
	var b strings.Builder
	t.write(&b, t.Root())
	return b.String()
}

func (t Term) write(b *strings.Builder, id ID) {
	n := t.nodes[id]
	if n.IsLeaf() {
		b.WriteString(n.Op.String())
		return
	}
	b.WriteByte('(')
	b.WriteString(n.Op.String())
	for _, c := range n.Children {
		b.WriteByte(' ')
		t.write(b, c)
	}
	b.WriteByte(')')
}

// MarshalText implements encoding.TextMarshaler using S-expression syntax.
func (t Term) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Term) UnmarshalText(text []byte) error {
	parsed, err := ParseTerm(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTerm parses an S-expression into a Term.
// A list's first element is the operator and must be an atom; the rest are
// children. Empty lists are rejected. A list holding only an operator is the
// same term as the bare atom, so "(h)" parses to the leaf h.
func ParseTerm(src string) (Term, error) {
	s, err := ParseSexp(src)
	if err != nil {
		return Term{}, err
	}
	var t Term
	if _, err := t.addSexp(s); err != nil {
		return Term{}, err
	}
	return t, nil
}

// MustParseTerm is like ParseTerm but panics on error.
// Use only in tests or with literal input.
func MustParseTerm(src string) Term {
	t, err := ParseTerm(src)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Term) addSexp(s Sexp) (ID, error) {
	if !s.IsList {
		return t.Add(NewNode(s.Atom)), nil
	}
	if len(s.List) == 0 {
		return 0, &ParseError{Offset: s.Offset, Message: "empty list is not a term"}
	}
	head := s.List[0]
	if head.IsList {
		return 0, &ParseError{Offset: head.Offset, Message: "operator must be an atom"}
	}
	if len(s.List) == 1 {
		return t.Add(NewNode(head.Atom)), nil
	}
	children := make([]ID, 0, len(s.List)-1)
	for _, child := range s.List[1:] {
		id, err := t.addSexp(child)
		if err != nil {
			return 0, err
		}
		children = append(children, id)
	}
	return t.Add(NewNode(head.Atom, children...)), nil
}
