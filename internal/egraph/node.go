package egraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gnoverse/eqsat/internal/term"
)

// ClassID names an equivalence class. Ids are never recycled; after a
// union a stale id still resolves, through Find, to its canonical owner.
type ClassID uint32

func (id ClassID) String() string {
	return "c" + strconv.FormatUint(uint64(id), 10)
}

// Node is an operator applied to child classes. Leaf carries the symbol
// name or constant value for leaf operators and is empty otherwise.
type Node struct {
	Op       term.Op
	Leaf     string
	Children []ClassID
}

// NewNode builds a node, checking the child count against op's arity.
func NewNode(op term.Op, leaf string, children ...ClassID) (Node, error) {
	if !op.Valid() {
		return Node{}, fmt.Errorf("unknown operator %v", op)
	}
	if len(children) != op.Arity() {
		return Node{}, fmt.Errorf("%w: %s expects %d child(ren), got %d", term.ErrArity, op, op.Arity(), len(children))
	}
	if op.IsLeaf() == (leaf == "") {
		return Node{}, fmt.Errorf("operator %s: invalid leaf %q", op, leaf)
	}
	return Node{Op: op, Leaf: leaf, Children: children}, nil
}

// Leaf returns a leaf node for a symbol or constant expression.
func Leaf(e term.Expr) Node {
	return Node{Op: e.Op(), Leaf: term.Leaf(e)}
}

// key is the hash-cons key of n. Two nodes with equal keys are the same
// node; callers canonicalise children first.
func (n Node) key() string {
	var sb strings.Builder
	sb.WriteString(n.Op.String())
	if n.Leaf != "" {
		sb.WriteByte(':')
		sb.WriteString(n.Leaf)
	}
	for _, c := range n.Children {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	return sb.String()
}

// mapChildren returns a copy of n with every child replaced by f(child).
func (n Node) mapChildren(f func(ClassID) ClassID) Node {
	if len(n.Children) == 0 {
		return n
	}
	children := make([]ClassID, len(n.Children))
	for i, c := range n.Children {
		children[i] = f(c)
	}
	return Node{Op: n.Op, Leaf: n.Leaf, Children: children}
}

// Matches reports whether n and other have the same operator and leaf,
// ignoring children.
func (n Node) Matches(other Node) bool {
	return n.Op == other.Op && n.Leaf == other.Leaf
}

func (n Node) String() string {
	if n.Op.IsLeaf() {
		return n.Leaf
	}
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(n.Op.String())
	for _, c := range n.Children {
		sb.WriteString(" ")
		sb.WriteString(c.String())
	}
	sb.WriteString(")")
	return sb.String()
}
