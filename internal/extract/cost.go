package extract

import (
	"math"

	"github.com/gnoverse/eqsat/internal/egraph"
	"github.com/gnoverse/eqsat/internal/term"
)

// Infinity is the cost of a class no finite tree has been found for yet.
const Infinity = math.MaxUint64

// CostFunction prices a node given the best known cost of each child
// class. Costs must be non-negative and, for a node with children, larger
// than the cost of every child, so cheapest trees are always finite.
type CostFunction interface {
	Cost(n egraph.Node, child func(egraph.ClassID) uint64) uint64
}

// CostFunc adapts a plain function to CostFunction.
type CostFunc func(n egraph.Node, child func(egraph.ClassID) uint64) uint64

func (f CostFunc) Cost(n egraph.Node, child func(egraph.ClassID) uint64) uint64 {
	return f(n, child)
}

// AstSize counts tree nodes.
type AstSize struct{}

func (AstSize) Cost(n egraph.Node, child func(egraph.ClassID) uint64) uint64 {
	cost := uint64(1)
	for _, c := range n.Children {
		cost = add(cost, child(c))
	}
	return cost
}

// AstDepth measures tree height; a leaf costs 1.
type AstDepth struct{}

func (AstDepth) Cost(n egraph.Node, child func(egraph.ClassID) uint64) uint64 {
	var deepest uint64
	for _, c := range n.Children {
		deepest = max(deepest, child(c))
	}
	return add(deepest, 1)
}

// add saturates at Infinity.
func add(a, b uint64) uint64 {
	if a > Infinity-b {
		return Infinity
	}
	return a + b
}

// TreeCost prices e as a plain tree, with no alternatives to choose from.
func TreeCost(cf CostFunction, e term.Expr) uint64 {
	g := egraph.New()
	root := g.AddExpr(e)
	cost, _ := New(g, cf).Cost(root)
	return cost
}
