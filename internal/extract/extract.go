package extract

import (
	"fmt"

	"github.com/gnoverse/eqsat/internal/egraph"
	"github.com/gnoverse/eqsat/internal/term"
)

type choice struct {
	cost uint64
	node egraph.Node
}

// Extractor holds the cheapest node of every class of a graph under one
// cost function. It reflects the graph at the time New ran.
type Extractor struct {
	g    *egraph.EGraph
	cf   CostFunction
	best map[egraph.ClassID]choice
}

// New computes best costs for every class of g. Pending unions are
// rebuilt first.
func New(g *egraph.EGraph, cf CostFunction) *Extractor {
	if g.Pending() {
		g.Rebuild()
	}
	x := &Extractor{
		g:    g,
		cf:   cf,
		best: make(map[egraph.ClassID]choice, g.NumClasses()),
	}
	x.relax()
	x.choose()
	return x
}

func (x *Extractor) childCost(id egraph.ClassID) uint64 {
	if c, ok := x.best[x.g.Find(id)]; ok {
		return c.cost
	}
	return Infinity
}

// relax lowers class costs until a full pass changes nothing. Merged
// classes can reach themselves through their children, so one bottom-up
// pass does not suffice.
func (x *Extractor) relax() {
	classes := x.g.Classes()
	for changed := true; changed; {
		changed = false
		for _, c := range classes {
			for _, n := range c.Nodes() {
				cost := x.cf.Cost(n, x.childCost)
				if cost == Infinity {
					continue
				}
				if cur, ok := x.best[c.ID]; !ok || cost < cur.cost {
					x.best[c.ID] = choice{cost: cost, node: n}
					changed = true
				}
			}
		}
	}
}

// choose settles ties: with costs fixed, the earliest inserted node that
// reaches the class minimum wins.
func (x *Extractor) choose() {
	for _, c := range x.g.Classes() {
		cur, ok := x.best[c.ID]
		if !ok {
			continue
		}
		for _, n := range c.Nodes() {
			if x.cf.Cost(n, x.childCost) == cur.cost {
				x.best[c.ID] = choice{cost: cur.cost, node: n}
				break
			}
		}
	}
}

// Cost returns the best cost of the class owning id.
func (x *Extractor) Cost(id egraph.ClassID) (uint64, bool) {
	c, ok := x.best[x.g.Find(id)]
	return c.cost, ok
}

// Best returns the chosen node of the class owning id.
func (x *Extractor) Best(id egraph.ClassID) (egraph.Node, bool) {
	c, ok := x.best[x.g.Find(id)]
	return c.node, ok
}

// FindBest returns the cost and the cheapest tree of the class owning id.
// It panics if id is not a class of the graph.
func (x *Extractor) FindBest(id egraph.ClassID) (uint64, term.Expr) {
	c, ok := x.best[x.g.Find(id)]
	if !ok {
		panic(fmt.Sprintf("extract: no finite tree for class %s", id))
	}
	return c.cost, x.build(id, 0)
}

func (x *Extractor) build(id egraph.ClassID, depth int) term.Expr {
	if depth > x.g.NumClasses() {
		panic(fmt.Sprintf("extract: cyclic choice at class %s; cost function is not increasing", id))
	}
	c := x.best[x.g.Find(id)]
	args := make([]term.Expr, len(c.node.Children))
	for i, child := range c.node.Children {
		args[i] = x.build(child, depth+1)
	}
	e, err := term.Build(c.node.Op, c.node.Leaf, args)
	if err != nil {
		panic(fmt.Sprintf("extract: class %s: %v", id, err))
	}
	return e
}
