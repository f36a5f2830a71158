package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/eqsat/internal/egraph"
	"github.com/gnoverse/eqsat/internal/term"
)

// graphWith adds every expression and merges them all into one class.
func graphWith(t *testing.T, exprs ...string) (*egraph.EGraph, egraph.ClassID) {
	t.Helper()
	g := egraph.New()
	var root egraph.ClassID
	for i, src := range exprs {
		id := g.AddExpr(term.MustParse(src))
		if i == 0 {
			root = id
			continue
		}
		g.Union(root, id)
	}
	g.Rebuild()
	return g, g.Find(root)
}

func TestFindBest(t *testing.T) {
	tests := []struct {
		name     string
		exprs    []string
		cf       CostFunction
		wantCost uint64
		want     string
	}{
		{
			name:     "single tree",
			exprs:    []string{"(* p (~ q))"},
			cf:       AstSize{},
			wantCost: 4,
			want:     "(* p (~ q))",
		},
		{
			name:     "smaller member wins",
			exprs:    []string{"(~ (~ p))", "p"},
			cf:       AstSize{},
			wantCost: 1,
			want:     "p",
		},
		{
			name:     "size tie keeps earliest",
			exprs:    []string{"(* (* (* a b) c) d)", "(* (* a b) (* c d))"},
			cf:       AstSize{},
			wantCost: 7,
			want:     "(* (* (* a b) c) d)",
		},
		{
			name:     "depth prefers balanced",
			exprs:    []string{"(* (* (* a b) c) d)", "(* (* a b) (* c d))"},
			cf:       AstDepth{},
			wantCost: 3,
			want:     "(* (* a b) (* c d))",
		},
		{
			name:     "commuted tie keeps earliest",
			exprs:    []string{"(+ q p)", "(+ p q)"},
			cf:       AstSize{},
			wantCost: 3,
			want:     "(+ q p)",
		},
		{
			name:  "custom cost",
			exprs: []string{"(+ p (~ p))", "true"},
			cf: CostFunc(func(n egraph.Node, child func(egraph.ClassID) uint64) uint64 {
				if n.Op == term.OpConst {
					return 100
				}
				return AstSize{}.Cost(n, child)
			}),
			wantCost: 4,
			want:     "(+ p (~ p))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, root := graphWith(t, tt.exprs...)
			x := New(g, tt.cf)
			cost, best := x.FindBest(root)
			assert.Equal(t, tt.wantCost, cost)
			assert.Equal(t, tt.want, best.String())

			got, ok := x.Cost(root)
			require.True(t, ok)
			assert.Equal(t, cost, got)
		})
	}
}

func TestCyclicClasses(t *testing.T) {
	// p = (~ (~ p)) makes the class of p contain (~ N) where N is the
	// class of (~ p), and N contains (~ p): a two-class cycle.
	g := egraph.New()
	dn := g.AddExpr(term.MustParse("(~ (~ p))"))
	p, _ := g.LookupExpr(term.MustParse("p"))
	n, _ := g.LookupExpr(term.MustParse("(~ p)"))
	g.Union(dn, p)
	g.Rebuild()

	x := New(g, AstSize{})
	cost, e := x.FindBest(dn)
	assert.Equal(t, uint64(1), cost)
	assert.Equal(t, "p", e.String())

	cost, e = x.FindBest(n)
	assert.Equal(t, uint64(2), cost)
	assert.Equal(t, "(~ p)", e.String())

	node, ok := x.Best(dn)
	require.True(t, ok)
	assert.Equal(t, term.OpSymbol, node.Op)
}

func TestRebuildsPendingGraph(t *testing.T) {
	g := egraph.New()
	a := g.AddExpr(term.MustParse("(* q true)"))
	b := g.AddExpr(term.MustParse("q"))
	g.Union(a, b)
	require.True(t, g.Pending())

	x := New(g, AstSize{})
	assert.False(t, g.Pending())
	_, e := x.FindBest(a)
	assert.Equal(t, "q", e.String())
}

func TestCostNeverExceedsOriginal(t *testing.T) {
	inputs := []string{
		"(* (~ (=> p q)) (=> p r))",
		"(<=> (+ a b) (* c (~ d)))",
		"(~ (~ (~ (~ x))))",
	}
	for _, src := range inputs {
		e := term.MustParse(src)
		g := egraph.New()
		root := g.AddExpr(e)
		// Give the root class a second, cheaper member.
		g.Union(root, g.AddExpr(term.MustParse("z")))
		g.Rebuild()

		for _, cf := range []CostFunction{AstSize{}, AstDepth{}} {
			x := New(g, cf)
			cost, _ := x.FindBest(root)
			assert.LessOrEqual(t, cost, uint64(term.Size(e)))
		}
	}
}

func TestUnknownClassPanics(t *testing.T) {
	g := egraph.New()
	g.AddExpr(term.MustParse("p"))
	x := New(g, AstSize{})
	assert.Panics(t, func() { x.FindBest(42) })
}

func TestCostFunctions(t *testing.T) {
	n := egraph.Node{Op: term.OpAnd, Children: []egraph.ClassID{0, 1}}
	costs := map[egraph.ClassID]uint64{0: 3, 1: 5}
	child := func(id egraph.ClassID) uint64 { return costs[id] }

	assert.Equal(t, uint64(9), AstSize{}.Cost(n, child))
	assert.Equal(t, uint64(6), AstDepth{}.Cost(n, child))

	leaf := egraph.Node{Op: term.OpSymbol, Leaf: "p"}
	assert.Equal(t, uint64(1), AstSize{}.Cost(leaf, child))
	assert.Equal(t, uint64(1), AstDepth{}.Cost(leaf, child))

	inf := func(egraph.ClassID) uint64 { return Infinity }
	assert.Equal(t, uint64(Infinity), AstSize{}.Cost(n, inf))
	assert.Equal(t, uint64(Infinity), AstDepth{}.Cost(n, inf))
}

func TestTreeCost(t *testing.T) {
	e := term.MustParse("(* (~ (=> p q)) (=> p r))")
	assert.Equal(t, uint64(8), TreeCost(AstSize{}, e))
	assert.Equal(t, uint64(4), TreeCost(AstDepth{}, e))
	assert.Equal(t, uint64(3), TreeCost(AstSize{}, term.MustParse("(* p p)")), "shared subterms are counted per occurrence")
}
