package runner

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gnoverse/eqsat/internal/egraph"
	"github.com/gnoverse/eqsat/internal/rewrite"
	"github.com/gnoverse/eqsat/internal/term"
)

func ruleSet(t *testing.T, rules ...rewrite.Rule) *rewrite.RuleSet {
	t.Helper()
	rs, err := rewrite.NewRuleSet(rules...)
	require.NoError(t, err)
	return rs
}

// squareLeft rewrites a*b to (a*a)*b. It is sound, but every application
// creates a class the next iteration can square again, so it never
// saturates.
func squareLeft() rewrite.Rule {
	return rewrite.MustRule("square-left", "(* ?a ?b)", "(* (* ?a ?a) ?b)")
}

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestSaturates(t *testing.T) {
	r := New(ruleSet(t, rewrite.MustRule("double-neg", "(~ (~ ?a))", "?a")))
	root := r.AddRoot(term.MustParse("(~ (~ p))"))

	reason := r.Run()
	assert.Equal(t, Saturated, reason)
	assert.Equal(t, Saturated, r.Stop())
	require.Len(t, r.Iterations(), 2)
	assert.Equal(t, 1, r.Iterations()[0].Unions)
	assert.Equal(t, 0, r.Iterations()[1].Unions)
	assert.Equal(t, 1, r.Iterations()[0].Matches["double-neg"])
	assert.Zero(t, r.Iterations()[0].Added, "p is already in the graph")

	p, ok := r.Graph().LookupExpr(term.MustParse("p"))
	require.True(t, ok)
	assert.Equal(t, r.Graph().Find(p), r.Roots()[0])
	assert.Equal(t, r.Graph().Find(root), r.Roots()[0])
}

func TestNonTerminatingRulesHitNodeLimit(t *testing.T) {
	tests := []struct {
		name  string
		rules []rewrite.Rule
		expr  string
		nodes int
	}{
		{
			name:  "squaring",
			rules: []rewrite.Rule{squareLeft()},
			expr:  "(* p q)",
			nodes: 40,
		},
		{
			name:  "one-way associativity",
			rules: []rewrite.Rule{rewrite.MustRule("assoc", "(* ?a (* ?b ?c))", "(* (* ?a ?b) ?c)")},
			expr:  "(* a (* b (* c (* d (* e f)))))",
			nodes: 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(ruleSet(t, tt.rules...), WithLimits(Limits{Nodes: tt.nodes}))
			r.AddRoot(term.MustParse(tt.expr))
			initial := r.Graph().NumNodes()

			// The limit is checked before rebuild merges duplicates, so the
			// final count can land below it.
			assert.Equal(t, NodeLimitReached, r.Run())
			assert.Greater(t, r.Graph().NumNodes(), initial)
			assert.Less(t, len(r.Iterations()), DefaultIterationLimit)
			assert.False(t, r.Graph().Pending(), "graph is rebuilt even when cut short")
		})
	}
}

func TestIterationLimit(t *testing.T) {
	r := New(ruleSet(t, squareLeft()), WithLimits(Limits{Iterations: 3}))
	r.AddRoot(term.MustParse("(* p q)"))

	assert.Equal(t, IterationLimitReached, r.Run())
	assert.Len(t, r.Iterations(), 3)
	assert.True(t, r.Stop().Limited())

	// (* p q) gains (* p p) and (* (* p p) q) in the first round.
	first := r.Iterations()[0]
	assert.Equal(t, 2, first.Added)
	assert.Equal(t, 1, first.Unions)
}

func TestTimeLimit(t *testing.T) {
	r := New(ruleSet(t, squareLeft()), WithLimits(Limits{Time: 5 * time.Second}))
	r.now = fakeClock(time.Second)
	r.AddRoot(term.MustParse("(* p q)"))

	assert.Equal(t, TimeLimitReached, r.Run())
	assert.Len(t, r.Iterations(), 1, "one iteration already spends the budget")
	assert.Equal(t, 8*time.Second, r.Elapsed())
}

func TestSearchSeesOnlyPreIterationGraph(t *testing.T) {
	rules := ruleSet(t,
		rewrite.MustRule("and-to-or", "(* ?a ?b)", "(+ ?a ?b)"),
		rewrite.MustRule("or-to-implies", "(+ ?a ?b)", "(=> ?a ?b)"),
	)

	r := New(rules, WithLimits(Limits{Iterations: 1}))
	r.AddRoot(term.MustParse("(* p q)"))
	r.Run()

	g := r.Graph()
	_, ok := g.LookupExpr(term.MustParse("(+ p q)"))
	assert.True(t, ok)
	_, ok = g.LookupExpr(term.MustParse("(=> p q)"))
	assert.False(t, ok, "or-to-implies must not see and-to-or's result in the same iteration")

	r = New(rules, WithLimits(Limits{Iterations: 2}))
	r.AddRoot(term.MustParse("(* p q)"))
	r.Run()
	assert.True(t, r.Graph().Equivs(term.MustParse("(* p q)"), term.MustParse("(=> p q)")))
}

func TestDeterministic(t *testing.T) {
	run := func() string {
		r := New(rewrite.Default(), WithLimits(Limits{Iterations: 4}))
		r.AddRoot(term.MustParse("(* (~ (=> p q)) (=> p r))"))
		r.Run()
		return r.Graph().String()
	}
	assert.Equal(t, run(), run())
}

func TestGoal(t *testing.T) {
	rules := ruleSet(t, rewrite.MustRule("double-neg", "(~ (~ ?a))", "?a"))

	r := New(rules, WithGoal(RootsEquivalent))
	r.AddRoot(term.MustParse("(~ (~ p))"))
	r.AddRoot(term.MustParse("p"))
	assert.Equal(t, GoalReached, r.Run())
	assert.Len(t, r.Iterations(), 1)

	r = New(rules, WithGoal(RootsEquivalent))
	r.AddRoot(term.MustParse("p"))
	r.AddRoot(term.MustParse("p"))
	assert.Equal(t, GoalReached, r.Run())
	assert.Empty(t, r.Iterations())

	r = New(rules, WithGoal(RootsEquivalent))
	r.AddRoot(term.MustParse("p"))
	r.AddRoot(term.MustParse("q"))
	assert.Equal(t, Saturated, r.Run())
}

func TestWithGraph(t *testing.T) {
	g := egraph.New()
	g.AddExpr(term.MustParse("(~ (~ q))"))

	r := New(ruleSet(t, rewrite.MustRule("double-neg", "(~ (~ ?a))", "?a")), WithGraph(g))
	r.AddRoot(term.MustParse("(~ (~ p))"))
	r.Run()

	assert.Same(t, g, r.Graph())
	assert.True(t, g.Equivs(term.MustParse("(~ (~ q))"), term.MustParse("q")), "pre-existing classes are rewritten too")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := New(ruleSet(t, rewrite.MustRule("double-neg", "(~ (~ ?a))", "?a")), WithMetrics(m))
	r.AddRoot(term.MustParse("(~ (~ p))"))
	r.Run()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("saturated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.iterations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unions))
	// One match before the merge, then one per member of the resulting
	// two-class cycle p = (~ (~ p)).
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ruleMatches.WithLabelValues("double-neg")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.observeIteration(Iteration{})
		nilMetrics.observeStop(Saturated, 0, 0)
	})
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(ruleSet(t, squareLeft()), WithLogger(zap.New(core)), WithLimits(Limits{Iterations: 2}))
	r.AddRoot(term.MustParse("(* p q)"))
	r.Run()

	assert.Equal(t, 2, logs.FilterMessage("Iteration finished").Len())
	stopped := logs.FilterMessage("Saturation stopped").All()
	require.Len(t, stopped, 1)
	fields := stopped[0].ContextMap()
	assert.Equal(t, "iteration-limit", fields["reason"])
	assert.Equal(t, r.ID(), fields["run"])
}

func TestLimits(t *testing.T) {
	l := Limits{Nodes: 10}.WithDefaults()
	assert.Equal(t, Limits{Iterations: 100, Nodes: 10, Time: 120 * time.Second}, l)
	assert.NoError(t, l.Validate())
	assert.Error(t, Limits{Iterations: -1}.Validate())
	assert.Error(t, Limits{Time: -time.Second}.Validate())
	assert.Equal(t, DefaultLimits(), Limits{}.WithDefaults())
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "saturated", Saturated.String())
	assert.Equal(t, "node-limit", NodeLimitReached.String())
	assert.Equal(t, "StopReason(42)", StopReason(42).String())
	assert.False(t, Saturated.Limited())
	assert.False(t, GoalReached.Limited())
	assert.True(t, TimeLimitReached.Limited())
}
