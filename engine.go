package eqsat

import (
	"time"

	"go.uber.org/zap"

	"github.com/gnoverse/eqsat/internal/extract"
	"github.com/gnoverse/eqsat/internal/rewrite"
	"github.com/gnoverse/eqsat/internal/runner"
	"github.com/gnoverse/eqsat/internal/term"
)

// Engine simplifies and compares boolean expressions. It holds only
// immutable configuration: every call builds its own e-graph, so one
// Engine may serve any number of goroutines.
type Engine struct {
	rules   *rewrite.RuleSet
	limits  runner.Limits
	logger  *zap.Logger
	metrics *runner.Metrics
	cost    extract.CostFunction
}

type Option func(*Engine)

// WithRules replaces the built-in boolean-algebra rules.
func WithRules(rs *rewrite.RuleSet) Option {
	return func(e *Engine) {
		if rs != nil {
			e.rules = rs
		}
	}
}

// WithLimits bounds every saturation run. Zero fields keep their default.
func WithLimits(l runner.Limits) Option {
	return func(e *Engine) { e.limits = l.WithDefaults() }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *runner.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCost selects the extraction cost function. The default is AstSize.
func WithCost(cf extract.CostFunction) Option {
	return func(e *Engine) {
		if cf != nil {
			e.cost = cf
		}
	}
}

// New returns an engine with the built-in rules, default limits and
// tree-size cost unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:  rewrite.Default(),
		limits: runner.DefaultLimits(),
		logger: zap.NewNop(),
		cost:   extract.AstSize{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Rules() *rewrite.RuleSet {
	return e.rules
}

func (e *Engine) Limits() runner.Limits {
	return e.limits
}

func (e *Engine) newRunner(opts ...runner.Option) *runner.Runner {
	base := []runner.Option{
		runner.WithLimits(e.limits),
		runner.WithLogger(e.logger),
		runner.WithMetrics(e.metrics),
	}
	return runner.New(e.rules, append(base, opts...)...)
}

// Report describes one simplification or equivalence check.
type Report struct {
	RunID string
	Input term.Expr
	// Other is the second operand of an equivalence check, nil otherwise.
	Other term.Expr

	Best         term.Expr
	Cost         uint64
	OriginalCost uint64
	// Equivalent is set by checks only.
	Equivalent bool

	Stop       runner.StopReason
	Iterations int
	Nodes      int
	Classes    int
	Elapsed    time.Duration
}

// Verify cross-checks the report by truth table. For a simplification it
// reports whether Best is equivalent to Input; for a check, whether Input
// and Other are in fact equivalent.
func (r Report) Verify() (bool, error) {
	if r.Other != nil {
		return term.Equivalent(r.Input, r.Other)
	}
	return term.Equivalent(r.Input, r.Best)
}

// Simplify returns the cheapest expression found equal to expr.
func (e *Engine) Simplify(expr term.Expr) term.Expr {
	return e.SimplifyReport(expr).Best
}

// SimplifyReport saturates a fresh e-graph seeded with expr and extracts
// the cheapest member of its class. Hitting a limit is not an error: the
// best expression found so far is returned.
func (e *Engine) SimplifyReport(expr term.Expr) Report {
	r := e.newRunner()
	root := r.AddRoot(expr)
	stop := r.Run()

	x := extract.New(r.Graph(), e.cost)
	cost, best := x.FindBest(root)
	return e.report(r, stop, Report{
		Input:        expr,
		Best:         best,
		Cost:         cost,
		OriginalCost: extract.TreeCost(e.cost, expr),
	})
}

// CheckEquivalence reports whether a and b were proven equal by the rules
// within the configured limits. False means "not proven", not "different".
func (e *Engine) CheckEquivalence(a, b term.Expr) bool {
	return e.CheckReport(a, b).Equivalent
}

// CheckReport seeds one e-graph with both expressions and saturates until
// their classes merge or a stop condition holds. Best is the cheapest
// member of a's class.
func (e *Engine) CheckReport(a, b term.Expr) Report {
	r := e.newRunner(runner.WithGoal(runner.RootsEquivalent))
	ra := r.AddRoot(a)
	rb := r.AddRoot(b)
	stop := r.Run()

	g := r.Graph()
	x := extract.New(g, e.cost)
	cost, best := x.FindBest(ra)
	return e.report(r, stop, Report{
		Input:        a,
		Other:        b,
		Best:         best,
		Cost:         cost,
		OriginalCost: extract.TreeCost(e.cost, a),
		Equivalent:   g.Find(ra) == g.Find(rb),
	})
}

func (e *Engine) report(r *runner.Runner, stop runner.StopReason, rep Report) Report {
	g := r.Graph()
	rep.RunID = r.ID()
	rep.Stop = stop
	rep.Iterations = len(r.Iterations())
	rep.Nodes = g.NumNodes()
	rep.Classes = g.NumClasses()
	rep.Elapsed = r.Elapsed()
	return rep
}

var defaultEngine = New()

// Simplify runs the default engine: built-in rules, 100 iterations, 30,000
// nodes, two minutes, smallest tree wins.
func Simplify(expr term.Expr) term.Expr {
	return defaultEngine.Simplify(expr)
}

// CheckEquivalence runs the default engine on a and b.
func CheckEquivalence(a, b term.Expr) bool {
	return defaultEngine.CheckEquivalence(a, b)
}
