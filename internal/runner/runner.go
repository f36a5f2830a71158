package runner

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gnoverse/eqsat/internal/egraph"
	"github.com/gnoverse/eqsat/internal/pattern"
	"github.com/gnoverse/eqsat/internal/rewrite"
	"github.com/gnoverse/eqsat/internal/term"
)

// Iteration reports one search/apply/rebuild round.
type Iteration struct {
	Index int
	// Matches counts substitutions found per rule name.
	Matches map[string]int
	// Added counts nodes inserted by instantiating right-hand sides.
	Added int
	// Unions counts merges from rule application and from rebuild.
	Unions  int
	Nodes   int
	Classes int

	SearchTime  time.Duration
	ApplyTime   time.Duration
	RebuildTime time.Duration
}

// Goal is checked after every iteration. When it returns true the run
// stops with GoalReached.
type Goal func(g *egraph.EGraph, roots []egraph.ClassID) bool

// Runner saturates an e-graph with a rule set. A Runner drives one run and
// is not safe for concurrent use; independent runners may run in parallel.
type Runner struct {
	id      string
	rules   []rewrite.Rule
	limits  Limits
	logger  *zap.Logger
	metrics *Metrics
	goal    Goal
	now     func() time.Time

	graph      *egraph.EGraph
	roots      []egraph.ClassID
	iterations []Iteration
	stop       StopReason
	elapsed    time.Duration
}

type Option func(*Runner)

// WithLimits overrides DefaultLimits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(r *Runner) { r.limits = l.WithDefaults() }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithGraph runs on an existing graph instead of a fresh one.
func WithGraph(g *egraph.EGraph) Option {
	return func(r *Runner) {
		if g != nil {
			r.graph = g
		}
	}
}

// WithGoal stops the run early once goal holds.
func WithGoal(goal Goal) Option {
	return func(r *Runner) { r.goal = goal }
}

// RootsEquivalent is a Goal satisfied once every root shares one class.
func RootsEquivalent(g *egraph.EGraph, roots []egraph.ClassID) bool {
	for i := 1; i < len(roots); i++ {
		if g.Find(roots[i]) != g.Find(roots[0]) {
			return false
		}
	}
	return len(roots) > 1
}

// New returns a runner over rules.
func New(rules *rewrite.RuleSet, opts ...Option) *Runner {
	r := &Runner{
		id:     uuid.NewString(),
		rules:  rules.Rules(),
		limits: DefaultLimits(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.graph == nil {
		r.graph = egraph.New()
	}
	return r
}

// ID identifies the run in logs.
func (r *Runner) ID() string {
	return r.id
}

// AddRoot seeds the graph with e and records its class as a root.
func (r *Runner) AddRoot(e term.Expr) egraph.ClassID {
	id := r.graph.AddExpr(e)
	r.roots = append(r.roots, id)
	return id
}

// Roots returns the canonical class of every root in insertion order.
func (r *Runner) Roots() []egraph.ClassID {
	roots := make([]egraph.ClassID, len(r.roots))
	for i, id := range r.roots {
		roots[i] = r.graph.Find(id)
	}
	return roots
}

func (r *Runner) Graph() *egraph.EGraph {
	return r.graph
}

// Iterations returns the per-iteration reports of the last run.
func (r *Runner) Iterations() []Iteration {
	return r.iterations
}

// Stop returns the reason the last run ended, or Running before Run.
func (r *Runner) Stop() StopReason {
	return r.stop
}

// Elapsed returns the wall-clock duration of the last run.
func (r *Runner) Elapsed() time.Duration {
	return r.elapsed
}

// Run saturates the graph until a stop condition holds and returns it.
// Limits are checked between iterations, and the node limit also between
// rules, so a single explosive iteration can overshoot it.
func (r *Runner) Run() StopReason {
	start := r.now()
	r.iterations = r.iterations[:0]
	r.stop = Running

	if r.graph.Pending() {
		r.graph.Rebuild()
	}
	if r.goal != nil && r.goal(r.graph, r.Roots()) {
		r.stop = GoalReached
	}

	for r.stop == Running {
		it, nodeLimitHit := r.step(len(r.iterations))
		r.iterations = append(r.iterations, it)
		r.metrics.observeIteration(it)

		r.logger.Debug("Iteration finished",
			zap.String("run", r.id),
			zap.Int("iteration", it.Index),
			zap.Int("added", it.Added),
			zap.Int("unions", it.Unions),
			zap.Int("nodes", it.Nodes),
			zap.Int("classes", it.Classes),
			zap.Duration("search", it.SearchTime),
			zap.Duration("apply", it.ApplyTime),
			zap.Duration("rebuild", it.RebuildTime),
		)

		r.stop = r.check(it, nodeLimitHit, r.now().Sub(start))
	}

	r.elapsed = r.now().Sub(start)
	r.metrics.observeStop(r.stop, r.graph.NumNodes(), r.elapsed)
	r.logger.Info("Saturation stopped",
		zap.String("run", r.id),
		zap.Stringer("reason", r.stop),
		zap.Int("iterations", len(r.iterations)),
		zap.Int("nodes", r.graph.NumNodes()),
		zap.Int("classes", r.graph.NumClasses()),
		zap.Duration("elapsed", r.elapsed),
	)
	return r.stop
}

func (r *Runner) check(it Iteration, nodeLimitHit bool, elapsed time.Duration) StopReason {
	switch {
	case it.Unions == 0:
		return Saturated
	case nodeLimitHit || it.Nodes > r.limits.Nodes:
		return NodeLimitReached
	case elapsed > r.limits.Time:
		return TimeLimitReached
	case it.Index+1 >= r.limits.Iterations:
		return IterationLimitReached
	case r.goal != nil && r.goal(r.graph, r.Roots()):
		return GoalReached
	}
	return Running
}

type ruleMatches struct {
	rule    rewrite.Rule
	results []pattern.Result
}

// step runs one iteration. Every rule is searched before any is applied,
// so no rule sees this iteration's own rewrites.
func (r *Runner) step(index int) (Iteration, bool) {
	g := r.graph
	it := Iteration{Index: index, Matches: make(map[string]int, len(r.rules))}

	t := r.now()
	found := make([]ruleMatches, 0, len(r.rules))
	for _, rule := range r.rules {
		results := pattern.Search(g, rule.LHS)
		n := 0
		for _, res := range results {
			n += len(res.Substs)
		}
		if n > 0 {
			it.Matches[rule.Name] = n
			found = append(found, ruleMatches{rule: rule, results: results})
		}
	}
	it.SearchTime = r.now().Sub(t)

	t = r.now()
	nodeLimitHit := false
	before := g.NumNodes()
	for _, m := range found {
		for _, res := range m.results {
			for _, s := range res.Substs {
				id := pattern.Instantiate(g, m.rule.RHS, s)
				if _, changed := g.Union(res.Class, id); changed {
					it.Unions++
				}
			}
		}
		if g.NumNodes() > r.limits.Nodes {
			nodeLimitHit = true
			break
		}
	}
	it.Added = g.NumNodes() - before
	it.ApplyTime = r.now().Sub(t)

	t = r.now()
	it.Unions += g.Rebuild()
	it.RebuildTime = r.now().Sub(t)

	it.Nodes = g.NumNodes()
	it.Classes = g.NumClasses()
	return it, nodeLimitHit
}
