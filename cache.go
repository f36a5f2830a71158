package eqsat

import (
	"fmt"
	"time"

	"github.com/gnoverse/eqsat/internal/cache"
	"github.com/gnoverse/eqsat/internal/extract"
	"github.com/gnoverse/eqsat/internal/rewrite"
	"github.com/gnoverse/eqsat/internal/runner"
	"github.com/gnoverse/eqsat/internal/term"
)

// cachedReport is the persisted part of a Report; the inputs come back from
// the job itself.
type cachedReport struct {
	RunID        string
	Best         string
	Cost         uint64
	OriginalCost uint64
	Equivalent   bool
	Stop         int
	Iterations   int
	Nodes        int
	Classes      int
	Elapsed      time.Duration
}

// ResultCache stores batch results on disk so unchanged lines are not
// saturated again. Entries are keyed by the job and by the engine's rules,
// limits and cost function. Engines with a custom cost function bypass the
// cache, since a function value cannot be told apart from another.
type ResultCache struct {
	c *cache.Cache[cachedReport]
}

// OpenResultCache opens or creates the cache in dir. A positive maxAge
// expires older entries.
func OpenResultCache(dir string, maxAge time.Duration) (*ResultCache, error) {
	c, err := cache.New[cachedReport](dir)
	if err != nil {
		return nil, err
	}
	c.SetMaxAge(maxAge)
	return &ResultCache{c: c}, nil
}

func (rc *ResultCache) Len() int {
	return rc.c.Len()
}

func (rc *ResultCache) Flush() error {
	return rc.c.Flush()
}

func (rc *ResultCache) Clear() error {
	return rc.c.InvalidateAll()
}

func (rc *ResultCache) key(e *Engine, job Job) (string, bool) {
	fp, ok := e.fingerprint()
	if !ok {
		return "", false
	}
	right := ""
	if job.Right != nil {
		right = job.Right.String()
	}
	return cache.Key(fp, job.Left.String(), right), true
}

func (rc *ResultCache) get(e *Engine, job Job) (Report, bool) {
	k, ok := rc.key(e, job)
	if !ok {
		return Report{}, false
	}
	cr, ok := rc.c.Get(k)
	if !ok {
		return Report{}, false
	}
	best, err := term.Parse(cr.Best)
	if err != nil {
		return Report{}, false
	}
	return Report{
		RunID:        cr.RunID,
		Input:        job.Left,
		Other:        job.Right,
		Best:         best,
		Cost:         cr.Cost,
		OriginalCost: cr.OriginalCost,
		Equivalent:   cr.Equivalent,
		Stop:         runner.StopReason(cr.Stop),
		Iterations:   cr.Iterations,
		Nodes:        cr.Nodes,
		Classes:      cr.Classes,
		Elapsed:      cr.Elapsed,
	}, true
}

func (rc *ResultCache) put(e *Engine, job Job, r Report) {
	k, ok := rc.key(e, job)
	if !ok {
		return
	}
	rc.c.Set(k, cachedReport{
		RunID:        r.RunID,
		Best:         r.Best.String(),
		Cost:         r.Cost,
		OriginalCost: r.OriginalCost,
		Equivalent:   r.Equivalent,
		Stop:         int(r.Stop),
		Iterations:   r.Iterations,
		Nodes:        r.Nodes,
		Classes:      r.Classes,
		Elapsed:      r.Elapsed,
	})
}

// fingerprint identifies everything besides the input that decides a
// result. The time limit is left out: it only matters for runs that hit it.
// ok is false when the cost function has no stable name.
func (e *Engine) fingerprint() (fp string, ok bool) {
	var cost string
	switch e.cost.(type) {
	case extract.AstSize:
		cost = "size"
	case extract.AstDepth:
		cost = "depth"
	default:
		return "", false
	}
	rules, err := rewrite.Marshal(e.rules)
	if err != nil {
		rules = []byte(fmt.Sprint(e.rules.Names()))
	}
	return cache.Key(
		string(rules),
		fmt.Sprintf("%d/%d", e.limits.Iterations, e.limits.Nodes),
		cost,
	), true
}
