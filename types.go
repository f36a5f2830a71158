package eqsat

import (
	"github.com/gnoverse/eqsat/internal/extract"
	"github.com/gnoverse/eqsat/internal/runner"
	"github.com/gnoverse/eqsat/internal/term"
)

type (
	// Expr is a boolean expression tree.
	Expr = term.Expr

	Limits       = runner.Limits
	StopReason   = runner.StopReason
	CostFunction = extract.CostFunction
)

const (
	Saturated             = runner.Saturated
	IterationLimitReached = runner.IterationLimitReached
	NodeLimitReached      = runner.NodeLimitReached
	TimeLimitReached      = runner.TimeLimitReached
	GoalReached           = runner.GoalReached
)

// Parse reads an s-expression such as "(=> p (* q r))".
func Parse(src string) (Expr, error) {
	return term.Parse(src)
}

// MustParse is like Parse but panics on malformed input.
func MustParse(src string) Expr {
	return term.MustParse(src)
}

// DefaultLimits returns 100 iterations, 30,000 nodes and two minutes.
func DefaultLimits() Limits {
	return runner.DefaultLimits()
}
