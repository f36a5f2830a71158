package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnoverse/eqsat/internal/pattern"
	"github.com/gnoverse/eqsat/internal/term"
)

var (
	// ErrUnboundVar is returned for a rule whose right-hand side uses a
	// variable the left-hand side never binds.
	ErrUnboundVar = errors.New("unbound variable")
	// ErrDuplicateRule is returned when two rules in a set share a name.
	ErrDuplicateRule = errors.New("duplicate rule name")
	// ErrInvalidRule covers the remaining construction failures.
	ErrInvalidRule = errors.New("invalid rule")
)

// ReverseSuffix is appended to the name of the reversed direction of a
// bidirectional rule.
const ReverseSuffix = "-rev"

// Rule rewrites any class matching LHS by adding RHS, instantiated with the
// same bindings, to that class.
type Rule struct {
	Name string
	LHS  pattern.Pattern
	RHS  pattern.Pattern
}

// NewRule validates and returns a rule. Every variable of rhs must occur
// in lhs, and lhs must not be a bare variable.
func NewRule(name string, lhs, rhs pattern.Pattern) (Rule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Rule{}, fmt.Errorf("%w: empty name", ErrInvalidRule)
	}
	if lhs == nil || rhs == nil {
		return Rule{}, fmt.Errorf("%w: rule %q: missing side", ErrInvalidRule, name)
	}
	if _, ok := lhs.(pattern.Var); ok {
		return Rule{}, fmt.Errorf("%w: rule %q: left-hand side %s matches every class", ErrInvalidRule, name, lhs)
	}

	bound := make(map[string]bool)
	for _, v := range pattern.Vars(lhs) {
		bound[v] = true
	}
	for _, v := range pattern.Vars(rhs) {
		if !bound[v] {
			return Rule{}, fmt.Errorf("%w: rule %q: %s%s", ErrUnboundVar, name, pattern.VarPrefix, v)
		}
	}
	return Rule{Name: name, LHS: lhs, RHS: rhs}, nil
}

// ParseRule parses both sides and calls NewRule.
func ParseRule(name, lhs, rhs string) (Rule, error) {
	l, err := pattern.Parse(lhs)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: lhs: %w", name, err)
	}
	r, err := pattern.Parse(rhs)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: rhs: %w", name, err)
	}
	return NewRule(name, l, r)
}

// MustRule is like ParseRule but panics on error.
func MustRule(name, lhs, rhs string) Rule {
	r, err := ParseRule(name, lhs, rhs)
	if err != nil {
		panic(err)
	}
	return r
}

// Bidirectional returns a => b named name and b => a named name-rev. Both
// sides must bind the same variables.
func Bidirectional(name string, a, b pattern.Pattern) ([]Rule, error) {
	fwd, err := NewRule(name, a, b)
	if err != nil {
		return nil, err
	}
	rev, err := NewRule(name+ReverseSuffix, b, a)
	if err != nil {
		return nil, err
	}
	return []Rule{fwd, rev}, nil
}

func (r Rule) String() string {
	return fmt.Sprintf("%s: %s => %s", r.Name, r.LHS, r.RHS)
}

// Sound checks r by truth table: each variable is replaced with a distinct
// fresh symbol and both sides must agree under every assignment.
func (r Rule) Sound() (bool, error) {
	bind := func(name string) term.Expr { return term.Sym{Name: "v_" + name} }
	l, err := pattern.Ground(r.LHS, bind)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	rhs, err := pattern.Ground(r.RHS, bind)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	return term.Equivalent(l, rhs)
}
