package term

import (
	"errors"
	"fmt"
)

// MaxTruthTableSymbols bounds the number of distinct symbols Equivalent
// will enumerate (2^n assignments).
const MaxTruthTableSymbols = 20

var (
	// ErrUnboundSymbol is returned when an assignment lacks a symbol.
	ErrUnboundSymbol = errors.New("unbound symbol")
	// ErrTooManySymbols is returned when a truth table would be too large.
	ErrTooManySymbols = errors.New("too many symbols for truth table")
)

// Env assigns truth values to symbols.
type Env map[string]bool

// Eval evaluates e under env.
func Eval(e Expr, env Env) (bool, error) {
	switch e := e.(type) {
	case Sym:
		v, ok := env[e.Name]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrUnboundSymbol, e.Name)
		}
		return v, nil

	case Bool:
		return e.Val, nil

	case Not:
		x, err := Eval(e.X, env)
		if err != nil {
			return false, err
		}
		return !x, nil

	case And, Or, Implies, Iff:
		args := e.Args()
		l, err := Eval(args[0], env)
		if err != nil {
			return false, err
		}
		r, err := Eval(args[1], env)
		if err != nil {
			return false, err
		}
		return evalBinary(e.Op(), l, r), nil

	default:
		return false, fmt.Errorf("cannot evaluate %T", e)
	}
}

func evalBinary(op Op, l, r bool) bool {
	switch op {
	case OpAnd:
		return l && r
	case OpOr:
		return l || r
	case OpImplies:
		return !l || r
	case OpIff:
		return l == r
	default:
		panic(fmt.Sprintf("term: %v is not a binary connective", op))
	}
}

// Equivalent decides semantic equivalence of a and b by enumerating every
// assignment of their symbols. It is exponential and only meant to
// cross-check rewriting results on small inputs.
func Equivalent(a, b Expr) (bool, error) {
	names := Symbols(a)
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	for _, n := range Symbols(b) {
		if _, ok := seen[n]; !ok {
			names = append(names, n)
		}
	}
	if len(names) > MaxTruthTableSymbols {
		return false, fmt.Errorf("%w: %d > %d", ErrTooManySymbols, len(names), MaxTruthTableSymbols)
	}

	env := make(Env, len(names))
	for mask := uint64(0); mask < 1<<len(names); mask++ {
		for i, n := range names {
			env[n] = mask&(1<<i) != 0
		}
		va, err := Eval(a, env)
		if err != nil {
			return false, err
		}
		vb, err := Eval(b, env)
		if err != nil {
			return false, err
		}
		if va != vb {
			return false, nil
		}
	}
	return true, nil
}
