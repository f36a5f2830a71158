package term

import (
	"errors"
	"fmt"
	"strings"
)

// ErrArity is returned when an operator is given the wrong number of operands.
var ErrArity = errors.New("arity mismatch")

// Expr is a boolean-algebra expression tree.
// Every variant carries exactly its operator's arity worth of children.
type Expr interface {
	isExpr()
	Op() Op
	Args() []Expr
	String() string
}

var (
	_ Expr = Sym{}
	_ Expr = Bool{}
	_ Expr = Not{}
	_ Expr = And{}
	_ Expr = Or{}
	_ Expr = Implies{}
	_ Expr = Iff{}
)

// Sym is a propositional variable.
type Sym struct {
	Name string
}

func (Sym) isExpr() {}
func (Sym) Op() Op { return OpSymbol }
func (Sym) Args() []Expr { return nil }
func (e Sym) String() string { return e.Name }

// Bool is the constant true or false.
type Bool struct {
	Val bool
}

func (Bool) isExpr() {}
func (Bool) Op() Op { return OpConst }
func (Bool) Args() []Expr { return nil }
func (e Bool) String() string {
	if e.Val {
		return "true"
	}
	return "false"
}

// Not is negation.
type Not struct {
	X Expr
}

func (Not) isExpr() {}
func (Not) Op() Op { return OpNot }
func (e Not) Args() []Expr { return []Expr{e.X} }
func (e Not) String() string { return format(OpNot, e.X) }

// And is conjunction.
type And struct {
	L, R Expr
}

func (And) isExpr() {}
func (And) Op() Op { return OpAnd }
func (e And) Args() []Expr { return []Expr{e.L, e.R} }
func (e And) String() string { return format(OpAnd, e.L, e.R) }

// Or is disjunction.
type Or struct {
	L, R Expr
}

func (Or) isExpr() {}
func (Or) Op() Op { return OpOr }
func (e Or) Args() []Expr { return []Expr{e.L, e.R} }
func (e Or) String() string { return format(OpOr, e.L, e.R) }

// Implies is material implication.
type Implies struct {
	L, R Expr
}

func (Implies) isExpr() {}
func (Implies) Op() Op { return OpImplies }
func (e Implies) Args() []Expr { return []Expr{e.L, e.R} }
func (e Implies) String() string { return format(OpImplies, e.L, e.R) }

// Iff is biimplication.
type Iff struct {
	L, R Expr
}

func (Iff) isExpr() {}
func (Iff) Op() Op { return OpIff }
func (e Iff) Args() []Expr { return []Expr{e.L, e.R} }
func (e Iff) String() string { return format(OpIff, e.L, e.R) }

func format(op Op, args ...Expr) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(op.String())
	for _, arg := range args {
		sb.WriteString(" ")
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Build constructs the variant for op. Leaf holds the symbol name for
// OpSymbol and "true"/"false" for OpConst; it must be empty otherwise.
func Build(op Op, leaf string, args []Expr) (Expr, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operator %v", op)
	}
	if len(args) != op.Arity() {
		return nil, fmt.Errorf("%w: %s expects %d operand(s), got %d", ErrArity, op, op.Arity(), len(args))
	}

	switch op {
	case OpSymbol:
		if leaf == "" {
			return nil, fmt.Errorf("symbol without a name")
		}
		return Sym{Name: leaf}, nil
	case OpConst:
		switch leaf {
		case "true":
			return Bool{Val: true}, nil
		case "false":
			return Bool{Val: false}, nil
		default:
			return nil, fmt.Errorf("invalid constant %q", leaf)
		}
	case OpNot:
		return Not{X: args[0]}, nil
	case OpAnd:
		return And{L: args[0], R: args[1]}, nil
	case OpOr:
		return Or{L: args[0], R: args[1]}, nil
	case OpImplies:
		return Implies{L: args[0], R: args[1]}, nil
	case OpIff:
		return Iff{L: args[0], R: args[1]}, nil
	default:
		return nil, fmt.Errorf("unknown operator %v", op)
	}
}

// Leaf returns the leaf payload of e: the symbol name, "true"/"false" for
// constants and "" for interior nodes.
func Leaf(e Expr) string {
	switch e := e.(type) {
	case Sym:
		return e.Name
	case Bool:
		return e.String()
	default:
		return ""
	}
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Expr) bool {
	if a.Op() != b.Op() || Leaf(a) != Leaf(b) {
		return false
	}
	aa, ba := a.Args(), b.Args()
	for i := range aa {
		if !Equal(aa[i], ba[i]) {
			return false
		}
	}
	return true
}

// Size returns the number of nodes in e.
func Size(e Expr) int {
	n := 1
	for _, arg := range e.Args() {
		n += Size(arg)
	}
	return n
}

// Depth returns the height of e; leaves have depth 1.
func Depth(e Expr) int {
	d := 0
	for _, arg := range e.Args() {
		if ad := Depth(arg); ad > d {
			d = ad
		}
	}
	return d + 1
}

// Symbols returns the distinct symbol names in e in first-occurrence order.
func Symbols(e Expr) []string {
	seen := make(map[string]struct{})
	var names []string
	var walk func(Expr)
	walk = func(e Expr) {
		if s, ok := e.(Sym); ok {
			if _, dup := seen[s.Name]; !dup {
				seen[s.Name] = struct{}{}
				names = append(names, s.Name)
			}
			return
		}
		for _, arg := range e.Args() {
			walk(arg)
		}
	}
	walk(e)
	return names
}
