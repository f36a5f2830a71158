package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnoverse/eqsat/internal/term"
)

// ErrSyntax is wrapped by every error Parse returns.
var ErrSyntax = errors.New("pattern syntax")

// VarPrefix marks a pattern variable: "?x" binds any class.
const VarPrefix = "?"

// Pattern is a term tree whose leaves may be variables.
type Pattern interface {
	isPattern()
	String() string
}

var (
	_ Pattern = Var{}
	_ Pattern = Node{}
)

// Var matches any class and binds it to Name. Name excludes the '?' prefix.
type Var struct {
	Name string
}

func (Var) isPattern() {}
func (v Var) String() string { return VarPrefix + v.Name }

// Node matches a node with the same operator and leaf whose children match
// Args position by position.
type Node struct {
	Op   term.Op
	Leaf string
	Args []Pattern
}

func (Node) isPattern() {}

func (n Node) String() string {
	if n.Op.IsLeaf() {
		return n.Leaf
	}
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(n.Op.String())
	for _, arg := range n.Args {
		sb.WriteString(" ")
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Parse reads a pattern in term syntax extended with ?name variables,
// e.g. "(* ?a (~ ?a))".
func Parse(src string) (Pattern, error) {
	s, err := term.ParseSExp(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	p, err := fromSExp(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) Pattern {
	p, err := Parse(src)
	if err != nil {
		panic(fmt.Sprintf("pattern: parse %q: %v", src, err))
	}
	return p
}

func fromSExp(s term.SExp) (Pattern, error) {
	if s.IsAtom() {
		if name, ok := strings.CutPrefix(s.Atom, VarPrefix); ok {
			if !term.IsIdentifier(name) {
				return nil, s.Errorf("invalid variable %q", s.Atom)
			}
			return Var{Name: name}, nil
		}
		e, err := term.FromSExp(s)
		if err != nil {
			return nil, err
		}
		return FromExpr(e), nil
	}

	head := s.List[0]
	if !head.IsAtom() {
		return nil, head.Errorf("operator expected")
	}
	op, ok := term.LookupOp(head.Atom)
	if !ok {
		return nil, head.Errorf("unknown operator %q", head.Atom)
	}
	if want := op.Arity(); want != len(s.List)-1 {
		return nil, fmt.Errorf("line %d col %d: %w: %s expects %d operand(s), got %d",
			s.Line, s.Col, term.ErrArity, op, want, len(s.List)-1)
	}

	args := make([]Pattern, 0, len(s.List)-1)
	for _, child := range s.List[1:] {
		arg, err := fromSExp(child)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return Node{Op: op, Args: args}, nil
}

// FromExpr lifts a ground expression into a variable-free pattern.
func FromExpr(e term.Expr) Pattern {
	args := e.Args()
	n := Node{Op: e.Op(), Leaf: term.Leaf(e)}
	if len(args) > 0 {
		n.Args = make([]Pattern, len(args))
		for i, arg := range args {
			n.Args[i] = FromExpr(arg)
		}
	}
	return n
}

// Vars returns the variable names of p in first-occurrence order.
func Vars(p Pattern) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch p := p.(type) {
		case Var:
			if !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		case Node:
			for _, arg := range p.Args {
				walk(arg)
			}
		}
	}
	walk(p)
	return names
}

// Ground replaces every variable of p with bind(name) and returns the
// resulting expression.
func Ground(p Pattern, bind func(name string) term.Expr) (term.Expr, error) {
	switch p := p.(type) {
	case Var:
		e := bind(p.Name)
		if e == nil {
			return nil, fmt.Errorf("unbound variable %s", p)
		}
		return e, nil
	case Node:
		args := make([]term.Expr, len(p.Args))
		for i, arg := range p.Args {
			e, err := Ground(arg, bind)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		return term.Build(p.Op, p.Leaf, args)
	default:
		return nil, fmt.Errorf("unexpected pattern %T", p)
	}
}
