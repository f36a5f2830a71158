package term

import "fmt"

// SExp is an untyped s-expression: either an atom or a parenthesised list.
// Both term and pattern parsing start from this shape.
type SExp struct {
	Atom string
	List []SExp
	Line int
	Col  int
}

// IsAtom reports whether s is an atom rather than a list.
func (s SExp) IsAtom() bool {
	return s.List == nil && s.Atom != ""
}

// Errorf builds a *SyntaxError positioned at s.
func (s SExp) Errorf(format string, args ...any) error {
	return &SyntaxError{Line: s.Line, Col: s.Col, Msg: fmt.Sprintf(format, args...)}
}

// Parser consumes tokens produced by Lex and builds s-expressions.
type Parser struct {
	tokens  []Token
	current int
}

// NewParser creates a new Parser instance
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseSExp lexes and parses exactly one s-expression from input.
func ParseSExp(input string) (SExp, error) {
	tokens, err := Lex(input)
	if err != nil {
		return SExp{}, err
	}
	p := NewParser(tokens)
	s, err := p.Parse()
	if err != nil {
		return SExp{}, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return SExp{}, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("unexpected %q after expression", tok.Value)}
	}
	return s, nil
}

// Parse reads the next s-expression.
func (p *Parser) Parse() (SExp, error) {
	tok := p.next()
	switch tok.Type {
	case TokenAtom:
		return SExp{Atom: tok.Value, Line: tok.Line, Col: tok.Col}, nil

	case TokenLParen:
		list := SExp{List: []SExp{}, Line: tok.Line, Col: tok.Col}
		for {
			switch p.peek().Type {
			case TokenRParen:
				p.next()
				if len(list.List) == 0 {
					return SExp{}, list.Errorf("empty list")
				}
				return list, nil
			case TokenEOF:
				return SExp{}, list.Errorf("unclosed '('")
			}
			child, err := p.Parse()
			if err != nil {
				return SExp{}, err
			}
			list.List = append(list.List, child)
		}

	case TokenRParen:
		return SExp{}, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: "unexpected ')'"}

	default:
		return SExp{}, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: "unexpected end of input"}
	}
}

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) next() Token {
	tok := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}
	return tok
}

// Parse parses an expression such as "(* p (~ q))".
func Parse(input string) (Expr, error) {
	s, err := ParseSExp(input)
	if err != nil {
		return nil, err
	}
	return FromSExp(s)
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(fmt.Sprintf("term: parse %q: %v", input, err))
	}
	return e
}

// FromSExp converts an untyped s-expression into an expression tree.
func FromSExp(s SExp) (Expr, error) {
	if s.IsAtom() {
		return atomExpr(s)
	}

	head := s.List[0]
	if !head.IsAtom() {
		return nil, head.Errorf("operator expected")
	}
	op, ok := LookupOp(head.Atom)
	if !ok {
		return nil, head.Errorf("unknown operator %q", head.Atom)
	}

	args := make([]Expr, 0, len(s.List)-1)
	for _, child := range s.List[1:] {
		arg, err := FromSExp(child)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	e, err := Build(op, "", args)
	if err != nil {
		return nil, fmt.Errorf("line %d col %d: %w", s.Line, s.Col, err)
	}
	return e, nil
}

func atomExpr(s SExp) (Expr, error) {
	switch s.Atom {
	case "true":
		return Bool{Val: true}, nil
	case "false":
		return Bool{Val: false}, nil
	}
	if _, isOp := LookupOp(s.Atom); isOp {
		return nil, s.Errorf("operator %q used as operand", s.Atom)
	}
	if !IsIdentifier(s.Atom) {
		return nil, s.Errorf("invalid symbol %q", s.Atom)
	}
	return Sym{Name: s.Atom}, nil
}
