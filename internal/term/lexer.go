package term

import (
	"fmt"
	"unicode"
)

// TokenType defines the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenAtom
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenAtom:
		return "Atom"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token of an s-expression.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// SyntaxError reports malformed s-expression input.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

// Lex splits input into parentheses and atoms. An atom is any run of
// characters that is neither whitespace nor a parenthesis, so operator
// tokens such as "<=>" and pattern variables such as "?p" lex as atoms.
// A ';' starts a comment that runs to the end of the line.
func Lex(input string) ([]Token, error) {
	var tokens []Token

	line, col := 1, 1
	i := 0

	advance := func() {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i++
	}

	for i < len(input) {
		c := input[i]

		switch {
		case isWhitespace(c):
			advance()

		case c == ';':
			for i < len(input) && input[i] != '\n' {
				advance()
			}

		case c == '(':
			tokens = append(tokens, Token{Type: TokenLParen, Value: "(", Line: line, Col: col})
			advance()

		case c == ')':
			tokens = append(tokens, Token{Type: TokenRParen, Value: ")", Line: line, Col: col})
			advance()

		default:
			startLine, startCol, start := line, col, i
			for i < len(input) && isAtomChar(input[i]) {
				advance()
			}
			if start == i {
				return nil, &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			tokens = append(tokens, Token{Type: TokenAtom, Value: input[start:i], Line: startLine, Col: startCol})
		}
	}

	tokens = append(tokens, Token{Type: TokenEOF, Line: line, Col: col})
	return tokens, nil
}

func isAtomChar(c byte) bool {
	return c > ' ' && c != '(' && c != ')' && c != ';' && c < 0x7f
}

func isWhitespace(c byte) bool {
	return unicode.IsSpace(rune(c))
}

// IsIdentifier reports whether s is usable as a symbol or variable name.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := rune(s[i])
		if c == '_' || unicode.IsLetter(c) || (i > 0 && (unicode.IsDigit(c) || c == '\'' || c == '-')) {
			continue
		}
		return false
	}
	return true
}
