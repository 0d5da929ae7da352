package token

import "fmt"

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"

	IDENT  TokenType = "IDENT"
	INT    TokenType = "INT"
	FLOAT  TokenType = "FLOAT"
	STRING TokenType = "STRING"
	CHAR   TokenType = "CHAR"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"

	OPERATOR        TokenType = "OPERATOR"
	ASSIGN_OPERATOR TokenType = "ASSIGN_OPERATOR"
	PREFIX          TokenType = "PREFIX"
	AMPERSAND       TokenType = "&"
	LPAREN          TokenType = "("
	RPAREN          TokenType = ")"
	COMMA           TokenType = ","
	MUT             TokenType = "MUT"
	PANIC           TokenType = "PANIC"
	EOF             TokenType = "EOF"
)

// Token is a lexeme with its source position. Line and Column are 1-based;
// the zero Token means "no position".
type Token struct {
	Type   TokenType `json:"type,omitempty" yaml:"type,omitempty"`
	Lexeme string    `json:"lexeme,omitempty" yaml:"lexeme,omitempty"`
	Line   int       `json:"line" yaml:"line"`
	Column int       `json:"column" yaml:"column"`
}

// New creates a token at the given position.
func New(t TokenType, lexeme string, line, column int) Token {
	return Token{Type: t, Lexeme: lexeme, Line: line, Column: column}
}

// HasPosition reports whether the token carries a source position.
func (t Token) HasPosition() bool {
	return t.Line > 0
}

// Pos formats the position as line:column.
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}

// Before reports whether t starts before other.
func (t Token) Before(other Token) bool {
	if t.Line != other.Line {
		return t.Line < other.Line
	}
	return t.Column < other.Column
}
