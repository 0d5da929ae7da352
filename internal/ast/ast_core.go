package ast

import (
	"github.com/funvibe/opcheck/internal/token"
)

// TokenProvider is implemented by nodes that carry a source token.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	TokenProvider
	expressionNode()
}

// Identifier represents an identifier, e.g., a variable name.
type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token {
	if i == nil {
		return token.Token{}
	}
	return i.Token
}

// IntegerLiteral represents an integer literal. Suffix is the explicit
// type suffix (e.g. "u8" in 3u8), empty when the type is to be inferred.
type IntegerLiteral struct {
	Token  token.Token
	Value  string
	Suffix string
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token {
	if il == nil {
		return token.Token{}
	}
	return il.Token
}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	Token  token.Token
	Value  string
	Suffix string
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token {
	if fl == nil {
		return token.Token{}
	}
	return fl.Token
}

// BooleanLiteral represents boolean literals true/false.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Lexeme }
func (b *BooleanLiteral) GetToken() token.Token {
	if b == nil {
		return token.Token{}
	}
	return b.Token
}

// StringLiteral is a string slice literal, typed &str.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token {
	if sl == nil {
		return token.Token{}
	}
	return sl.Token
}

type CharLiteral struct {
	Token token.Token
	Value rune
}

func (cl *CharLiteral) expressionNode()      {}
func (cl *CharLiteral) TokenLiteral() string { return cl.Token.Lexeme }
func (cl *CharLiteral) GetToken() token.Token {
	if cl == nil {
		return token.Token{}
	}
	return cl.Token
}

// TupleLiteral represents (a, b, ...). An empty tuple is unit.
type TupleLiteral struct {
	Token    token.Token // '('
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()      {}
func (tl *TupleLiteral) TokenLiteral() string { return tl.Token.Lexeme }
func (tl *TupleLiteral) GetToken() token.Token {
	if tl == nil {
		return token.Token{}
	}
	return tl.Token
}

// PanicExpression is a diverging expression of type !.
type PanicExpression struct {
	Token token.Token
}

func (pe *PanicExpression) expressionNode()      {}
func (pe *PanicExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PanicExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}
