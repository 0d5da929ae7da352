package ast

import (
	"github.com/funvibe/opcheck/internal/token"
)

// InfixExpression represents a binary operation: left <op> right.
type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

// AssignOpExpression represents a compound assignment: left <op>= right.
// Operator holds the full spelling, e.g. "+=".
type AssignOpExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ae *AssignOpExpression) expressionNode()      {}
func (ae *AssignOpExpression) TokenLiteral() string { return ae.Token.Lexeme }
func (ae *AssignOpExpression) GetToken() token.Token {
	if ae == nil {
		return token.Token{}
	}
	return ae.Token
}

// PrefixExpression represents -x, !x and *x.
type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}

// ReferenceExpression represents &x or &mut x.
type ReferenceExpression struct {
	Token   token.Token // '&'
	Mutable bool
	Value   Expression
}

func (re *ReferenceExpression) expressionNode()      {}
func (re *ReferenceExpression) TokenLiteral() string { return re.Token.Lexeme }
func (re *ReferenceExpression) GetToken() token.Token {
	if re == nil {
		return token.Token{}
	}
	return re.Token
}

// CallExpression represents f(args...).
type CallExpression struct {
	Token     token.Token // '('
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token {
	if ce == nil {
		return token.Token{}
	}
	return ce.Token
}

// ParenExpression keeps explicit grouping from the source.
type ParenExpression struct {
	Token token.Token // '('
	Inner Expression
}

func (pe *ParenExpression) expressionNode()      {}
func (pe *ParenExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *ParenExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}

// StartToken returns the token of the leftmost source position of e.
// Infix and call nodes carry their operator token, so the start is found
// by walking down the left spine.
func StartToken(e Expression) token.Token {
	switch n := e.(type) {
	case *InfixExpression:
		return StartToken(n.Left)
	case *AssignOpExpression:
		return StartToken(n.Left)
	case *CallExpression:
		return StartToken(n.Function)
	case nil:
		return token.Token{}
	default:
		return e.GetToken()
	}
}

// Unparen strips any number of explicit parentheses.
func Unparen(e Expression) Expression {
	for {
		p, ok := e.(*ParenExpression)
		if !ok {
			return e
		}
		e = p.Inner
	}
}
