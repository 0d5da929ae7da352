package parser

import (
	"fmt"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/lexer"
	"github.com/funvibe/opcheck/internal/token"
)

// MaxRecursionDepth bounds expression nesting.
const MaxRecursionDepth = 256

// Operator precedences, lowest first.
const (
	_ int = iota
	LOWEST
	ASSIGN    // += -= <<= ...
	LOGIC_OR  // ||
	LOGIC_AND // &&
	EQUALS    // == != < > <= >=
	BIT_OR    // |
	BIT_XOR   // ^
	BIT_AND   // &
	SHIFT     // << >>
	SUM       // + -
	PRODUCT   // * / %
	PREFIX    // -x !x *x &x
	CALL      // f(x)
)

var precedences = map[string]int{
	"||": LOGIC_OR,
	"&&": LOGIC_AND,
	"==": EQUALS, "!=": EQUALS, "<": EQUALS, ">": EQUALS, "<=": EQUALS, ">=": EQUALS,
	"|":  BIT_OR,
	"^":  BIT_XOR,
	"&":  BIT_AND,
	"<<": SHIFT, ">>": SHIFT,
	"+": SUM, "-": SUM,
	"*": PRODUCT, "/": PRODUCT, "%": PRODUCT,
}

// Error is a syntax error at a token.
type Error struct {
	Token token.Token
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Token.Pos(), e.Msg)
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	errors []*Error
	depth  int

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:     p.parseIdentifier,
		token.INT:       p.parseNumberLiteral,
		token.STRING:    p.parseStringLiteral,
		token.CHAR:      p.parseCharLiteral,
		token.TRUE:      p.parseBoolean,
		token.FALSE:     p.parseBoolean,
		token.LPAREN:    p.parseGroupedExpression,
		token.AMPERSAND: p.parseReferenceExpression,
		token.OPERATOR:  p.parseOperatorPrefix,
		token.PREFIX:    p.parsePrefixExpression,
		token.PANIC:     p.parsePanicExpression,
	}
	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.OPERATOR:        p.parseInfixExpression,
		token.AMPERSAND:       p.parseInfixExpression,
		token.ASSIGN_OPERATOR: p.parseAssignExpression,
		token.LPAREN:          p.parseCallExpression,
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

// ParseExpression parses src as a single expression whose first character
// is at line:column.
func ParseExpression(src string, line, column int) (ast.Expression, error) {
	p := New(lexer.NewAt(src, line, column))
	expr := p.parseExpression(LOWEST)
	if len(p.errors) == 0 && !p.peekTokenIs(token.EOF) {
		p.unexpected(p.peekToken)
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

// Errors returns the syntax errors found so far.
func (p *Parser) Errors() []*Error {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.unexpected(p.peekToken)
	return false
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, &Error{Token: tok, Msg: fmt.Sprintf(format, args...)})
}

// unexpected reports tok where it cannot appear.
func (p *Parser) unexpected(tok token.Token) {
	switch tok.Type {
	case token.ILLEGAL:
		p.errorf(tok, "%s", tok.Lexeme)
	case token.EOF:
		p.errorf(tok, "unexpected end of expression")
	default:
		p.errorf(tok, "unexpected `%s`", tok.Lexeme)
	}
}

func tokenPrecedence(tok token.Token) int {
	switch tok.Type {
	case token.OPERATOR, token.AMPERSAND:
		if p, ok := precedences[tok.Lexeme]; ok {
			return p
		}
	case token.ASSIGN_OPERATOR:
		return ASSIGN
	case token.LPAREN:
		return CALL
	}
	return LOWEST
}

func (p *Parser) peekPrecedence() int {
	return tokenPrecedence(p.peekToken)
}

func (p *Parser) curPrecedence() int {
	return tokenPrecedence(p.curToken)
}
