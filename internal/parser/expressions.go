package parser

import (
	"unicode/utf8"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		if len(p.errors) == 0 {
			p.errorf(p.curToken, "expression too complex: recursion depth limit exceeded")
		}
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.unexpected(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit, err := ParseNumber(p.curToken, p.curToken.Lexeme, AnyLiteral)
	if err != nil {
		p.errors = append(p.errors, err)
		return nil
	}
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseCharLiteral() ast.Expression {
	r, _ := utf8.DecodeRuneInString(p.curToken.Lexeme)
	return &ast.CharLiteral{Token: p.curToken, Value: r}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parsePanicExpression() ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.LPAREN) || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.PanicExpression{Token: tok}
}

// parseOperatorPrefix handles operator tokens in prefix position: `-x`,
// `*x`, and `&&x`, which borrows twice.
func (p *Parser) parseOperatorPrefix() ast.Expression {
	switch p.curToken.Lexeme {
	case "-", "*":
		return p.parsePrefixExpression()
	case "&&":
		outer := p.curToken
		outer.Type, outer.Lexeme = token.AMPERSAND, "&"
		inner := outer
		inner.Column++
		ref := p.parseReferenceBody(inner)
		if ref == nil {
			return nil
		}
		return &ast.ReferenceExpression{Token: outer, Value: ref}
	}
	p.errorf(p.curToken, "expected expression, found `%s`", p.curToken.Lexeme)
	return nil
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.curToken
	tok.Type = token.PREFIX
	expression := &ast.PrefixExpression{Token: tok, Operator: tok.Lexeme}
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseReferenceExpression() ast.Expression {
	return p.parseReferenceBody(p.curToken)
}

// parseReferenceBody parses the rest of a borrow whose `&` is tok.
func (p *Parser) parseReferenceBody(tok token.Token) ast.Expression {
	ref := &ast.ReferenceExpression{Token: tok}
	if p.peekTokenIs(token.MUT) {
		p.nextToken()
		ref.Mutable = true
	}
	p.nextToken()
	ref.Value = p.parseExpression(PREFIX)
	if ref.Value == nil {
		return nil
	}
	return ref
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	tok.Type = token.OPERATOR
	expression := &ast.InfixExpression{Token: tok, Operator: tok.Lexeme, Left: left}

	precedence := p.curPrecedence()
	if precedence == EQUALS && isComparison(left) {
		p.errorf(tok, "comparison operators cannot be chained")
		return nil
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func isComparison(e ast.Expression) bool {
	infix, ok := e.(*ast.InfixExpression)
	return ok && precedences[infix.Operator] == EQUALS
}

// parseAssignExpression parses compound assignment, which is right
// associative: `a += b -= c` is `a += (b -= c)`.
func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	expression := &ast.AssignOpExpression{Token: p.curToken, Operator: p.curToken.Lexeme, Left: left}
	p.nextToken()
	expression.Right = p.parseExpression(ASSIGN - 1)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Function: function}
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	call.Arguments = args
	return call
}

// parseExpressionList parses comma separated expressions after the current
// opening token up to end. A trailing comma is allowed.
func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Expression, bool) {
	list := []ast.Expression{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}
	for {
		p.nextToken()
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil, false
		}
		list = append(list, elem)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

// parseGroupedExpression parses `()`, `(e)` and tuples `(a, b)`, `(a,)`.
func (p *Parser) parseGroupedExpression() ast.Expression {
	startToken := p.curToken

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.TupleLiteral{Token: startToken, Elements: []ast.Expression{}}
	}

	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if p.peekTokenIs(token.COMMA) {
		elements := []ast.Expression{exp}
		p.nextToken()
		if !p.peekTokenIs(token.RPAREN) {
			rest, ok := p.parseExpressionList(token.RPAREN)
			if !ok {
				return nil
			}
			elements = append(elements, rest...)
		} else {
			p.nextToken()
		}
		return &ast.TupleLiteral{Token: startToken, Elements: elements}
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.ParenExpression{Token: startToken, Inner: exp}
}
