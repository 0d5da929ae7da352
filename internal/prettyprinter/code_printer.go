package prettyprinter

import (
	"bytes"
	"strings"

	"github.com/funvibe/opcheck/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3,
	"!=": 3,
	"<":  3,
	">":  3,
	"<=": 3,
	">=": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"<<": 7,
	">>": 7,
	"+":  8,
	"-":  8,
	"*":  9,
	"/":  9,
	"%":  9,
}

const (
	assignPrecedence = 0
	prefixPrecedence = 10
	// Method calls and field access bind tighter than any operator.
	postfixPrecedence = 11
)

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10 // Default high precedence for unknown ops
}

// Comparisons do not chain: a == b == c needs parentheses on either side.
var nonAssoc = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

type CodePrinter struct {
	buf bytes.Buffer
	// keepParens prints ParenExpression nodes as written instead of
	// recomputing the minimal grouping.
	keepParens bool
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Print renders expr with the minimal parentheses its structure requires.
func Print(expr ast.Expression) string {
	p := NewCodePrinter()
	p.printExpr(expr, assignPrecedence, false)
	return p.String()
}

// Receiver renders expr so that a method call can be appended to it,
// e.g. `(a + b)` for `(a + b).to_owned()`.
func Receiver(expr ast.Expression) string {
	p := NewCodePrinter()
	p.printExpr(expr, postfixPrecedence, false)
	return p.String()
}

// Operand renders expr as the operand of a prefix operator such as `*`.
func Operand(expr ast.Expression) string {
	p := NewCodePrinter()
	p.printExpr(expr, prefixPrecedence, false)
	return p.String()
}

// NeedsParens reports whether expr must be wrapped before a method call
// can be appended to it.
func NeedsParens(expr ast.Expression) bool {
	return precedenceOf(ast.Unparen(expr)) < postfixPrecedence
}

func precedenceOf(expr ast.Expression) int {
	switch e := expr.(type) {
	case *ast.InfixExpression:
		return getPrecedence(e.Operator)
	case *ast.AssignOpExpression:
		return assignPrecedence
	case *ast.PrefixExpression, *ast.ReferenceExpression:
		return prefixPrecedence
	default:
		return postfixPrecedence
	}
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	switch e := expr.(type) {
	case *ast.ParenExpression:
		if p.keepParens {
			p.write("(")
			p.printExpr(e.Inner, assignPrecedence, false)
			p.write(")")
			return
		}
		p.printExpr(e.Inner, parentPrec, isRight)
	case *ast.InfixExpression:
		prec := getPrecedence(e.Operator)
		needParens := prec < parentPrec
		// For same precedence, check associativity
		if prec == parentPrec && (isRight || nonAssoc[e.Operator]) {
			needParens = true
		}
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.AssignOpExpression:
		needParens := parentPrec > assignPrecedence
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, assignPrecedence+1, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, assignPrecedence, true)
		if needParens {
			p.write(")")
		}
	case *ast.PrefixExpression:
		needParens := parentPrec > prefixPrecedence
		if needParens {
			p.write("(")
		}
		p.write(e.Operator)
		p.printExpr(e.Right, prefixPrecedence, false)
		if needParens {
			p.write(")")
		}
	case *ast.ReferenceExpression:
		needParens := parentPrec > prefixPrecedence
		if needParens {
			p.write("(")
		}
		if e.Mutable {
			p.write("&mut ")
		} else {
			p.write("&")
		}
		p.printExpr(e.Value, prefixPrecedence, false)
		if needParens {
			p.write(")")
		}
	case *ast.CallExpression:
		p.printExpr(e.Function, postfixPrecedence, false)
		p.write("(")
		for i, arg := range e.Arguments {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(arg, assignPrecedence, false)
		}
		p.write(")")
	case *ast.TupleLiteral:
		p.write("(")
		for i, el := range e.Elements {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(el, assignPrecedence, false)
		}
		if len(e.Elements) == 1 {
			p.write(",")
		}
		p.write(")")
	default:
		// Leaves print as written
		p.write(expr.String())
	}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

// Source renders expr keeping the grouping written in the source.
func Source(expr ast.Expression) string {
	p := &CodePrinter{keepParens: true}
	p.printExpr(expr, assignPrecedence, false)
	return strings.TrimSpace(p.String())
}
