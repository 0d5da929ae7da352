package exprcheck

import (
	"fmt"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// placeInfo describes an assignable location. name is set for variables;
// behindRef marks a deref of a shared reference.
type placeInfo struct {
	name      string
	mutable   bool
	behindRef bool
}

// place reports whether expr denotes a memory location: a variable, or a
// deref of a place or of a reference.
func (c *Checker) place(expr ast.Expression) (placeInfo, bool) {
	switch e := expr.(type) {
	case *ast.ParenExpression:
		return c.place(e.Inner)
	case *ast.Identifier:
		sym, ok := c.st.Find(e.Value)
		if !ok || sym.Kind != symbols.VariableSymbol {
			return placeInfo{}, false
		}
		return placeInfo{name: e.Value, mutable: sym.IsMutable}, true
	case *ast.PrefixExpression:
		if e.Operator != "*" {
			return placeInfo{}, false
		}
		if ref, ok := c.infer.Resolve(c.TypeMap[e.Right]).(typesystem.TRef); ok {
			return placeInfo{mutable: ref.Mutable, behindRef: !ref.Mutable}, true
		}
		// Overloaded deref: as mutable as what it derefs
		inner, ok := c.place(e.Right)
		return placeInfo{mutable: inner.mutable}, ok
	}
	return placeInfo{}, false
}

// CheckLhsAssignable reports code at opTok when lhs is not a place, and the
// mutability errors of places that cannot be written.
func (c *Checker) CheckLhsAssignable(lhs ast.Expression, code diagnostics.ErrorCode, opTok token.Token) {
	if typesystem.ReferencesError(c.infer.Resolve(c.TypeMap[lhs])) {
		return
	}
	p, ok := c.place(lhs)
	switch {
	case !ok:
		c.Report(diagnostics.NewError(code, opTok, "invalid left-hand side of assignment").
			WithLabel(ast.StartToken(lhs), "cannot assign to this expression"))
	case p.behindRef:
		c.Report(diagnostics.NewError(diagnostics.ErrAssignBehindRef, ast.StartToken(lhs),
			fmt.Sprintf("cannot assign to `%s`, which is behind a `&` reference", lhs)).
			WithPrimaryLabel("cannot be written"))
	case !p.mutable && p.name != "":
		c.Report(diagnostics.NewError(diagnostics.ErrAssignImmutable, ast.StartToken(lhs),
			fmt.Sprintf("cannot assign twice to immutable variable `%s`", p.name)).
			WithPrimaryLabel("cannot assign twice to immutable variable").
			WithHelp(fmt.Sprintf("consider making this binding mutable: `mut %s`", p.name)))
	}
}
