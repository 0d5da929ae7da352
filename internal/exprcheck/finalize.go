package exprcheck

import (
	"fmt"
	"strings"

	"github.com/funvibe/opcheck/internal/analyzer"
	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// Finalize ends inference for everything checked so far: literals fall
// back to their default types, the remaining obligations are selected, and
// what can never hold or never be known is reported.
func (c *Checker) Finalize() {
	c.infer.SelectWherePossible()
	c.infer.Fallback()
	c.infer.SelectWherePossible()

	for _, ob := range c.infer.Unsatisfied {
		c.reportUnsatisfied(ob.Resolved(c.infer))
	}
	c.infer.Unsatisfied = nil

	// An unknown type after an error is usually a consequence of it.
	if c.Bag.Len() == 0 {
		c.reportUnresolved()
	}
}

func (c *Checker) reportUnsatisfied(ob infer.Obligation) {
	if typesystem.ReferencesError(ob.Self) {
		return
	}
	for _, a := range ob.Args {
		if typesystem.ReferencesError(a) {
			return
		}
	}

	trait := ob.Trait
	if len(ob.Args) > 0 {
		args := make([]string, len(ob.Args))
		for i, a := range ob.Args {
			args[i] = a.String()
		}
		trait += "<" + strings.Join(args, ", ") + ">"
	}
	c.Report(diagnostics.NewError(diagnostics.ErrUnsatisfiedBound, ob.Token,
		fmt.Sprintf("the trait bound `%s` is not satisfied", ob)).
		WithPrimaryLabel(fmt.Sprintf("the trait `%s` is not implemented for `%s`", trait, ob.Self)).
		WithFact("trait", ob.Trait).
		WithFact("self", ob.Self.String()))
}

// reportUnresolved reports each inference variable that is still unbound,
// once, at the innermost expression whose type mentions it.
func (c *Checker) reportUnresolved() {
	seen := make(map[string]bool)
	for _, expr := range c.order {
		for _, tv := range c.infer.Resolve(c.TypeMap[expr]).FreeTypeVariables() {
			if seen[tv.Name] {
				continue
			}
			seen[tv.Name] = true
			diag := diagnostics.NewError(diagnostics.ErrTypeAnnotations, ast.StartToken(expr), "type annotations needed").
				WithPrimaryLabel("cannot infer type")
			if origin, ok := c.infer.Origins[tv.Name]; ok {
				diag.WithNote("the type of the " + origin + " is never constrained")
			}
			c.Report(diag)
		}
	}
}

// TypeOf returns the type recorded for expr with everything inferred so far
// applied.
func (c *Checker) TypeOf(expr ast.Expression) (typesystem.Type, bool) {
	t, ok := c.TypeMap[expr]
	if !ok {
		return nil, false
	}
	return c.infer.Resolve(t), true
}

// AdjustmentsOf returns the adjustments of expr with resolved targets.
func (c *Checker) AdjustmentsOf(expr ast.Expression) []analyzer.Adjustment {
	adjustments := c.Adjustments[expr]
	out := make([]analyzer.Adjustment, len(adjustments))
	for i, a := range adjustments {
		a.Target = c.infer.Resolve(a.Target)
		out[i] = a
	}
	return out
}

// MethodCallOf returns the trait method expr desugars to, resolved.
func (c *Checker) MethodCallOf(expr ast.Expression) (*symbols.MethodCallee, bool) {
	callee, ok := c.MethodCalls[expr]
	if !ok {
		return nil, false
	}
	inputs := make([]typesystem.Type, len(callee.Inputs))
	for i, in := range callee.Inputs {
		inputs[i] = c.infer.Resolve(in)
	}
	return &symbols.MethodCallee{
		Trait:  callee.Trait,
		Method: callee.Method,
		Inputs: inputs,
		Output: c.infer.Resolve(callee.Output),
	}, true
}

// Walk calls fn for expr and its subexpressions, parents first.
func Walk(expr ast.Expression, fn func(ast.Expression)) {
	if expr == nil {
		return
	}
	fn(expr)
	switch e := expr.(type) {
	case *ast.InfixExpression:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case *ast.AssignOpExpression:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case *ast.PrefixExpression:
		Walk(e.Right, fn)
	case *ast.ReferenceExpression:
		Walk(e.Value, fn)
	case *ast.ParenExpression:
		Walk(e.Inner, fn)
	case *ast.CallExpression:
		Walk(e.Function, fn)
		for _, a := range e.Arguments {
			Walk(a, fn)
		}
	case *ast.TupleLiteral:
		for _, el := range e.Elements {
			Walk(el, fn)
		}
	}
}
