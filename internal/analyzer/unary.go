package analyzer

import (
	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// CheckUnary checks `op operand`.
func (c *OperatorChecker) CheckUnary(expr ast.Expression, op UnOpKind, operand ast.Expression) typesystem.Type {
	c.tracef("check_unary(expr=%s, op=%s)", expr, op)

	operandTy := c.ex.CheckExprWithNeeds(operand, NeedsNone)
	if typesystem.ReferencesError(c.infer.Resolve(operandTy)) {
		return operandTy
	}
	operandTy = c.structurallyResolved(expr, operandTy)
	if typesystem.IsError(operandTy) {
		return operandTy
	}

	switch op {
	case Deref:
		return c.checkDeref(expr, operand, operandTy)
	case Not:
		result := c.CheckUserUnop(expr, operandTy, op)
		if typesystem.IsIntegral(operandTy) || typesystem.IsBool(operandTy) {
			c.markBuiltinUnop(expr, operandTy, result)
			return operandTy
		}
		return result
	default:
		result := c.CheckUserUnop(expr, operandTy, op)
		if typesystem.IsNumeric(operandTy) {
			c.markBuiltinUnop(expr, operandTy, result)
			return operandTy
		}
		return result
	}
}

// CheckUserUnop resolves a by-value unary operator through its trait.
func (c *OperatorChecker) CheckUserUnop(expr ast.Expression, operandTy typesystem.Type, op UnOpKind) typesystem.Type {
	if op == Deref {
		panic(Bug(expr.GetToken(), "CheckUserUnop: `*` is not a by-value operator"))
	}
	callee, failure := c.resolver.resolveAt(expr.GetToken(), operandTy, nil, UnaryOp(op))
	if failure == nil {
		c.ex.RecordMethodCall(expr, callee)
		c.outcomes[expr] = &ResolutionOutcome{Kind: OutcomeOverloaded, Type: callee.Output, Callee: callee}
		return callee.Output
	}

	actual := c.infer.Resolve(operandTy)
	failure.Lhs = actual
	failure.Token = expr.GetToken()
	outcome := &ResolutionOutcome{Kind: OutcomeFailed, Type: typesystem.TError{}, Failure: failure}
	c.outcomes[expr] = outcome
	if !typesystem.ReferencesError(actual) {
		advice, diag := c.advisor.AdviseUnary(failure)
		outcome.Advice = advice
		c.ex.Report(diag)
	}
	return typesystem.TError{}
}

// markBuiltinUnop keeps a failed outcome: `-1u32` is reported yet typed u32.
func (c *OperatorChecker) markBuiltinUnop(expr ast.Expression, operandTy, result typesystem.Type) {
	if !typesystem.IsError(result) {
		c.markBuiltin(expr, operandTy)
	}
}

// checkDeref handles `*operand`: builtin for references, otherwise through
// the Deref trait, whose method borrows the operand.
func (c *OperatorChecker) checkDeref(expr, operand ast.Expression, operandTy typesystem.Type) typesystem.Type {
	if ref, ok := operandTy.(typesystem.TRef); ok {
		c.markBuiltin(expr, ref.Elem)
		return ref.Elem
	}

	callee, failure := c.resolver.resolveAt(expr.GetToken(), operandTy, nil, UnaryOp(Deref))
	if failure == nil {
		if ref, ok := c.infer.Resolve(callee.Inputs[0]).(typesystem.TRef); ok {
			c.ex.ApplyAdjustments(operand, []Adjustment{autoref(ref)})
		}
		c.ex.RecordMethodCall(expr, callee)
		result := c.infer.ResolveWithObligations(callee.Output)
		if ref, ok := result.(typesystem.TRef); ok {
			result = ref.Elem
		}
		c.outcomes[expr] = &ResolutionOutcome{Kind: OutcomeOverloaded, Type: result, Callee: callee}
		return result
	}

	failure.Lhs = operandTy
	failure.Token = expr.GetToken()
	c.outcomes[expr] = &ResolutionOutcome{Kind: OutcomeFailed, Type: typesystem.TError{}, Failure: failure}
	c.ex.Report(diagnostics.NewError(diagnostics.ErrCannotDeref, expr.GetToken(),
		"type `"+operandTy.String()+"` cannot be dereferenced").
		WithFact("op", "*").
		WithFact("operand", operandTy.String()))
	return typesystem.TError{}
}

// structurallyResolved requires the type to be known at this point. An
// unconstrained variable is reported and replaced by the error type.
func (c *OperatorChecker) structurallyResolved(expr ast.Expression, t typesystem.Type) typesystem.Type {
	t = c.infer.ResolveWithObligations(t)
	if typesystem.IsTyVar(t) {
		c.ex.Report(diagnostics.NewError(diagnostics.ErrTypeAnnotations, expr.GetToken(),
			"type annotations needed").
			WithPrimaryLabel("cannot infer type").
			WithNote("the type must be known at this point"))
		return typesystem.TError{}
	}
	return t
}
