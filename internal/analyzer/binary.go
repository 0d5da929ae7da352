package analyzer

import (
	"fmt"
	"io"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// OperatorChecker types operator expressions. Every overloadable operator is
// first resolved as a trait method call; when the resolved operand types turn
// out to be primitive the builtin typing rules are enforced on top.
type OperatorChecker struct {
	ex       ExprChecker
	infer    *infer.InferenceContext
	resolver *OverloadResolver
	advisor  *Advisor
	outcomes map[ast.Expression]*ResolutionOutcome

	Trace io.Writer
}

func NewOperatorChecker(ex ExprChecker, ctx *infer.InferenceContext, resolver *OverloadResolver) *OperatorChecker {
	return &OperatorChecker{
		ex:       ex,
		infer:    ctx,
		resolver: resolver,
		advisor:  NewAdvisor(resolver, ctx),
		outcomes: make(map[ast.Expression]*ResolutionOutcome),
	}
}

// SetTrace enables tracing of the checker and its resolver.
func (c *OperatorChecker) SetTrace(w io.Writer) {
	c.Trace = w
	c.resolver.Trace = w
}

// Outcome returns how expr was resolved.
func (c *OperatorChecker) Outcome(expr ast.Expression) (*ResolutionOutcome, bool) {
	o, ok := c.outcomes[expr]
	return o, ok
}

// Resolver returns the overload resolver used by the checker.
func (c *OperatorChecker) Resolver() *OverloadResolver { return c.resolver }

// CheckBinopAssign checks `lhs op= rhs`.
func (c *OperatorChecker) CheckBinopAssign(expr ast.Expression, op BinOpKind, lhs, rhs ast.Expression) typesystem.Type {
	if op.IsComparison() || op.IsShortCircuit() {
		panic(Bug(expr.GetToken(), "impossible assignment operation: %s=", op))
	}
	c.tracef("check_binop_assign(expr=%s, op=%s=)", expr, op)

	lhsTy, rhsTy, returnTy := c.checkOverloadedBinop(expr, lhs, rhs, op, CompoundAssign)

	ty := returnTy
	if !typesystem.IsTyVar(lhsTy) && !typesystem.IsTyVar(rhsTy) && IsBuiltinBinop(lhsTy, rhsTy, op) {
		c.enforceBuiltinBinopTypes(ast.StartToken(lhs), lhsTy, ast.StartToken(rhs), rhsTy, op)
		ty = typesystem.Unit()
		c.markBuiltin(expr, ty)
	}

	c.ex.CheckLhsAssignable(lhs, diagnostics.ErrInvalidAssignLhs, expr.GetToken())
	return ty
}

// CheckBinop checks a potentially overloaded binary operator.
func (c *OperatorChecker) CheckBinop(expr ast.Expression, op BinOpKind, lhs, rhs ast.Expression) typesystem.Type {
	c.tracef("check_binop(expr=%s, op=%s)", expr, op)

	if CategoryOf(op) == ShortCircuit {
		// && and || are a simple case.
		c.ex.CheckExprCoercible(lhs, typesystem.Bool())
		lhsDiverges := c.ex.Diverges()
		c.ex.CheckExprCoercible(rhs, typesystem.Bool())

		// Depending on the LHS' value, the RHS can never execute.
		c.ex.SetDiverges(lhsDiverges)

		c.outcomes[expr] = &ResolutionOutcome{Kind: OutcomeBuiltin, Type: typesystem.Bool()}
		return typesystem.Bool()
	}

	lhsTy, rhsTy, returnTy := c.checkOverloadedBinop(expr, lhs, rhs, op, Plain)

	// The builtin rules act as an inference hint: `1u32 << 2` is u32 before
	// the type of 2 is known and before any Shl impl can be selected.
	if !typesystem.IsTyVar(lhsTy) && !typesystem.IsTyVar(rhsTy) && IsBuiltinBinop(lhsTy, rhsTy, op) {
		builtinReturn := c.enforceBuiltinBinopTypes(ast.StartToken(lhs), lhsTy, ast.StartToken(rhs), rhsTy, op)
		c.ex.DemandSuptype(expr.GetToken(), builtinReturn, returnTy)
		c.markBuiltin(expr, builtinReturn)
	}
	return returnTy
}

// checkOverloadedBinop resolves the operator as a trait method and returns
// the resolved operand types and the result type.
func (c *OperatorChecker) checkOverloadedBinop(expr, lhsExpr, rhsExpr ast.Expression, op BinOpKind,
	mode AssignMode) (lhsTy, rhsTy, returnTy typesystem.Type) {
	c.tracef("check_overloaded_binop(expr=%s, op=%s, mode=%s)", expr, op, mode)

	switch mode {
	case Plain:
		// Coerce to a fresh variable so the trait's Self is a supertype of
		// the operand rather than the operand type itself.
		lhsTy = c.ex.CheckExprWithNeeds(lhsExpr, NeedsNone)
		fresh := c.infer.FreshVar(fmt.Sprintf("left operand of `%s`", op))
		lhsTy = c.ex.DemandCoerce(lhsExpr, lhsTy, fresh)
	case CompoundAssign:
		// Places that are written to cannot be coerced to a supertype.
		lhsTy = c.ex.CheckExprWithNeeds(lhsExpr, NeedsMutPlace)
	}
	lhsTy = c.infer.ResolveWithObligations(lhsTy)

	// The right operand is not checked yet. A variable stands in for its
	// type so that the trait lookup can guide its coercion, as in
	// `String + &String`.
	rhsVar := c.infer.FreshVar(fmt.Sprintf("right operand of `%s`", op))
	callee, failure := c.resolver.resolveAt(expr.GetToken(), lhsTy, []typesystem.Type{rhsVar}, BinaryOp(op, mode))

	rhsTy = c.ex.CheckExprCoercible(rhsExpr, rhsVar)
	rhsTy = c.infer.ResolveWithObligations(rhsTy)

	if failure == nil {
		byRef := !op.IsByValue()
		if mode == CompoundAssign || byRef {
			if ref, ok := c.infer.Resolve(callee.Inputs[0]).(typesystem.TRef); ok {
				c.ex.ApplyAdjustments(lhsExpr, []Adjustment{autoref(ref)})
			}
		}
		if byRef {
			// The right operand may already carry deref steps from its
			// coercion; the borrow goes on top of them.
			if ref, ok := c.infer.Resolve(callee.Inputs[1]).(typesystem.TRef); ok {
				c.ex.PushAdjustment(rhsExpr, autoref(ref))
			}
		}
		c.ex.RecordMethodCall(expr, callee)
		c.outcomes[expr] = &ResolutionOutcome{Kind: OutcomeOverloaded, Type: callee.Output, Callee: callee}
		return lhsTy, rhsTy, callee.Output
	}

	failure.Lhs = lhsTy
	failure.Others = []typesystem.Type{rhsTy}
	failure.Token = expr.GetToken()
	outcome := &ResolutionOutcome{Kind: OutcomeFailed, Type: typesystem.TError{}, Failure: failure}
	c.outcomes[expr] = outcome

	// error types are considered "builtin"
	if !typesystem.ReferencesError(lhsTy) && !typesystem.ReferencesError(rhsTy) {
		advice, diag := c.advisor.AdviseBinary(failure, lhsExpr, rhsExpr)
		outcome.Advice = advice
		c.ex.Report(diag)
	}
	return lhsTy, rhsTy, typesystem.TError{}
}

// markBuiltin records a builtin result, keeping any callee found.
func (c *OperatorChecker) markBuiltin(expr ast.Expression, ty typesystem.Type) {
	o, ok := c.outcomes[expr]
	if !ok {
		o = &ResolutionOutcome{}
		c.outcomes[expr] = o
	}
	o.Kind = OutcomeBuiltin
	o.Type = ty
}

func (c *OperatorChecker) tracef(format string, args ...interface{}) {
	if c.Trace != nil {
		fmt.Fprintf(c.Trace, format+"\n", args...)
	}
}
