package analyzer

import (
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// IsBuiltinBinop reports whether lhs op rhs is a primitive operation rather
// than one that must go through an operator trait. Both types must already
// be resolved; general inference variables are never builtin. A single layer
// of immutable reference is looked through, so `5.0 + &6.0f32` qualifies.
// SIMD vectors are not scalar: their comparisons yield a vector and go
// through the traits.
func IsBuiltinBinop(lhs, rhs typesystem.Type, op BinOpKind) bool {
	lhs, rhs = typesystem.DerefIfImmutable(lhs), typesystem.DerefIfImmutable(rhs)
	anyError := typesystem.ReferencesError(lhs) || typesystem.ReferencesError(rhs)

	switch CategoryOf(op) {
	case ShortCircuit:
		return true
	case Shift:
		return anyError ||
			typesystem.IsIntegral(lhs) && typesystem.IsIntegral(rhs)
	case Arithmetic:
		return anyError ||
			typesystem.IsIntegral(lhs) && typesystem.IsIntegral(rhs) ||
			typesystem.IsFloat(lhs) && typesystem.IsFloat(rhs)
	case Bitwise:
		return anyError ||
			typesystem.IsIntegral(lhs) && typesystem.IsIntegral(rhs) ||
			typesystem.IsFloat(lhs) && typesystem.IsFloat(rhs) ||
			typesystem.IsBool(lhs) && typesystem.IsBool(rhs)
	case Comparison:
		return anyError ||
			typesystem.IsScalar(lhs) && typesystem.IsScalar(rhs)
	}
	return false
}

// enforceBuiltinBinopTypes constrains the operands of a builtin operation and
// returns its result type.
func (c *OperatorChecker) enforceBuiltinBinopTypes(lhsTok token.Token, lhs typesystem.Type,
	rhsTok token.Token, rhs typesystem.Type, op BinOpKind) typesystem.Type {
	if !IsBuiltinBinop(lhs, rhs, op) {
		panic(Bug(lhsTok, "enforceBuiltinBinopTypes: `%s %s %s` is not builtin", lhs, op, rhs))
	}

	lhs, rhs = typesystem.DerefIfImmutable(lhs), typesystem.DerefIfImmutable(rhs)

	switch CategoryOf(op) {
	case ShortCircuit:
		c.ex.DemandSuptype(lhsTok, typesystem.Bool(), lhs)
		c.ex.DemandSuptype(rhsTok, typesystem.Bool(), rhs)
		return typesystem.Bool()

	case Shift:
		// result type is same as LHS always
		return lhs

	case Arithmetic, Bitwise:
		// both LHS and RHS and result will have the same type
		c.ex.DemandSuptype(rhsTok, lhs, rhs)
		return lhs

	default:
		c.ex.DemandSuptype(rhsTok, lhs, rhs)
		return typesystem.Bool()
	}
}
