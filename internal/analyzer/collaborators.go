package analyzer

import (
	"fmt"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// Needs is the placement requirement an expression is checked under.
type Needs int

const (
	NeedsNone Needs = iota
	// NeedsMutPlace requires a mutable place; the type is taken exactly
	NeedsMutPlace
)

// Diverges tracks whether control flow can reach past an expression.
type Diverges int

const (
	DivergesMaybe Diverges = iota
	DivergesAlways
)

func (d Diverges) String() string {
	if d == DivergesAlways {
		return "always"
	}
	return "maybe"
}

type AdjustKind int

const (
	AdjustNeverToAny AdjustKind = iota
	AdjustDeref
	AdjustOverloadedDeref
	AdjustBorrow
	AdjustReifyFnPointer
)

func (k AdjustKind) String() string {
	switch k {
	case AdjustNeverToAny:
		return "never-to-any"
	case AdjustDeref:
		return "deref"
	case AdjustOverloadedDeref:
		return "overloaded-deref"
	case AdjustBorrow:
		return "borrow"
	case AdjustReifyFnPointer:
		return "reify-fn-pointer"
	}
	return fmt.Sprintf("AdjustKind(%d)", int(k))
}

// Adjustment is an implicit conversion applied to an operand: an auto-borrow
// inserted for an overloaded operator, or a step of a coercion.
type Adjustment struct {
	Kind   AdjustKind      `json:"kind" yaml:"kind"`
	Target typesystem.Type `json:"-" yaml:"-"`
	// Mutable and AllowTwoPhase only apply to borrows
	Mutable       bool `json:"mutable,omitempty" yaml:"mutable,omitempty"`
	AllowTwoPhase bool `json:"two_phase,omitempty" yaml:"two_phase,omitempty"`
}

func (a Adjustment) String() string {
	s := a.Kind.String()
	if a.Target != nil {
		s += " -> " + a.Target.String()
	}
	if a.AllowTwoPhase {
		s += " (two-phase)"
	}
	return s
}

// autoref builds the borrow adjustment for an operand the callee takes by
// reference. Operator desugaring always allows two-phase mutable borrows.
func autoref(target typesystem.TRef) Adjustment {
	return Adjustment{
		Kind:          AdjustBorrow,
		Target:        target,
		Mutable:       target.Mutable,
		AllowTwoPhase: target.Mutable,
	}
}

// ExprChecker is the surrounding expression checker the operator checker
// delegates operand typing to.
type ExprChecker interface {
	// CheckExprWithNeeds types expr; NeedsMutPlace checks it as a mutable place.
	CheckExprWithNeeds(expr ast.Expression, needs Needs) typesystem.Type
	// CheckExprCoercible types expr and coerces it to expected.
	CheckExprCoercible(expr ast.Expression, expected typesystem.Type) typesystem.Type
	// DemandCoerce coerces the already computed type of expr to expected.
	DemandCoerce(expr ast.Expression, actual, expected typesystem.Type) typesystem.Type
	// DemandSuptype requires actual to be a subtype of expected, reporting a
	// mismatch at tok otherwise.
	DemandSuptype(tok token.Token, expected, actual typesystem.Type)
	// CheckLhsAssignable reports code at opTok when lhs is not a place.
	CheckLhsAssignable(lhs ast.Expression, code diagnostics.ErrorCode, opTok token.Token)

	Diverges() Diverges
	SetDiverges(Diverges)

	// ApplyAdjustments sets the adjustments of an expression that has none yet.
	ApplyAdjustments(expr ast.Expression, adjustments []Adjustment)
	// PushAdjustment appends to whatever adjustments expr already carries.
	PushAdjustment(expr ast.Expression, adjustment Adjustment)
	RecordMethodCall(expr ast.Expression, callee *symbols.MethodCallee)
	Report(err *diagnostics.DiagnosticError)
}

// MethodLookup finds trait methods for operator desugaring.
type MethodLookup interface {
	LookupMethodInTrait(ctx *infer.InferenceContext, receiver typesystem.Type,
		trait, method string, args []typesystem.Type) (*symbols.MethodCallee, []infer.Obligation, bool)
	TypeIsCopy(ctx *infer.InferenceContext, t typesystem.Type) bool
	// HasBody reports whether a function item has a body that was checked
	HasBody(fn typesystem.TFnDef) bool
}
