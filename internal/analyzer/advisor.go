package analyzer

import (
	"fmt"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/prettyprinter"
	"github.com/funvibe/opcheck/internal/typesystem"
)

type SuggestionKind string

const (
	SuggestNone         SuggestionKind = ""
	SuggestCall         SuggestionKind = "call"
	SuggestDeref        SuggestionKind = "deref"
	SuggestStringConcat SuggestionKind = "string-concat"
)

// Advice is what the advisor concluded about a failed operator, before any
// text is produced.
type Advice struct {
	MissingTrait string
	Suggestion   SuggestionKind
	// CallRight is set when the uncalled function is the right operand
	CallRight bool
	// StringConcat is set when the failure is a string concatenation mistake,
	// even if its rewrite lost to another suggestion
	StringConcat   bool
	ConstrainParam bool
	ImplMissing    bool
}

// Advisor turns resolution failures into diagnostics with at most one
// suggestion. Alternatives are checked by re-running resolution inside an
// inference probe.
type Advisor struct {
	resolver *OverloadResolver
	infer    *infer.InferenceContext
}

func NewAdvisor(resolver *OverloadResolver, ctx *infer.InferenceContext) *Advisor {
	return &Advisor{resolver: resolver, infer: ctx}
}

// AdviseBinary builds the diagnostic for a failed binary or compound
// assignment operator.
func (a *Advisor) AdviseBinary(f *Failure, lhsExpr, rhsExpr ast.Expression) (*Advice, *diagnostics.DiagnosticError) {
	op, mode, _ := f.Op.Binary()
	lhsTy, rhsTy := a.infer.Resolve(f.Lhs), a.infer.Resolve(f.Rhs())
	advice := &Advice{MissingTrait: f.Trait}

	var diag *diagnostics.DiagnosticError
	useOutput := false
	if mode == CompoundAssign {
		diag = diagnostics.NewError(diagnostics.ErrBinaryAssignOp, f.Token,
			fmt.Sprintf("binary assignment operation `%s=` cannot be applied to type `%s`", op, lhsTy)).
			WithLabel(ast.StartToken(lhsExpr), fmt.Sprintf("cannot use `%s=` on type `%s`", op, lhsTy))
	} else {
		var msg string
		msg, useOutput = binaryMessage(op, lhsTy, rhsTy)
		diag = diagnostics.NewError(diagnostics.ErrBinaryOp, f.Token, msg).
			WithLabel(ast.StartToken(lhsExpr), lhsTy.String()).
			WithLabel(ast.StartToken(rhsExpr), rhsTy.String())

		if a.suggestCall(diag, lhsExpr, lhsTy, rhsTy, f.Op, false) {
			advice.Suggestion = SuggestCall
		} else if a.suggestCall(diag, rhsExpr, rhsTy, lhsTy, f.Op, true) {
			advice.Suggestion = SuggestCall
			advice.CallRight = true
		}
	}

	if advice.Suggestion == SuggestNone && a.suggestDeref(diag, lhsExpr, lhsTy, rhsTy, f.Op) {
		advice.Suggestion = SuggestDeref
	}

	if f.Trait != "" {
		switch {
		case op == Add && a.checkStrAddition(diag, advice, lhsExpr, rhsExpr, lhsTy, rhsTy, mode == CompoundAssign, f):
			// String concatenation mistakes get their own explanation
			// instead of the missing-impl note.
		case typesystem.IsParam(lhsTy):
			suggestConstrainingParam(diag, lhsTy, rhsTy, f.Trait, useOutput)
			advice.ConstrainParam = true
		case advice.Suggestion == SuggestNone:
			advice.ImplMissing = suggestImplMissing(diag, lhsTy, f.Trait)
		}
	}

	diag.WithFact("op", f.Op.String()).
		WithFact("lhs", lhsTy.String()).
		WithFact("rhs", rhsTy.String())
	if f.Trait != "" {
		diag.WithFact("trait", f.Trait)
	}
	if advice.Suggestion != SuggestNone {
		diag.WithFact("suggestion", string(advice.Suggestion))
	}
	return advice, diag
}

// binaryMessage returns the headline for a failed plain operator and whether
// the missing trait has an Output to constrain.
func binaryMessage(op BinOpKind, lhs, rhs typesystem.Type) (string, bool) {
	switch op {
	case Add:
		return fmt.Sprintf("cannot add `%s` to `%s`", rhs, lhs), true
	case Sub:
		return fmt.Sprintf("cannot subtract `%s` from `%s`", rhs, lhs), true
	case Mul:
		return fmt.Sprintf("cannot multiply `%s` to `%s`", rhs, lhs), true
	case Div:
		return fmt.Sprintf("cannot divide `%s` by `%s`", lhs, rhs), true
	case Rem:
		return fmt.Sprintf("cannot mod `%s` by `%s`", lhs, rhs), true
	case BitAnd, BitXor, BitOr, Shl, Shr:
		return fmt.Sprintf("no implementation for `%s %s %s`", lhs, op, rhs), true
	default:
		return fmt.Sprintf("binary operation `%s` cannot be applied to type `%s`", op, lhs), false
	}
}

// suggestCall handles an uncalled function operand: when calling it would
// make the operator resolve, suggest the call. other is the type of the
// opposite operand.
func (a *Advisor) suggestCall(diag *diagnostics.DiagnosticError, expr ast.Expression,
	ty, other typesystem.Type, op OperatorKind, right bool) bool {
	fn, ok := ty.(typesystem.TFnDef)
	if !ok || !a.resolver.lookup.HasBody(fn) {
		return false
	}
	if otherFn, ok := other.(typesystem.TFnDef); ok {
		if !a.resolver.lookup.HasBody(otherFn) {
			return false
		}
		other = otherFn.ReturnType
	}

	lhs, rhs := fn.ReturnType, other
	if right {
		lhs, rhs = other, fn.ReturnType
	}
	if !a.resolver.Succeeds(lhs, []typesystem.Type{rhs}, op) {
		return false
	}

	snippet := prettyprinter.Receiver(expr)
	replacement, applicability := snippet+"()", diagnostics.MaybeIncorrect
	if len(fn.Params) > 0 {
		replacement, applicability = snippet+"( /* arguments */ )", diagnostics.HasPlaceholders
	}
	diag.WithSuggestion(diagnostics.Suggestion{
		Message:       "you might have forgotten to call this function",
		Edits:         []diagnostics.Edit{{Token: ast.StartToken(expr), Replacement: replacement}},
		Applicability: applicability,
	})
	return true
}

// suggestDeref handles `&X op Y` where `X op Y` resolves and X is Copy.
func (a *Advisor) suggestDeref(diag *diagnostics.DiagnosticError, lhsExpr ast.Expression,
	lhsTy, rhsTy typesystem.Type, op OperatorKind) bool {
	ref, ok := lhsTy.(typesystem.TRef)
	if !ok {
		return false
	}
	if !a.resolver.lookup.TypeIsCopy(a.infer, ref.Elem) ||
		!a.resolver.Succeeds(ref.Elem, []typesystem.Type{rhsTy}, op) {
		return false
	}

	snippet := prettyprinter.Source(lhsExpr)
	diag.WithSuggestion(diagnostics.Suggestion{
		Message: fmt.Sprintf("`%s` can be used on `%s`, you can dereference `%s`",
			op, typesystem.PeelRefs(ref.Elem), snippet),
		Edits:         []diagnostics.Edit{{Token: ast.StartToken(lhsExpr), Replacement: "*" + prettyprinter.Operand(lhsExpr)}},
		Applicability: diagnostics.MachineApplicable,
	})
	return true
}

// AdviseUnary builds the diagnostic for a failed `-x` or `!x`.
func (a *Advisor) AdviseUnary(f *Failure) (*Advice, *diagnostics.DiagnosticError) {
	op, _ := f.Op.Unary()
	actual := a.infer.Resolve(f.Lhs)
	advice := &Advice{MissingTrait: f.Trait}

	diag := diagnostics.NewError(diagnostics.ErrUnaryOp, f.Token,
		fmt.Sprintf("cannot apply unary operator `%s` to type `%s`", op, actual)).
		WithPrimaryLabel(fmt.Sprintf("cannot apply unary operator `%s`", op))

	switch {
	case op == Neg && typesystem.IsUnsigned(actual):
		diag.WithNote("unsigned values cannot be negated")
	case noImplNote(actual):
	case f.Trait != "":
		advice.ImplMissing = suggestImplMissing(diag, actual, f.Trait)
	}

	diag.WithFact("op", op.String()).WithFact("operand", actual.String())
	if f.Trait != "" {
		diag.WithFact("trait", f.Trait)
	}
	return advice, diag
}

// noImplNote lists the operand types for which no trait impl note is given.
func noImplNote(t typesystem.Type) bool {
	switch t := t.(type) {
	case typesystem.TNever, typesystem.TTuple, typesystem.TArray:
		return true
	case typesystem.TRef:
		return typesystem.IsStr(t.Elem)
	}
	return typesystem.IsStr(t) || typesystem.Classify(t) == typesystem.ClassChar
}

// suggestImplMissing notes the missing impl for types declared locally.
func suggestImplMissing(diag *diagnostics.DiagnosticError, t typesystem.Type, trait string) bool {
	if !typesystem.IsLocalADT(typesystem.PeelRefs(t)) {
		return false
	}
	diag.WithNote(fmt.Sprintf("an implementation of `%s` might be missing for `%s`", trait, t))
	return true
}

func suggestConstrainingParam(diag *diagnostics.DiagnosticError, lhs, rhs typesystem.Type, trait string, setOutput bool) {
	bound := trait
	if setOutput {
		bound += fmt.Sprintf("<Output = %s>", rhs)
	}
	diag.WithNote(fmt.Sprintf("`%s` might need a bound for `%s`", lhs, trait)).
		WithHelp(fmt.Sprintf("consider restricting type parameter `%s`: `%s: %s`", lhs, lhs, bound))
}
