package analyzer

import (
	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/prettyprinter"
	"github.com/funvibe/opcheck/internal/typesystem"
)

const (
	removeBorrowMsg = "String concatenation appends the string on the right to the " +
		"string on the left and may require reallocation. This " +
		"requires ownership of the string on the left"

	toOwnedMsg = "`to_owned()` can be used to create an owned `String` " +
		"from a string reference. String concatenation " +
		"appends the string on the right to the string " +
		"on the left and may require reallocation. This " +
		"requires ownership of the string on the left"
)

func isStringLike(t typesystem.Type) bool {
	return typesystem.IsStr(t) || typesystem.IsGrowableString(t)
}

// checkStrAddition recognizes `+` applied to string references, such as
// `&str + &str`, `&String + &str` and `&str + String`, and proposes the
// owned rewrite. It returns true when the failure is one of these, in which
// case the generic missing-impl note is left out.
func (a *Advisor) checkStrAddition(diag *diagnostics.DiagnosticError, advice *Advice, lhsExpr, rhsExpr ast.Expression,
	lhsTy, rhsTy typesystem.Type, isAssign bool, f *Failure) bool {
	lref, ok := lhsTy.(typesystem.TRef)
	if !ok || !isStringLike(lref.Elem) {
		return false
	}

	switch rt := rhsTy.(type) {
	case typesystem.TRef:
		// &str or &String + &str, &String or &&str
		inner := rt.Elem
		if innerRef, ok := inner.(typesystem.TRef); ok && typesystem.IsStr(innerRef.Elem) {
			inner = typesystem.Str()
		}
		if !isStringLike(inner) {
			return false
		}
		advice.StringConcat = true
		if isAssign {
			// `&str += &str` gets no rewrite
			return true
		}
		diag.WithLabel(f.Token, "`+` cannot be used to concatenate two `&str` strings")
		lhsEdit, msg := ownedLhs(lhsExpr)
		a.offer(diag, advice, msg, []diagnostics.Edit{lhsEdit})
		return true

	default:
		// &str or &String + String
		if !typesystem.IsGrowableString(rhsTy) {
			return false
		}
		advice.StringConcat = true
		diag.WithLabel(f.Token, "`+` cannot be used to concatenate a `&str` with a `String`")
		if isAssign {
			diag.WithHelp(toOwnedMsg)
			return true
		}
		lhsEdit, _ := ownedLhs(lhsExpr)
		rhsEdit := diagnostics.Edit{Token: ast.StartToken(rhsExpr), Replacement: "&" + prettyprinter.Operand(rhsExpr)}
		a.offer(diag, advice, toOwnedMsg, []diagnostics.Edit{lhsEdit, rhsEdit})
		return true
	}
}

// ownedLhs rewrites the left operand into an owned String: an explicit
// borrow is dropped, anything else gets `.to_owned()`.
func ownedLhs(lhsExpr ast.Expression) (diagnostics.Edit, string) {
	tok := ast.StartToken(lhsExpr)
	if ref, ok := lhsExpr.(*ast.ReferenceExpression); ok && !ref.Mutable {
		return diagnostics.Edit{Token: tok, Replacement: prettyprinter.Source(ref.Value)}, removeBorrowMsg
	}
	return diagnostics.Edit{Token: tok, Replacement: prettyprinter.Receiver(lhsExpr) + ".to_owned()"}, toOwnedMsg
}

// offer attaches the rewrite unless another suggestion already won; the
// explanation is kept as help either way.
func (a *Advisor) offer(diag *diagnostics.DiagnosticError, advice *Advice, msg string, edits []diagnostics.Edit) {
	if advice.Suggestion != SuggestNone {
		diag.WithHelp(msg)
		return
	}
	diag.WithSuggestion(diagnostics.Suggestion{Message: msg, Edits: edits, Applicability: diagnostics.MachineApplicable})
	advice.Suggestion = SuggestStringConcat
}
