package analyzer

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

type FailureReason int

const (
	// NoImplementation: the trait exists but no impl applies
	NoImplementation FailureReason = iota
	// MissingLangItem: the operator is not bound to any trait
	MissingLangItem
)

func (r FailureReason) String() string {
	if r == MissingLangItem {
		return "missing lang item"
	}
	return "no implementation"
}

// Failure is an unsuccessful overload resolution. It is an expected outcome:
// resolution is attempted for every operator, primitives included.
type Failure struct {
	Op     OperatorKind
	Reason FailureReason
	// Trait is the trait path the operator desugars to, empty for a missing lang item
	Trait  string
	Lhs    typesystem.Type
	Others []typesystem.Type
	Token  token.Token
}

// Category returns the binary operator category; ok is false for unary operators.
func (f *Failure) Category() (Category, bool) {
	op, _, ok := f.Op.Binary()
	if !ok {
		return 0, false
	}
	return CategoryOf(op), true
}

// Rhs returns the right operand type of a binary failure, nil otherwise.
func (f *Failure) Rhs() typesystem.Type {
	if len(f.Others) == 0 {
		return nil
	}
	return f.Others[0]
}

func (f *Failure) Error() string {
	others := make([]string, len(f.Others))
	for i, o := range f.Others {
		others[i] = o.String()
	}
	return fmt.Sprintf("`%s` on `%s` [%s]: %s", f.Op, f.Lhs, strings.Join(others, ", "), f.Reason)
}

// BugError is an internal-consistency violation: a classifier upstream
// handed the core an operator form that cannot exist. It is raised with
// panic and aborts checking of the current unit.
type BugError struct {
	Token token.Token
	err   error
}

// Bug builds a BugError at tok, recording the current stack.
func Bug(tok token.Token, format string, args ...interface{}) *BugError {
	return &BugError{Token: tok, err: errors.Errorf(format, args...)}
}

func (e *BugError) Error() string {
	if e.Token.HasPosition() {
		return fmt.Sprintf("internal error at %s: %s", e.Token.Pos(), e.err)
	}
	return "internal error: " + e.err.Error()
}

func (e *BugError) Unwrap() error { return e.err }

// StackTrace returns where the violation was detected.
func (e *BugError) StackTrace() errors.StackTrace {
	if st, ok := e.err.(interface{ StackTrace() errors.StackTrace }); ok {
		return st.StackTrace()
	}
	return nil
}

type OutcomeKind int

const (
	OutcomeBuiltin OutcomeKind = iota
	OutcomeOverloaded
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBuiltin:
		return "builtin"
	case OutcomeOverloaded:
		return "overloaded"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// ResolutionOutcome is how one operator expression was resolved. A builtin
// outcome may still carry the callee found by overload resolution.
type ResolutionOutcome struct {
	Kind    OutcomeKind
	Type    typesystem.Type
	Callee  *symbols.MethodCallee
	Failure *Failure
	Advice  *Advice
}
