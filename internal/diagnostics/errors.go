package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/opcheck/internal/token"
)

type ErrorCode string

// Error codes for operator checking
const (
	// E0061: wrong number of arguments in a call
	ErrArgCount ErrorCode = "E0061"
	// E0067: invalid left-hand side of a compound assignment
	ErrInvalidAssignLhs ErrorCode = "E0067"
	// E0277: a trait bound is not satisfied
	ErrUnsatisfiedBound ErrorCode = "E0277"
	// E0282: type annotations needed
	ErrTypeAnnotations ErrorCode = "E0282"
	// E0308: mismatched types
	ErrMismatchedTypes ErrorCode = "E0308"
	// E0368: binary assignment operation cannot be applied
	ErrBinaryAssignOp ErrorCode = "E0368"
	// E0369: binary operation cannot be applied
	ErrBinaryOp ErrorCode = "E0369"
	// E0384: assignment to an immutable variable
	ErrAssignImmutable ErrorCode = "E0384"
	// E0425: unresolved name
	ErrUnresolvedName ErrorCode = "E0425"
	// E0594: assignment through a shared reference
	ErrAssignBehindRef ErrorCode = "E0594"
	// E0596: mutable borrow of a place that is not declared mutable
	ErrNotMutable ErrorCode = "E0596"
	// E0600: unary operator cannot be applied
	ErrUnaryOp ErrorCode = "E0600"
	// E0614: type cannot be dereferenced
	ErrCannotDeref ErrorCode = "E0614"
	// E0618: call of a value that is not a function
	ErrNotCallable ErrorCode = "E0618"
	// Internal-consistency violation of the checker itself
	ErrInternal ErrorCode = "ICE"
)

// Label points at a part of the source with a message.
type Label struct {
	Token   token.Token `json:"token" yaml:"token"`
	Message string      `json:"message" yaml:"message"`
	Primary bool        `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// Edit replaces the source of the expression starting at Token.
type Edit struct {
	Token       token.Token `json:"token" yaml:"token"`
	Replacement string      `json:"replacement" yaml:"replacement"`
}

// Applicability says how safe it is to apply a suggestion mechanically.
type Applicability string

const (
	MachineApplicable Applicability = "machine-applicable"
	MaybeIncorrect    Applicability = "maybe-incorrect"
	HasPlaceholders   Applicability = "has-placeholders"
)

// Suggestion is a proposed source rewrite. Multipart suggestions carry
// several edits that must be applied together.
type Suggestion struct {
	Message       string        `json:"message" yaml:"message"`
	Edits         []Edit        `json:"edits" yaml:"edits"`
	Applicability Applicability `json:"applicability" yaml:"applicability"`
}

type DiagnosticError struct {
	Code        ErrorCode         `json:"code" yaml:"code"`
	Token       token.Token       `json:"token" yaml:"token"`
	File        string            `json:"file,omitempty" yaml:"file,omitempty"`
	Message     string            `json:"message" yaml:"message"`
	Labels      []Label           `json:"labels,omitempty" yaml:"labels,omitempty"`
	Notes       []string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	Help        []string          `json:"help,omitempty" yaml:"help,omitempty"`
	Suggestions []Suggestion      `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Facts       map[string]string `json:"facts,omitempty" yaml:"facts,omitempty"`
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: msg}
}

func (e *DiagnosticError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File + ":")
	}
	if e.Token.HasPosition() {
		sb.WriteString(e.Token.Pos() + ": ")
	} else if e.File != "" {
		sb.WriteString(" ")
	}
	sb.WriteString(fmt.Sprintf("error[%s]: %s", e.Code, e.Message))
	return sb.String()
}

// WithLabel adds a secondary label.
func (e *DiagnosticError) WithLabel(tok token.Token, msg string) *DiagnosticError {
	e.Labels = append(e.Labels, Label{Token: tok, Message: msg})
	return e
}

// WithPrimaryLabel labels the diagnostic's own position.
func (e *DiagnosticError) WithPrimaryLabel(msg string) *DiagnosticError {
	e.Labels = append([]Label{{Token: e.Token, Message: msg, Primary: true}}, e.Labels...)
	return e
}

func (e *DiagnosticError) WithNote(note string) *DiagnosticError {
	e.Notes = append(e.Notes, note)
	return e
}

func (e *DiagnosticError) WithHelp(help string) *DiagnosticError {
	e.Help = append(e.Help, help)
	return e
}

func (e *DiagnosticError) WithSuggestion(s Suggestion) *DiagnosticError {
	e.Suggestions = append(e.Suggestions, s)
	return e
}

// WithFact records a structured fact for tooling.
func (e *DiagnosticError) WithFact(key, value string) *DiagnosticError {
	if e.Facts == nil {
		e.Facts = make(map[string]string)
	}
	e.Facts[key] = value
	return e
}
