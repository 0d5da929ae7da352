package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/opcheck/internal/token"
)

func tokAt(line, col int) token.Token {
	return token.New(token.OPERATOR, "+", line, col)
}

func TestErrorString(t *testing.T) {
	err := NewError(ErrBinaryOp, tokAt(3, 7), "cannot add `bool` to `bool`")
	if got := err.Error(); got != "3:7: error[E0369]: cannot add `bool` to `bool`" {
		t.Errorf("Error() = %q", got)
	}
	err.File = "ops.yaml"
	if got := err.Error(); !strings.HasPrefix(got, "ops.yaml:3:7: ") {
		t.Errorf("Error() with file = %q", got)
	}
}

func TestBagDedupesAndSorts(t *testing.T) {
	bag := NewBag("ops.yaml")
	bag.Add(NewError(ErrBinaryOp, tokAt(2, 1), "second"))
	bag.Add(NewError(ErrBinaryOp, tokAt(1, 5), "first"))
	bag.Add(NewError(ErrBinaryOp, tokAt(2, 1), "second again"))
	bag.Add(NewError(ErrMismatchedTypes, tokAt(2, 1), "mismatch"))

	errs := bag.Errors()
	if len(errs) != 3 {
		t.Fatalf("len = %d, want 3", len(errs))
	}
	if errs[0].Message != "first" {
		t.Errorf("errs[0] = %q, want first", errs[0].Message)
	}
	if errs[1].Code != ErrMismatchedTypes || errs[2].Message != "second again" {
		t.Errorf("unexpected order: %v, %v", errs[1], errs[2])
	}
	if errs[0].File != "ops.yaml" {
		t.Errorf("bag must fill in the file")
	}
	if !bag.HasCode(ErrMismatchedTypes) || bag.HasCode(ErrUnaryOp) {
		t.Errorf("HasCode mismatch")
	}
}

func TestEmitter(t *testing.T) {
	d := NewError(ErrBinaryOp, tokAt(1, 3), "cannot add `&str` to `&str`").
		WithPrimaryLabel("&str").
		WithNote("string concatenation requires an owned `String` on the left").
		WithSuggestion(Suggestion{
			Message:       "create an owned `String` from a string reference",
			Edits:         []Edit{{Token: tokAt(1, 1), Replacement: "a.to_owned()"}},
			Applicability: MachineApplicable,
		}).
		WithFact("op", "+")

	var plain bytes.Buffer
	NewEmitter(&plain, false).EmitAll([]*DiagnosticError{d})
	out := plain.String()
	for _, want := range []string{"error[E0369]", "--> 1:3", "note: string concatenation", "a.to_owned()", "facts: op=+", "found 1 error(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain output must not contain escape codes")
	}

	var colored bytes.Buffer
	NewEmitter(&colored, true).Emit(d)
	if !strings.Contains(colored.String(), ansiRed) {
		t.Errorf("colored output should contain ANSI codes")
	}
}
