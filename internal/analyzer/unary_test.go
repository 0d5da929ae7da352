package analyzer

import (
	"strings"
	"testing"

	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/typesystem"
)

func TestNegateUnsigned(t *testing.T) {
	h := newHarness(t)
	expr := prefix("-", lit("1", "u32"))
	if got := h.check(expr); got.String() != "u32" {
		t.Errorf("-1u32 = %s, want u32", got)
	}
	if len(h.reports) != 1 || h.reports[0].Code != diagnostics.ErrUnaryOp {
		t.Fatalf("reports = %v, want one E0600", h.codes())
	}
	if notes := h.reports[0].Notes; len(notes) != 1 || notes[0] != "unsigned values cannot be negated" {
		t.Errorf("notes = %q", notes)
	}
	if o, _ := h.ops.Outcome(expr); o.Kind != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", o.Kind)
	}
}

func TestBuiltinUnary(t *testing.T) {
	tests := []struct {
		op      string
		operand typesystem.Type
	}{
		{"-", typesystem.Int("i32")},
		{"-", typesystem.Float("f64")},
		{"!", typesystem.Int("u8")},
		{"!", typesystem.Bool()},
	}
	for _, tt := range tests {
		h := newHarness(t)
		h.env["x"] = tt.operand
		expr := prefix(tt.op, id("x"))
		if got := h.check(expr); !typesystem.Equal(got, tt.operand) {
			t.Errorf("%sx = %s, want %s", tt.op, got, tt.operand)
		}
		o, ok := h.ops.Outcome(expr)
		if !ok || o.Kind != OutcomeBuiltin || o.Callee == nil {
			t.Errorf("%s%s: outcome = %+v, want builtin with callee", tt.op, tt.operand, o)
		}
		if len(h.reports) != 0 {
			t.Errorf("%s%s: unexpected diagnostics %v", tt.op, tt.operand, h.codes())
		}
	}
}

func TestUnaryOnLocalType(t *testing.T) {
	h := newHarness(t)
	h.env["m"] = typesystem.TCon{Name: "Meters", Local: true}
	if got := h.check(prefix("!", id("m"))); !typesystem.IsError(got) {
		t.Errorf("!m = %s, want {error}", got)
	}
	if len(h.reports) != 1 {
		t.Fatalf("reports = %v", h.codes())
	}
	want := "an implementation of `std::ops::Not` might be missing for `Meters`"
	if notes := h.reports[0].Notes; len(notes) != 1 || notes[0] != want {
		t.Errorf("notes = %q, want %q", notes, want)
	}
	if h.reports[0].Facts["trait"] != "std::ops::Not" {
		t.Errorf("facts = %v", h.reports[0].Facts)
	}
}

func TestUnaryWithoutNote(t *testing.T) {
	for _, operand := range []typesystem.Type{
		typesystem.Ref(typesystem.Str()),
		typesystem.Char(),
		typesystem.TTuple{Elements: []typesystem.Type{typesystem.Bool(), typesystem.Bool()}},
	} {
		h := newHarness(t)
		h.env["x"] = operand
		h.check(prefix("-", id("x")))
		if len(h.reports) != 1 || h.reports[0].Code != diagnostics.ErrUnaryOp {
			t.Fatalf("-%s: reports = %v", operand, h.codes())
		}
		if len(h.reports[0].Notes) != 0 {
			t.Errorf("-%s: unexpected notes %q", operand, h.reports[0].Notes)
		}
	}
}

func TestDerefReference(t *testing.T) {
	h := newHarness(t)
	h.env["r"] = typesystem.Ref(typesystem.Int("i64"))
	expr := prefix("*", id("r"))
	if got := h.check(expr); got.String() != "i64" {
		t.Errorf("*r = %s, want i64", got)
	}
	if h.resolver.Calls() != 0 {
		t.Errorf("builtin deref must not resolve a trait")
	}
}

func TestOverloadedDeref(t *testing.T) {
	h := newHarness(t)
	h.env["s"] = typesystem.String()
	operand := id("s")
	expr := prefix("*", operand)
	if got := h.check(expr); !typesystem.IsStr(got) {
		t.Errorf("*s = %s, want str", got)
	}
	if adj := h.adjustments[operand]; len(adj) != 1 || adj[0].Kind != AdjustBorrow {
		t.Errorf("operand adjustments = %v, want a borrow", adj)
	}
	if callee := h.calls[expr]; callee == nil || callee.Method != "deref" {
		t.Errorf("callee = %v", callee)
	}
}

func TestCannotDeref(t *testing.T) {
	h := newHarness(t)
	h.env["n"] = typesystem.Int("i32")
	if got := h.check(prefix("*", id("n"))); !typesystem.IsError(got) {
		t.Errorf("*n = %s, want {error}", got)
	}
	if len(h.reports) != 1 || h.reports[0].Code != diagnostics.ErrCannotDeref {
		t.Errorf("reports = %v, want one E0614", h.codes())
	}
}

func TestUnaryNeedsKnownType(t *testing.T) {
	h := newHarness(t)
	h.env["x"] = h.ctx.FreshVar("x")
	if got := h.check(prefix("-", id("x"))); !typesystem.IsError(got) {
		t.Errorf("-x = %s, want {error}", got)
	}
	if len(h.reports) != 1 || h.reports[0].Code != diagnostics.ErrTypeAnnotations {
		t.Errorf("reports = %v, want one E0282", h.codes())
	}
	if h.resolver.Calls() != 0 {
		t.Errorf("an unknown operand must not be resolved")
	}
}

func TestUserUnopRejectsDeref(t *testing.T) {
	h := newHarness(t)
	defer func() {
		b, ok := recover().(*BugError)
		if !ok || !strings.Contains(b.Error(), "not a by-value operator") {
			t.Errorf("recover() = %v", b)
		}
	}()
	h.ops.CheckUserUnop(prefix("*", id("x")), typesystem.Int("i32"), Deref)
}
