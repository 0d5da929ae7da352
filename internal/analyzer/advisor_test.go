package analyzer

import (
	"testing"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// failedAdvice returns the advice recorded for expr and the diagnostic with
// the given code.
func (h *harness) failedAdvice(expr ast.Expression, code diagnostics.ErrorCode) (*Advice, *diagnostics.DiagnosticError) {
	h.t.Helper()
	var diag *diagnostics.DiagnosticError
	for _, r := range h.reports {
		if r.Code == code {
			diag = r
		}
	}
	if diag == nil {
		h.t.Fatalf("%s: reports = %v, want %s", expr, h.codes(), code)
	}
	o, ok := h.ops.Outcome(expr)
	if !ok || o.Advice == nil {
		h.t.Fatalf("%s: no advice recorded", expr)
	}
	return o.Advice, diag
}

func onlySuggestion(t *testing.T, diag *diagnostics.DiagnosticError) diagnostics.Suggestion {
	t.Helper()
	if len(diag.Suggestions) != 1 {
		t.Fatalf("suggestions = %+v, want exactly one", diag.Suggestions)
	}
	return diag.Suggestions[0]
}

func TestSuggestCallingLeftOperand(t *testing.T) {
	tests := []struct {
		name          string
		params        []typesystem.Type
		replacement   string
		applicability diagnostics.Applicability
	}{
		{"no arguments", nil, "f()", diagnostics.MaybeIncorrect},
		{"with arguments", []typesystem.Type{typesystem.Bool()}, "f( /* arguments */ )", diagnostics.HasPlaceholders},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.env["f"] = h.st.DefineFunction("f", tt.params, typesystem.Int("i32"), true, "test")
			expr := infix(id("f"), "+", lit("1", ""))
			if got := h.check(expr); !typesystem.IsError(got) {
				t.Errorf("f + 1 = %s, want {error}", got)
			}
			advice, diag := h.failedAdvice(expr, diagnostics.ErrBinaryOp)
			if advice.Suggestion != SuggestCall || advice.CallRight {
				t.Errorf("advice = %+v, want a call on the left operand", advice)
			}
			s := onlySuggestion(t, diag)
			if s.Edits[0].Replacement != tt.replacement || s.Applicability != tt.applicability {
				t.Errorf("suggestion = %+v", s)
			}
			if diag.Facts["suggestion"] != "call" {
				t.Errorf("facts = %v", diag.Facts)
			}
		})
	}
}

func TestNoCallSuggestionWithoutBody(t *testing.T) {
	h := newHarness(t)
	h.env["f"] = h.st.DefineFunction("f", nil, typesystem.Int("i32"), false, "test")
	expr := infix(id("f"), "+", lit("1", ""))
	h.check(expr)
	advice, diag := h.failedAdvice(expr, diagnostics.ErrBinaryOp)
	if advice.Suggestion != SuggestNone || len(diag.Suggestions) != 0 {
		t.Errorf("a bodiless function must not be suggested: %+v", diag.Suggestions)
	}
}

func TestSuggestCallingRightOperand(t *testing.T) {
	h := newHarness(t)
	i32 := typesystem.Int("i32")
	fn := h.st.DefineFunction("f", nil, i32, true, "test")
	lhs, rhs := id("n"), id("f")
	expr := infix(lhs, "+", rhs)
	f := &Failure{
		Op:     BinaryOp(Add, Plain),
		Reason: NoImplementation,
		Trait:  "std::ops::Add",
		Lhs:    i32,
		Others: []typesystem.Type{fn},
		Token:  expr.Token,
	}

	advice, diag := h.ops.advisor.AdviseBinary(f, lhs, rhs)
	if advice.Suggestion != SuggestCall || !advice.CallRight {
		t.Fatalf("advice = %+v, want a call on the right operand", advice)
	}
	s := onlySuggestion(t, diag)
	if s.Edits[0].Replacement != "f()" || s.Edits[0].Token != rhs.Token {
		t.Errorf("suggestion = %+v", s)
	}
	if len(h.ctx.PendingObligations()) != 0 {
		t.Errorf("probing alternatives leaked obligations: %v", h.ctx.PendingObligations())
	}
}

func TestSuggestDeref(t *testing.T) {
	meters := typesystem.TCon{Name: "Meters", Local: true}
	add := &symbols.Impl{Trait: "std::ops::Add", Self: meters, Args: []typesystem.Type{meters}, Output: meters}

	t.Run("copy", func(t *testing.T) {
		h := newHarness(t)
		for _, impl := range []*symbols.Impl{add, {Trait: config.CopyTraitPath, Self: meters}} {
			if err := h.st.RegisterImplementation(impl); err != nil {
				t.Fatal(err)
			}
		}
		h.env["a"] = meters
		h.env["b"] = meters
		expr := infix(ref(id("a")), "+", id("b"))
		h.check(expr)
		advice, diag := h.failedAdvice(expr, diagnostics.ErrBinaryOp)
		if advice.Suggestion != SuggestDeref {
			t.Errorf("advice = %+v, want deref", advice)
		}
		s := onlySuggestion(t, diag)
		if s.Edits[0].Replacement != "*&a" || s.Applicability != diagnostics.MachineApplicable {
			t.Errorf("suggestion = %+v", s)
		}
		if len(diag.Notes) != 0 {
			t.Errorf("a suggestion replaces the missing impl note, got %q", diag.Notes)
		}
	})

	t.Run("not copy", func(t *testing.T) {
		h := newHarness(t)
		if err := h.st.RegisterImplementation(add); err != nil {
			t.Fatal(err)
		}
		h.env["a"] = meters
		h.env["b"] = meters
		expr := infix(ref(id("a")), "+", id("b"))
		h.check(expr)
		advice, diag := h.failedAdvice(expr, diagnostics.ErrBinaryOp)
		if advice.Suggestion != SuggestNone || !advice.ImplMissing {
			t.Errorf("advice = %+v, want only the impl note", advice)
		}
		want := "an implementation of `std::ops::Add` might be missing for `&Meters`"
		if len(diag.Notes) != 1 || diag.Notes[0] != want {
			t.Errorf("notes = %q", diag.Notes)
		}
	})
}

func TestStringConcatenation(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]typesystem.Type
		expr  func() ast.Expression
		label string
		msg   string
		edits []string
	}{
		{
			name:  "two literals",
			expr:  func() ast.Expression { return infix(str("a"), "+", str("b")) },
			label: "`+` cannot be used to concatenate two `&str` strings",
			msg:   toOwnedMsg,
			edits: []string{`"a".to_owned()`},
		},
		{
			name:  "borrowed String",
			env:   map[string]typesystem.Type{"s": typesystem.String()},
			expr:  func() ast.Expression { return infix(ref(id("s")), "+", str("x")) },
			label: "`+` cannot be used to concatenate two `&str` strings",
			msg:   removeBorrowMsg,
			edits: []string{"s"},
		},
		{
			name: "str and String",
			env: map[string]typesystem.Type{
				"a": typesystem.Ref(typesystem.Str()),
				"b": typesystem.String(),
			},
			expr:  func() ast.Expression { return infix(id("a"), "+", id("b")) },
			label: "`+` cannot be used to concatenate a `&str` with a `String`",
			msg:   toOwnedMsg,
			edits: []string{"a.to_owned()", "&b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			for k, v := range tt.env {
				h.env[k] = v
			}
			expr := tt.expr()
			h.check(expr)

			advice, diag := h.failedAdvice(expr, diagnostics.ErrBinaryOp)
			if !advice.StringConcat || advice.Suggestion != SuggestStringConcat {
				t.Errorf("advice = %+v", advice)
			}
			foundLabel := false
			for _, l := range diag.Labels {
				foundLabel = foundLabel || l.Message == tt.label
			}
			if !foundLabel {
				t.Errorf("labels = %+v, want %q", diag.Labels, tt.label)
			}
			s := onlySuggestion(t, diag)
			if s.Message != tt.msg {
				t.Errorf("message = %q", s.Message)
			}
			if len(s.Edits) != len(tt.edits) {
				t.Fatalf("edits = %+v, want %q", s.Edits, tt.edits)
			}
			for i, e := range s.Edits {
				if e.Replacement != tt.edits[i] {
					t.Errorf("edit %d = %q, want %q", i, e.Replacement, tt.edits[i])
				}
			}
			if len(diag.Notes) != 0 {
				t.Errorf("string concatenation has no impl note, got %q", diag.Notes)
			}
		})
	}
}

func TestStringAssignConcatenation(t *testing.T) {
	h := newHarness(t)
	h.env["s"] = typesystem.Ref(typesystem.Str())
	expr := assign(id("s"), "+=", str("x"))
	if got := h.check(expr); !typesystem.IsError(got) {
		t.Errorf("s += \"x\" = %s, want {error}", got)
	}
	advice, diag := h.failedAdvice(expr, diagnostics.ErrBinaryAssignOp)
	if !advice.StringConcat || len(diag.Suggestions) != 0 {
		t.Errorf("`&str += &str` gets no rewrite: %+v", diag.Suggestions)
	}
	if diag.Labels[0].Message != "cannot use `+=` on type `&str`" {
		t.Errorf("labels = %+v", diag.Labels)
	}
}

func TestConstrainTypeParameter(t *testing.T) {
	tests := []struct {
		op   string
		help string
	}{
		{"+", "consider restricting type parameter `T`: `T: std::ops::Add<Output = T>`"},
		{"==", "consider restricting type parameter `T`: `T: std::cmp::PartialEq`"},
	}
	for _, tt := range tests {
		h := newHarness(t)
		h.env["x"] = typesystem.TParam{Name: "T"}
		expr := infix(id("x"), tt.op, id("x"))
		h.check(expr)
		advice, diag := h.failedAdvice(expr, diagnostics.ErrBinaryOp)
		if !advice.ConstrainParam {
			t.Errorf("x %s x: advice = %+v", tt.op, advice)
		}
		if len(diag.Help) != 1 || diag.Help[0] != tt.help {
			t.Errorf("x %s x: help = %q, want %q", tt.op, diag.Help, tt.help)
		}
	}
}

func TestBinaryMessages(t *testing.T) {
	a, b := typesystem.TCon{Name: "A", Local: true}, typesystem.TCon{Name: "B", Local: true}
	tests := []struct {
		op     BinOpKind
		want   string
		output bool
	}{
		{Add, "cannot add `B` to `A`", true},
		{Sub, "cannot subtract `B` from `A`", true},
		{Mul, "cannot multiply `B` to `A`", true},
		{Div, "cannot divide `A` by `B`", true},
		{Rem, "cannot mod `A` by `B`", true},
		{Shl, "no implementation for `A << B`", true},
		{Lt, "binary operation `<` cannot be applied to type `A`", false},
	}
	for _, tt := range tests {
		msg, output := binaryMessage(tt.op, a, b)
		if msg != tt.want || output != tt.output {
			t.Errorf("binaryMessage(%s) = %q, %v", tt.op, msg, output)
		}
	}
}
