package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/opcheck/internal/analyzer"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/scenario"
)

func run(t *testing.T, src string) *PipelineContext {
	t.Helper()
	ctx := NewPipelineContext("test.yaml")
	ctx.Source = []byte(src)
	return Default().Run(ctx)
}

func unit(t *testing.T, ctx *PipelineContext, name string) *UnitResult {
	t.Helper()
	for _, u := range ctx.Units {
		if u.Name == name {
			return u
		}
	}
	require.FailNow(t, "no unit "+name)
	return nil
}

func codes(ctx *PipelineContext) []diagnostics.ErrorCode {
	var out []diagnostics.ErrorCode
	for _, d := range ctx.Errors {
		out = append(out, d.Code)
	}
	return out
}

func TestStringScenario(t *testing.T) {
	ctx := run(t, `
variables:
  - {name: s, type: String, mutable: true}
  - {name: t, type: String}
expressions:
  - name: concat
    expr: {binary: "+", lhs: s, rhs: {ref: t}}
  - name: compare
    expr: {binary: "==", lhs: s, rhs: {str: x}}
  - name: append
    expr: {assign: "+=", lhs: s, rhs: {str: x}}
  - name: sum
    expr: {binary: "+", lhs: 1, rhs: 2}
`)
	require.NoError(t, ctx.Err)
	assert.Empty(t, ctx.Errors)
	assert.Equal(t, "String", unit(t, ctx, "concat").Type.String())
	assert.Equal(t, "bool", unit(t, ctx, "compare").Type.String())
	assert.Equal(t, "()", unit(t, ctx, "append").Type.String())
	assert.Equal(t, "i32", unit(t, ctx, "sum").Type.String())
}

func TestLocalTypes(t *testing.T) {
	ctx := run(t, `
types:
  - {name: Meters, copy: true}
  - {name: Point}
variables:
  - {name: m, type: Meters}
  - {name: p, type: Point}
impls:
  - {trait: "std::ops::Add", self: Meters, output: Meters}
expressions:
  - name: meters
    expr: {binary: "+", lhs: m, rhs: m}
  - name: points
    expr: {binary: "+", lhs: p, rhs: p}
`)
	require.NoError(t, ctx.Err)
	meters := unit(t, ctx, "meters")
	assert.Equal(t, "Meters", meters.Type.String())
	o, ok := ctx.Checker.Operators().Outcome(meters.Expr)
	require.True(t, ok)
	assert.Equal(t, analyzer.OutcomeOverloaded, o.Kind)

	require.Len(t, ctx.Errors, 1)
	d := ctx.Errors[0]
	assert.Equal(t, diagnostics.ErrBinaryOp, d.Code)
	assert.Equal(t, "test.yaml", d.File)
	assert.Equal(t, []string{"an implementation of `std::ops::Add` might be missing for `Point`"}, d.Notes)
}

func TestGenericParameter(t *testing.T) {
	ctx := run(t, `
generics: [T]
variables:
  - {name: a, type: T}
expressions:
  - name: add
    expr: {binary: "+", lhs: a, rhs: a}
`)
	require.NoError(t, ctx.Err)
	require.Len(t, ctx.Errors, 1)
	assert.Equal(t, []string{"consider restricting type parameter `T`: `T: std::ops::Add<Output = T>`"}, ctx.Errors[0].Help)
}

func TestGenericImplWithBound(t *testing.T) {
	ctx := run(t, `
types:
  - {name: Boxed, params: [T], deref: T}
variables:
  - {name: b, type: "Boxed<i32>"}
  - {name: c, type: "Boxed<char>"}
impls:
  - trait: "std::cmp::PartialEq"
    self: "Boxed<T>"
    generics: [T]
    bounds:
      - {self: T, trait: "std::cmp::PartialEq"}
expressions:
  - name: eq
    expr: {binary: "==", lhs: b, rhs: b}
  - name: deref
    expr: {binary: "+", lhs: {unary: "*", operand: b}, rhs: 1}
  - name: chars
    expr: {binary: "<", lhs: {unary: "*", operand: c}, rhs: {char: z}}
`)
	require.NoError(t, ctx.Err)
	assert.Empty(t, ctx.Errors)
	assert.Equal(t, "bool", unit(t, ctx, "eq").Type.String())
	assert.Equal(t, "i32", unit(t, ctx, "deref").Type.String())
	assert.Equal(t, "bool", unit(t, ctx, "chars").Type.String())
}

func TestInferredVariable(t *testing.T) {
	ctx := run(t, `
variables:
  - {name: x, type: _}
expressions:
  - name: eq
    expr: {binary: "==", lhs: x, rhs: x}
`)
	require.NoError(t, ctx.Err)
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrTypeAnnotations}, codes(ctx))
}

func TestDivergingRightOperand(t *testing.T) {
	ctx := run(t, `
variables:
  - {name: x, type: i32}
expressions:
  - name: sum
    expr: x + panic!()
`)
	require.NoError(t, ctx.Err)
	u := unit(t, ctx, "sum")

	// `!` coerces to any right operand, so `i32: Add<?R>` stays ambiguous
	// and its output is never known.
	o, ok := ctx.Checker.Operators().Outcome(u.Expr)
	require.True(t, ok)
	assert.Equal(t, analyzer.OutcomeOverloaded, o.Kind)
	ty, ok := ctx.Checker.TypeOf(u.Expr)
	require.True(t, ok)
	assert.NotEmpty(t, ty.FreeTypeVariables())

	require.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrTypeAnnotations}, codes(ctx))
	assert.Equal(t, 11, ctx.Errors[0].Token.Column)
}

func TestInternalErrorAbortsOnlyItsUnit(t *testing.T) {
	ctx := run(t, `
variables:
  - {name: b, type: bool, mutable: true}
expressions:
  - name: bad
    expr: {assign: "&&=", lhs: b, rhs: b}
  - name: good
    expr: {binary: "&&", lhs: b, rhs: {bool: true}}
`)
	require.NoError(t, ctx.Err)
	assert.True(t, ctx.HasBug())
	assert.Error(t, unit(t, ctx, "bad").Bug)
	assert.NoError(t, unit(t, ctx, "good").Bug)
	assert.Equal(t, "bool", unit(t, ctx, "good").Type.String())
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrInternal}, codes(ctx))
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown trait", "impls:\n  - {trait: Add, self: i32, output: i32}\n", "unknown trait Add"},
		{"unknown type", "variables:\n  - {name: x, type: Meter}\n", "unknown type Meter"},
		{"redefined type", "types:\n  - {name: i32}\n", "type i32 is already defined"},
		{"wrong arity", "types:\n  - {name: Boxed, params: [T]}\nvariables:\n  - {name: x, type: Boxed}\n", "takes 1 type argument(s), got 0"},
		{"missing output", "types:\n  - {name: M}\nimpls:\n  - {trait: \"std::ops::Add\", self: M}\n", "needs an output"},
		{"overlap", "impls:\n  - {trait: \"std::ops::Add\", self: i32, args: [i32], output: i32}\n", "overlapping impls"},
		{"duplicate variable", "variables:\n  - {name: x, type: i32}\n  - {name: x, type: bool}\n", "x is already defined"},
		{"bad type syntax", "variables:\n  - {name: x, type: \"&\"}\n", "test.yaml:2:5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := run(t, tt.src)
			require.Error(t, ctx.Err)
			assert.Contains(t, ctx.Err.Error(), tt.want)
			var se *scenario.Error
			assert.ErrorAs(t, ctx.Err, &se)
			assert.Nil(t, ctx.Checker)
			assert.Empty(t, ctx.Units)
		})
	}
}

func TestCustomLangItems(t *testing.T) {
	items, err := config.ParseLangItems([]byte(`
operators:
  - {op: "+", method: add, trait: "my::Plus"}
`), "custom.yaml")
	require.NoError(t, err)

	ctx := NewPipelineContext("custom.yaml")
	ctx.LangItems = items
	ctx.Source = []byte(`
types:
  - {name: V}
variables:
  - {name: v, type: V}
impls:
  - {trait: "my::Plus", self: V, output: V}
expressions:
  - name: plus
    expr: {binary: "+", lhs: v, rhs: v}
  - name: minus
    expr: {binary: "-", lhs: v, rhs: v}
`)
	ctx = Default().Run(ctx)
	require.NoError(t, ctx.Err)
	assert.Equal(t, "V", unit(t, ctx, "plus").Type.String())
	callee, ok := ctx.Checker.MethodCallOf(unit(t, ctx, "plus").Expr)
	require.True(t, ok)
	assert.Equal(t, "my::Plus", callee.Trait)
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrBinaryOp}, codes(ctx))
}

func TestLoadError(t *testing.T) {
	ctx := Default().Run(NewPipelineContext("does-not-exist.yaml"))
	require.Error(t, ctx.Err)
	assert.Nil(t, ctx.Scenario)
	assert.Empty(t, ctx.Errors)
}
