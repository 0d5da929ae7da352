package exprcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/opcheck/internal/analyzer"
	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

type fixture struct {
	t  *testing.T
	st *symbols.SymbolTable
	c  *Checker
	ln int
}

func newFixture(t *testing.T) *fixture {
	st := symbols.NewSymbolTable()
	return &fixture{t: t, st: st, c: New(st, config.DefaultLangItems(), "test.yaml")}
}

func (f *fixture) tok(tt token.TokenType, lexeme string) token.Token {
	f.ln++
	return token.New(tt, lexeme, f.ln, 1)
}

func (f *fixture) id(name string) *ast.Identifier {
	return &ast.Identifier{Token: f.tok(token.IDENT, name), Value: name}
}

func (f *fixture) lit(value, suffix string) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Token: f.tok(token.INT, value+suffix), Value: value, Suffix: suffix}
}

func (f *fixture) flit(value string) *ast.FloatLiteral {
	return &ast.FloatLiteral{Token: f.tok(token.FLOAT, value), Value: value}
}

func (f *fixture) str(value string) *ast.StringLiteral {
	return &ast.StringLiteral{Token: f.tok(token.STRING, value), Value: value}
}

func (f *fixture) ref(e ast.Expression, mutable bool) *ast.ReferenceExpression {
	return &ast.ReferenceExpression{Token: f.tok(token.AMPERSAND, "&"), Mutable: mutable, Value: e}
}

func (f *fixture) infix(l ast.Expression, op string, r ast.Expression) *ast.InfixExpression {
	return &ast.InfixExpression{Token: f.tok(token.OPERATOR, op), Left: l, Operator: op, Right: r}
}

func (f *fixture) assign(l ast.Expression, op string, r ast.Expression) *ast.AssignOpExpression {
	return &ast.AssignOpExpression{Token: f.tok(token.ASSIGN_OPERATOR, op), Left: l, Operator: op, Right: r}
}

func (f *fixture) prefix(op string, r ast.Expression) *ast.PrefixExpression {
	return &ast.PrefixExpression{Token: f.tok(token.PREFIX, op), Operator: op, Right: r}
}

func (f *fixture) call(fn ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Token: f.tok(token.LPAREN, "("), Function: fn, Arguments: args}
}

// check runs expr as a unit, finalizes, and returns its resolved type.
func (f *fixture) check(expr ast.Expression) typesystem.Type {
	f.t.Helper()
	_, err := f.c.CheckUnit(expr)
	require.NoError(f.t, err)
	f.c.Finalize()
	ty, ok := f.c.TypeOf(expr)
	require.True(f.t, ok)
	return ty
}

func (f *fixture) codes() []diagnostics.ErrorCode {
	var codes []diagnostics.ErrorCode
	for _, d := range f.c.Bag.Errors() {
		codes = append(codes, d.Code)
	}
	return codes
}

func kinds(adjustments []analyzer.Adjustment) []analyzer.AdjustKind {
	var out []analyzer.AdjustKind
	for _, a := range adjustments {
		out = append(out, a.Kind)
	}
	return out
}

func TestStringPlusBorrowedString(t *testing.T) {
	f := newFixture(t)
	f.st.Define("s", typesystem.String(), "test")
	f.st.Define("t", typesystem.String(), "test")
	rhs := f.ref(f.id("t"), false)
	expr := f.infix(f.id("s"), "+", rhs)

	ty := f.check(expr)
	assert.True(t, typesystem.Equal(ty, typesystem.String()), "s + &t = %s", ty)
	assert.Empty(t, f.codes())

	assert.Equal(t,
		[]analyzer.AdjustKind{analyzer.AdjustDeref, analyzer.AdjustOverloadedDeref, analyzer.AdjustBorrow},
		kinds(f.c.AdjustmentsOf(rhs)))

	callee, ok := f.c.MethodCallOf(expr)
	require.True(t, ok)
	assert.Equal(t, "add", callee.Method)
	assert.Equal(t, "&str", callee.Inputs[1].String())

	o, ok := f.c.Operators().Outcome(expr)
	require.True(t, ok)
	assert.Equal(t, analyzer.OutcomeOverloaded, o.Kind)
}

func TestComparisonBorrowsBothOperands(t *testing.T) {
	f := newFixture(t)
	f.st.Define("s", typesystem.String(), "test")
	lhs, rhs := f.id("s"), f.str("x")
	expr := f.infix(lhs, "==", rhs)

	ty := f.check(expr)
	assert.True(t, typesystem.IsBool(ty))
	assert.Empty(t, f.codes())
	for _, operand := range []ast.Expression{lhs, rhs} {
		adj := f.c.AdjustmentsOf(operand)
		require.Len(t, adj, 1, "%s", operand)
		assert.Equal(t, analyzer.AdjustBorrow, adj[0].Kind)
		assert.False(t, adj[0].Mutable)
	}
	assert.Equal(t, "&&str", f.c.AdjustmentsOf(rhs)[0].Target.String())
}

func TestCompoundAssignment(t *testing.T) {
	t.Run("mutable", func(t *testing.T) {
		f := newFixture(t)
		f.st.DefineMutable("x", typesystem.Int("i64"), "test")
		lhs := f.id("x")
		ty := f.check(f.assign(lhs, "+=", f.lit("1", "")))
		assert.True(t, typesystem.IsUnit(ty))
		assert.Empty(t, f.codes())

		adj := f.c.AdjustmentsOf(lhs)
		require.Len(t, adj, 1)
		assert.True(t, adj[0].Mutable && adj[0].AllowTwoPhase)
	})

	t.Run("immutable", func(t *testing.T) {
		f := newFixture(t)
		f.st.Define("x", typesystem.Int("i64"), "test")
		f.check(f.assign(f.id("x"), "+=", f.lit("1", "")))
		assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrAssignImmutable}, f.codes())
	})

	t.Run("not a place", func(t *testing.T) {
		f := newFixture(t)
		ty := f.check(f.assign(f.lit("5", ""), "+=", f.lit("1", "")))
		assert.True(t, typesystem.IsUnit(ty))
		assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrInvalidAssignLhs}, f.codes())
	})

	t.Run("behind shared reference", func(t *testing.T) {
		f := newFixture(t)
		f.st.Define("r", typesystem.Ref(typesystem.Int("i32")), "test")
		f.check(f.assign(f.prefix("*", f.id("r")), "-=", f.lit("1", "")))
		assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrAssignBehindRef}, f.codes())
	})

	t.Run("string append", func(t *testing.T) {
		f := newFixture(t)
		f.st.DefineMutable("s", typesystem.String(), "test")
		ty := f.check(f.assign(f.id("s"), "+=", f.str("x")))
		assert.True(t, typesystem.IsUnit(ty))
		assert.Empty(t, f.codes())
	})
}

func TestLiteralFallback(t *testing.T) {
	f := newFixture(t)
	ints := f.infix(f.lit("1", ""), "+", f.lit("2", ""))
	floats := f.infix(f.flit("1.5"), "*", f.flit("2.0"))
	for _, e := range []ast.Expression{ints, floats} {
		_, err := f.c.CheckUnit(e)
		require.NoError(t, err)
	}
	f.c.Finalize()

	ty, _ := f.c.TypeOf(ints)
	assert.Equal(t, "i32", ty.String())
	ty, _ = f.c.TypeOf(floats)
	assert.Equal(t, "f64", ty.String())
	assert.Empty(t, f.codes())
	assert.Empty(t, f.c.Inference().PendingObligations())
}

func TestShiftKeepsLeftType(t *testing.T) {
	f := newFixture(t)
	ty := f.check(f.infix(f.lit("1", "u32"), "<<", f.lit("2", "")))
	assert.Equal(t, "u32", ty.String())
	assert.Empty(t, f.codes())
}

func TestUnsatisfiedOperandTrait(t *testing.T) {
	f := newFixture(t)
	f.st.DefineFunction("f", nil, typesystem.Int("i32"), true, "test")
	expr := f.infix(f.lit("1", ""), "+", f.id("f"))
	f.check(expr)

	errs := f.c.Bag.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrUnsatisfiedBound, errs[0].Code)
	assert.Equal(t, expr.Token, errs[0].Token)
	assert.Equal(t, "std::ops::Add", errs[0].Facts["trait"])
}

func TestErroneousOperandIsNotReportedAgain(t *testing.T) {
	f := newFixture(t)
	f.st.Define("m", typesystem.TCon{Name: "Meters", Local: true}, "test")
	f.check(f.infix(f.id("nope"), "+", f.lit("1", "")))
	f.check(f.infix(f.id("m"), "*", f.id("missing")))
	f.check(f.prefix("-", f.id("gone")))
	assert.Equal(t, []diagnostics.ErrorCode{
		diagnostics.ErrUnresolvedName, diagnostics.ErrUnresolvedName, diagnostics.ErrUnresolvedName,
	}, f.codes())
}

func TestImpossibleAssignmentAbortsUnit(t *testing.T) {
	f := newFixture(t)
	f.st.DefineMutable("b", typesystem.Bool(), "test")
	ty, err := f.c.CheckUnit(f.assign(f.id("b"), "&&=", f.id("b")))

	var bug *analyzer.BugError
	require.ErrorAs(t, err, &bug)
	assert.Contains(t, bug.Error(), "impossible assignment operation: &&=")
	assert.True(t, typesystem.IsError(ty))
	assert.True(t, f.c.Bag.HasCode(diagnostics.ErrInternal))

	// The checker is still usable for the next unit
	ty, err = f.c.CheckUnit(f.infix(f.id("b"), "||", f.id("b")))
	require.NoError(t, err)
	assert.True(t, typesystem.IsBool(ty))
}

func TestShortCircuitDivergence(t *testing.T) {
	f := newFixture(t)
	f.st.Define("b", typesystem.Bool(), "test")

	_, err := f.c.CheckUnit(f.infix(&ast.PanicExpression{Token: f.tok(token.PANIC, "panic!")}, "&&", f.id("b")))
	require.NoError(t, err)
	assert.Equal(t, analyzer.DivergesAlways, f.c.Diverges())

	_, err = f.c.CheckUnit(f.infix(f.id("b"), "||", &ast.PanicExpression{Token: f.tok(token.PANIC, "panic!")}))
	require.NoError(t, err)
	assert.Equal(t, analyzer.DivergesMaybe, f.c.Diverges())
	assert.Equal(t, 0, f.c.Operators().Resolver().Calls())
}

func TestNegateUnsignedKeepsType(t *testing.T) {
	f := newFixture(t)
	ty := f.check(f.prefix("-", f.lit("1", "u32")))
	assert.Equal(t, "u32", ty.String())
	errs := f.c.Bag.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrUnaryOp, errs[0].Code)
	assert.Equal(t, []string{"unsigned values cannot be negated"}, errs[0].Notes)
}

func TestDerefString(t *testing.T) {
	f := newFixture(t)
	f.st.Define("s", typesystem.String(), "test")
	ty := f.check(f.ref(f.prefix("*", f.id("s")), false))
	assert.Equal(t, "&str", ty.String())
	assert.Empty(t, f.codes())
}

func TestMutableBorrowOfImmutable(t *testing.T) {
	f := newFixture(t)
	f.st.Define("x", typesystem.Int("i32"), "test")
	ty := f.check(f.ref(f.id("x"), true))
	assert.Equal(t, "&mut i32", ty.String())
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrNotMutable}, f.codes())
}

func TestCalls(t *testing.T) {
	i32 := typesystem.Int("i32")

	t.Run("result feeds the operator", func(t *testing.T) {
		f := newFixture(t)
		f.st.DefineFunction("f", []typesystem.Type{i32}, i32, true, "test")
		ty := f.check(f.infix(f.call(f.id("f"), f.lit("1", "")), "+", f.lit("2", "")))
		assert.Equal(t, "i32", ty.String())
		assert.Empty(t, f.codes())
	})

	t.Run("arity", func(t *testing.T) {
		f := newFixture(t)
		f.st.DefineFunction("f", []typesystem.Type{i32}, i32, true, "test")
		f.check(f.call(f.id("f")))
		assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrArgCount}, f.codes())
	})

	t.Run("not callable", func(t *testing.T) {
		f := newFixture(t)
		f.st.Define("x", i32, "test")
		ty := f.check(f.call(f.id("x")))
		assert.True(t, typesystem.IsError(ty))
		assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrNotCallable}, f.codes())
	})

	t.Run("uncalled function operand", func(t *testing.T) {
		f := newFixture(t)
		f.st.DefineFunction("f", nil, i32, true, "test")
		f.check(f.infix(f.id("f"), "+", f.lit("1", "")))
		errs := f.c.Bag.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, diagnostics.ErrBinaryOp, errs[0].Code)
		require.Len(t, errs[0].Suggestions, 1)
		assert.Equal(t, "f()", errs[0].Suggestions[0].Edits[0].Replacement)
	})
}

func TestSimdComparisonIsOverloaded(t *testing.T) {
	f := newFixture(t)
	v := typesystem.TSimd{Elem: typesystem.Float("f32"), Lanes: 4}
	f.st.Define("v", v, "test")
	f.check(f.infix(f.id("v"), "==", f.id("v")))
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrBinaryOp}, f.codes())
}

func TestUnknownVariableType(t *testing.T) {
	f := newFixture(t)
	f.st.Define("x", f.c.Inference().FreshVar("the binding x"), "test")
	lhs := f.id("x")
	f.check(f.infix(lhs, "==", f.id("x")))
	errs := f.c.Bag.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrTypeAnnotations, errs[0].Code)
	assert.Equal(t, lhs.Token, errs[0].Token)

	// Unknown types after other errors are not reported
	f = newFixture(t)
	f.st.Define("x", f.c.Inference().FreshVar("the binding x"), "test")
	_, err := f.c.CheckUnit(f.infix(f.id("x"), "==", f.id("x")))
	require.NoError(t, err)
	_, err = f.c.CheckUnit(f.call(f.id("g")))
	require.NoError(t, err)
	f.c.Finalize()
	assert.Equal(t, []diagnostics.ErrorCode{diagnostics.ErrUnresolvedName}, f.codes())
}
