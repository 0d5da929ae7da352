package analyzer

import (
	"testing"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// fakeChecker is a minimal expression checker: identifiers come from env,
// literals are typed directly, operators go back to the OperatorChecker.
type fakeChecker struct {
	t        *testing.T
	ctx      *infer.InferenceContext
	ops      *OperatorChecker
	env      map[string]typesystem.Type
	diverges Diverges

	adjustments map[ast.Expression][]Adjustment
	calls       map[ast.Expression]*symbols.MethodCallee
	reports     []*diagnostics.DiagnosticError
}

type harness struct {
	*fakeChecker
	st       *symbols.SymbolTable
	resolver *OverloadResolver
}

func newHarness(t *testing.T) *harness {
	st := symbols.NewSymbolTable()
	ctx := infer.NewInferenceContext()
	ctx.Solver = st
	ctx.Derefs = st
	resolver := NewOverloadResolver(config.DefaultLangItems(), st, ctx)
	fc := &fakeChecker{
		t:           t,
		ctx:         ctx,
		env:         make(map[string]typesystem.Type),
		adjustments: make(map[ast.Expression][]Adjustment),
		calls:       make(map[ast.Expression]*symbols.MethodCallee),
	}
	fc.ops = NewOperatorChecker(fc, ctx, resolver)
	return &harness{fakeChecker: fc, st: st, resolver: resolver}
}

func (f *fakeChecker) check(expr ast.Expression) typesystem.Type {
	return f.ctx.Resolve(f.typeOf(expr))
}

func (f *fakeChecker) typeOf(expr ast.Expression) typesystem.Type {
	switch e := expr.(type) {
	case *ast.Identifier:
		t, ok := f.env[e.Value]
		if !ok {
			f.t.Fatalf("unknown identifier %s", e.Value)
		}
		return t
	case *ast.IntegerLiteral:
		if e.Suffix != "" {
			return typesystem.Int(e.Suffix)
		}
		return f.ctx.FreshIntVar()
	case *ast.FloatLiteral:
		if e.Suffix != "" {
			return typesystem.Float(e.Suffix)
		}
		return f.ctx.FreshFloatVar()
	case *ast.BooleanLiteral:
		return typesystem.Bool()
	case *ast.StringLiteral:
		return typesystem.Ref(typesystem.Str())
	case *ast.PanicExpression:
		f.diverges = DivergesAlways
		return typesystem.TNever{}
	case *ast.ReferenceExpression:
		return typesystem.TRef{Elem: f.typeOf(e.Value), Mutable: e.Mutable}
	case *ast.ParenExpression:
		return f.typeOf(e.Inner)
	case *ast.InfixExpression:
		op, ok := ParseBinOp(e.Operator)
		if !ok {
			f.t.Fatalf("unknown operator %s", e.Operator)
		}
		return f.ops.CheckBinop(e, op, e.Left, e.Right)
	case *ast.AssignOpExpression:
		op, ok := ParseAssignOp(e.Operator)
		if !ok {
			f.t.Fatalf("unknown operator %s", e.Operator)
		}
		return f.ops.CheckBinopAssign(e, op, e.Left, e.Right)
	case *ast.PrefixExpression:
		op, ok := ParseUnOp(e.Operator)
		if !ok {
			f.t.Fatalf("unknown operator %s", e.Operator)
		}
		return f.ops.CheckUnary(e, op, e.Right)
	}
	f.t.Fatalf("unsupported expression %T", expr)
	return nil
}

func (f *fakeChecker) CheckExprWithNeeds(expr ast.Expression, needs Needs) typesystem.Type {
	return f.typeOf(expr)
}

func (f *fakeChecker) CheckExprCoercible(expr ast.Expression, expected typesystem.Type) typesystem.Type {
	return f.DemandCoerce(expr, f.typeOf(expr), expected)
}

func (f *fakeChecker) DemandCoerce(expr ast.Expression, actual, expected typesystem.Type) typesystem.Type {
	target, steps, err := f.ctx.Coerce(actual, expected)
	if err != nil {
		f.Report(diagnostics.NewError(diagnostics.ErrMismatchedTypes, expr.GetToken(), err.Error()))
		return expected
	}
	for _, s := range steps {
		f.adjustments[expr] = append(f.adjustments[expr], Adjustment{Kind: AdjustKind(s.Kind), Target: s.Target, Mutable: s.Mutable})
	}
	return target
}

func (f *fakeChecker) DemandSuptype(tok token.Token, expected, actual typesystem.Type) {
	if err := f.ctx.Subtype(expected, actual); err != nil {
		f.Report(diagnostics.NewError(diagnostics.ErrMismatchedTypes, tok, err.Error()))
	}
}

func (f *fakeChecker) CheckLhsAssignable(lhs ast.Expression, code diagnostics.ErrorCode, opTok token.Token) {
	if _, ok := lhs.(*ast.Identifier); !ok {
		f.Report(diagnostics.NewError(code, opTok, "invalid left-hand side of assignment"))
	}
}

func (f *fakeChecker) Diverges() Diverges     { return f.diverges }
func (f *fakeChecker) SetDiverges(d Diverges) { f.diverges = d }

func (f *fakeChecker) ApplyAdjustments(expr ast.Expression, adjustments []Adjustment) {
	if len(f.adjustments[expr]) > 0 {
		f.t.Fatalf("expression %s already has adjustments", expr)
	}
	f.adjustments[expr] = adjustments
}

func (f *fakeChecker) PushAdjustment(expr ast.Expression, adjustment Adjustment) {
	f.adjustments[expr] = append(f.adjustments[expr], adjustment)
}

func (f *fakeChecker) RecordMethodCall(expr ast.Expression, callee *symbols.MethodCallee) {
	f.calls[expr] = callee
}

func (f *fakeChecker) Report(err *diagnostics.DiagnosticError) {
	f.reports = append(f.reports, err)
}

func (f *fakeChecker) codes() []diagnostics.ErrorCode {
	var codes []diagnostics.ErrorCode
	for _, r := range f.reports {
		codes = append(codes, r.Code)
	}
	return codes
}

// AST builders

var column int

func tok(tt token.TokenType, lexeme string) token.Token {
	column++
	return token.New(tt, lexeme, 1, column)
}

func id(name string) *ast.Identifier {
	return &ast.Identifier{Token: tok(token.IDENT, name), Value: name}
}

func lit(value, suffix string) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Token: tok(token.INT, value+suffix), Value: value, Suffix: suffix}
}

func flit(value, suffix string) *ast.FloatLiteral {
	return &ast.FloatLiteral{Token: tok(token.FLOAT, value+suffix), Value: value, Suffix: suffix}
}

func str(value string) *ast.StringLiteral {
	return &ast.StringLiteral{Token: tok(token.STRING, value), Value: value}
}

func boolean(v bool) *ast.BooleanLiteral {
	return &ast.BooleanLiteral{Token: tok(token.TRUE, "true"), Value: v}
}

func panicE() *ast.PanicExpression {
	return &ast.PanicExpression{Token: tok(token.PANIC, "panic!")}
}

func ref(e ast.Expression) *ast.ReferenceExpression {
	return &ast.ReferenceExpression{Token: tok(token.AMPERSAND, "&"), Value: e}
}

func infix(l ast.Expression, op string, r ast.Expression) *ast.InfixExpression {
	return &ast.InfixExpression{Token: tok(token.OPERATOR, op), Left: l, Operator: op, Right: r}
}

func assign(l ast.Expression, op string, r ast.Expression) *ast.AssignOpExpression {
	return &ast.AssignOpExpression{Token: tok(token.ASSIGN_OPERATOR, op), Left: l, Operator: op, Right: r}
}

func prefix(op string, r ast.Expression) *ast.PrefixExpression {
	return &ast.PrefixExpression{Token: tok(token.PREFIX, op), Operator: op, Right: r}
}
