package exprcheck

import (
	"fmt"
	"io"
	"strings"

	"github.com/funvibe/opcheck/internal/analyzer"
	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// Checker types expression trees. Leaves, calls and references are typed
// here; operator nodes are handed to the analyzer's OperatorChecker, which
// calls back into the Checker for its operands.
type Checker struct {
	st    *symbols.SymbolTable
	infer *infer.InferenceContext
	ops   *analyzer.OperatorChecker

	Bag         *diagnostics.Bag
	TypeMap     map[ast.Expression]typesystem.Type
	Adjustments map[ast.Expression][]analyzer.Adjustment
	MethodCalls map[ast.Expression]*symbols.MethodCallee

	diverges analyzer.Diverges
	// order lists typed expressions children first
	order []ast.Expression
}

// New creates a checker over st. The symbol table also serves as the
// obligation solver and deref source of the inference context.
func New(st *symbols.SymbolTable, items *config.LangItems, file string) *Checker {
	ctx := infer.NewInferenceContext()
	ctx.Solver = st
	ctx.Derefs = st

	c := &Checker{
		st:          st,
		infer:       ctx,
		Bag:         diagnostics.NewBag(file),
		TypeMap:     make(map[ast.Expression]typesystem.Type),
		Adjustments: make(map[ast.Expression][]analyzer.Adjustment),
		MethodCalls: make(map[ast.Expression]*symbols.MethodCallee),
	}
	c.ops = analyzer.NewOperatorChecker(c, ctx, analyzer.NewOverloadResolver(items, st, ctx))
	return c
}

func (c *Checker) Operators() *analyzer.OperatorChecker { return c.ops }

func (c *Checker) Inference() *infer.InferenceContext { return c.infer }

// SetTrace writes a line per operator check and trait lookup to w.
func (c *Checker) SetTrace(w io.Writer) { c.ops.SetTrace(w) }

// CheckUnit checks one top-level expression. An internal-consistency
// violation aborts the unit: it is reported as an ICE diagnostic and
// returned as the error.
func (c *Checker) CheckUnit(expr ast.Expression) (ty typesystem.Type, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(*analyzer.BugError)
			if !ok {
				panic(r)
			}
			c.Bag.Add(diagnostics.NewError(diagnostics.ErrInternal, b.Token, b.Error()))
			ty, err = typesystem.TError{}, b
		}
	}()
	c.diverges = analyzer.DivergesMaybe
	return c.CheckExpr(expr), nil
}

func (c *Checker) CheckExpr(expr ast.Expression) typesystem.Type {
	return c.CheckExprWithNeeds(expr, analyzer.NeedsNone)
}

// CheckExprWithNeeds types expr. Under NeedsMutPlace the type is taken as
// is, without any coercion; whether expr really is an assignable place is
// decided by CheckLhsAssignable.
func (c *Checker) CheckExprWithNeeds(expr ast.Expression, needs analyzer.Needs) typesystem.Type {
	// Divergence is tracked per expression and merged into the enclosing one.
	old := c.diverges
	c.diverges = analyzer.DivergesMaybe

	ty := c.checkExprKind(expr, needs)
	if typesystem.IsNever(c.infer.Resolve(ty)) {
		c.diverges = analyzer.DivergesAlways
	}
	if old == analyzer.DivergesAlways {
		c.diverges = analyzer.DivergesAlways
	}

	c.TypeMap[expr] = ty
	c.order = append(c.order, expr)
	return ty
}

func (c *Checker) checkExprKind(expr ast.Expression, needs analyzer.Needs) typesystem.Type {
	switch e := expr.(type) {
	case *ast.Identifier:
		return c.checkIdentifier(e)
	case *ast.IntegerLiteral:
		if e.Suffix == "" {
			return c.infer.FreshIntVar()
		}
		return typesystem.Int(e.Suffix)
	case *ast.FloatLiteral:
		if e.Suffix == "" {
			return c.infer.FreshFloatVar()
		}
		return typesystem.Float(e.Suffix)
	case *ast.BooleanLiteral:
		return typesystem.Bool()
	case *ast.CharLiteral:
		return typesystem.Char()
	case *ast.StringLiteral:
		return typesystem.Ref(typesystem.Str())
	case *ast.PanicExpression:
		return typesystem.TNever{}
	case *ast.TupleLiteral:
		elems := make([]typesystem.Type, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = c.CheckExpr(el)
		}
		return typesystem.TTuple{Elements: elems}
	case *ast.ParenExpression:
		return c.CheckExprWithNeeds(e.Inner, needs)
	case *ast.ReferenceExpression:
		return c.checkReference(e)
	case *ast.CallExpression:
		return c.checkCall(e)

	case *ast.InfixExpression:
		op, ok := analyzer.ParseBinOp(e.Operator)
		if !ok {
			panic(analyzer.Bug(e.Token, "unknown binary operator %q", e.Operator))
		}
		return c.ops.CheckBinop(e, op, e.Left, e.Right)
	case *ast.AssignOpExpression:
		// Forms such as `&&=` reach the operator checker, which rejects them.
		op, ok := analyzer.ParseBinOp(strings.TrimSuffix(e.Operator, "="))
		if !ok || !strings.HasSuffix(e.Operator, "=") {
			panic(analyzer.Bug(e.Token, "unknown assignment operator %q", e.Operator))
		}
		return c.ops.CheckBinopAssign(e, op, e.Left, e.Right)
	case *ast.PrefixExpression:
		op, ok := analyzer.ParseUnOp(e.Operator)
		if !ok {
			panic(analyzer.Bug(e.Token, "unknown unary operator %q", e.Operator))
		}
		return c.ops.CheckUnary(e, op, e.Right)
	}
	panic(analyzer.Bug(expr.GetToken(), "unexpected expression %T", expr))
}

func (c *Checker) checkIdentifier(e *ast.Identifier) typesystem.Type {
	sym, ok := c.st.Find(e.Value)
	if !ok {
		c.Report(diagnostics.NewError(diagnostics.ErrUnresolvedName, e.Token,
			fmt.Sprintf("cannot find value `%s` in this scope", e.Value)).
			WithPrimaryLabel("not found in this scope"))
		return typesystem.TError{}
	}
	if sym.Kind == symbols.TypeSymbol {
		c.Report(diagnostics.NewError(diagnostics.ErrUnresolvedName, e.Token,
			fmt.Sprintf("expected value, found type `%s`", e.Value)).
			WithPrimaryLabel("not a value"))
		return typesystem.TError{}
	}
	return sym.Type
}

func (c *Checker) checkReference(e *ast.ReferenceExpression) typesystem.Type {
	needs := analyzer.NeedsNone
	if e.Mutable {
		needs = analyzer.NeedsMutPlace
	}
	elem := c.CheckExprWithNeeds(e.Value, needs)
	if e.Mutable && !typesystem.ReferencesError(c.infer.Resolve(elem)) {
		if p, ok := c.place(e.Value); ok && !p.mutable && p.name != "" {
			c.Report(diagnostics.NewError(diagnostics.ErrNotMutable, e.Token,
				fmt.Sprintf("cannot borrow `%s` as mutable, as it is not declared as mutable", p.name)).
				WithPrimaryLabel("cannot borrow as mutable"))
		}
	}
	return typesystem.TRef{Elem: elem, Mutable: e.Mutable}
}

func (c *Checker) checkCall(e *ast.CallExpression) typesystem.Type {
	calleeTy := c.infer.Resolve(c.CheckExpr(e.Function))

	var params []typesystem.Type
	var ret typesystem.Type
	switch fn := calleeTy.(type) {
	case typesystem.TFnDef:
		params, ret = fn.Params, fn.ReturnType
	case typesystem.TFunc:
		params, ret = fn.Params, fn.ReturnType
	case typesystem.TError:
		c.checkArgs(e.Arguments, nil)
		return calleeTy
	default:
		c.Report(diagnostics.NewError(diagnostics.ErrNotCallable, e.Token,
			fmt.Sprintf("expected function, found `%s`", calleeTy)).
			WithLabel(ast.StartToken(e.Function), "call expression requires function"))
		c.checkArgs(e.Arguments, nil)
		return typesystem.TError{}
	}

	if len(params) != len(e.Arguments) {
		c.Report(diagnostics.NewError(diagnostics.ErrArgCount, e.Token,
			fmt.Sprintf("this function takes %d argument%s but %d argument%s supplied",
				len(params), plural(len(params), "", "s"), len(e.Arguments), plural(len(e.Arguments), " was", "s were"))))
	}
	c.checkArgs(e.Arguments, params)
	return ret
}

// checkArgs coerces each argument to its parameter type; extra arguments
// are only typed.
func (c *Checker) checkArgs(args []ast.Expression, params []typesystem.Type) {
	for i, arg := range args {
		if i < len(params) {
			c.CheckExprCoercible(arg, params[i])
		} else {
			c.CheckExpr(arg)
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (c *Checker) CheckExprCoercible(expr ast.Expression, expected typesystem.Type) typesystem.Type {
	ty := c.CheckExprWithNeeds(expr, analyzer.NeedsNone)
	return c.DemandCoerce(expr, ty, expected)
}

// DemandCoerce coerces actual to expected and records the coercion steps
// as adjustments of expr. On mismatch it reports E0308 and returns expected.
func (c *Checker) DemandCoerce(expr ast.Expression, actual, expected typesystem.Type) typesystem.Type {
	target, steps, err := c.infer.Coerce(actual, expected)
	if err != nil {
		c.Report(mismatch(ast.StartToken(expr), c.infer.Resolve(expected), c.infer.Resolve(actual)))
		return c.infer.Resolve(expected)
	}
	if len(steps) > 0 {
		adjustments := make([]analyzer.Adjustment, len(steps))
		for i, s := range steps {
			adjustments[i] = analyzer.Adjustment{Kind: adjustKind(s.Kind), Target: s.Target, Mutable: s.Mutable}
		}
		c.ApplyAdjustments(expr, adjustments)
	}
	return target
}

func adjustKind(k infer.StepKind) analyzer.AdjustKind {
	switch k {
	case infer.StepNeverToAny:
		return analyzer.AdjustNeverToAny
	case infer.StepDeref:
		return analyzer.AdjustDeref
	case infer.StepOverloadedDeref:
		return analyzer.AdjustOverloadedDeref
	case infer.StepBorrow:
		return analyzer.AdjustBorrow
	case infer.StepReifyFnPointer:
		return analyzer.AdjustReifyFnPointer
	}
	panic(analyzer.Bug(token.Token{}, "unknown coercion step %s", k))
}

func (c *Checker) DemandSuptype(tok token.Token, expected, actual typesystem.Type) {
	if err := c.infer.Subtype(expected, actual); err != nil {
		c.Report(mismatch(tok, c.infer.Resolve(expected), c.infer.Resolve(actual)))
	}
}

func mismatch(tok token.Token, expected, actual typesystem.Type) *diagnostics.DiagnosticError {
	return diagnostics.NewError(diagnostics.ErrMismatchedTypes, tok, "mismatched types").
		WithPrimaryLabel(fmt.Sprintf("expected `%s`, found `%s`", expected, actual)).
		WithFact("expected", expected.String()).
		WithFact("found", actual.String())
}

func (c *Checker) Diverges() analyzer.Diverges { return c.diverges }

func (c *Checker) SetDiverges(d analyzer.Diverges) { c.diverges = d }

// ApplyAdjustments sets the adjustments of expr. An expression coerced
// from `!` keeps its never-to-any step and ignores later ones.
func (c *Checker) ApplyAdjustments(expr ast.Expression, adjustments []analyzer.Adjustment) {
	if prev := c.Adjustments[expr]; len(prev) > 0 {
		if len(prev) == 1 && prev[0].Kind == analyzer.AdjustNeverToAny {
			return
		}
		panic(analyzer.Bug(ast.StartToken(expr), "`%s` already has adjustments %v, cannot apply %v", expr, prev, adjustments))
	}
	c.Adjustments[expr] = adjustments
}

func (c *Checker) PushAdjustment(expr ast.Expression, adjustment analyzer.Adjustment) {
	c.Adjustments[expr] = append(c.Adjustments[expr], adjustment)
}

func (c *Checker) RecordMethodCall(expr ast.Expression, callee *symbols.MethodCallee) {
	c.MethodCalls[expr] = callee
}

func (c *Checker) Report(err *diagnostics.DiagnosticError) {
	c.Bag.Add(err)
}
