package infer

import (
	"fmt"

	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// InferenceContext holds the state for a type inference pass: the pool of
// inference variables, the accumulated substitution and the pending trait
// obligations. A single context is shared by everything that checks one unit.
type InferenceContext struct {
	counter int
	// GlobalSubst stores the accumulated substitution for the entire inference pass
	GlobalSubst typesystem.Subst
	// Obligations are trait obligations that could not be decided yet
	Obligations []Obligation
	// Unsatisfied collects obligations the solver proved impossible
	Unsatisfied []Obligation
	// Origins records why each variable was created, for diagnostics
	Origins map[string]string
	// Solver selects impls for obligations. Without one every obligation stays pending.
	Solver ObligationSolver
	// Derefs answers overloaded-deref queries during coercion
	Derefs DerefSource

	literals []typesystem.TVar
}

// NewInferenceContext creates a new inference context.
func NewInferenceContext() *InferenceContext {
	return &InferenceContext{
		GlobalSubst: make(typesystem.Subst),
		Obligations: make([]Obligation, 0),
		Origins:     make(map[string]string),
	}
}

// FreshVar generates a fresh general inference variable.
func (ctx *InferenceContext) FreshVar(origin string) typesystem.TVar {
	return ctx.fresh(origin, typesystem.General)
}

// FreshIntVar generates the variable of an unsuffixed integer literal.
func (ctx *InferenceContext) FreshIntVar() typesystem.TVar {
	return ctx.fresh("integer literal", typesystem.IntLit)
}

// FreshFloatVar generates the variable of an unsuffixed float literal.
func (ctx *InferenceContext) FreshFloatVar() typesystem.TVar {
	return ctx.fresh("float literal", typesystem.FloatLit)
}

func (ctx *InferenceContext) fresh(origin string, lit typesystem.LitKind) typesystem.TVar {
	ctx.counter++
	tv := typesystem.TVar{Name: fmt.Sprintf("?%d", ctx.counter), Lit: lit}
	ctx.Origins[tv.Name] = origin
	if lit != typesystem.General {
		ctx.literals = append(ctx.literals, tv)
	}
	return tv
}

// Resolve applies everything known so far to t.
func (ctx *InferenceContext) Resolve(t typesystem.Type) typesystem.Type {
	if t == nil {
		return nil
	}
	return t.Apply(ctx.GlobalSubst)
}

// ResolveWithObligations makes progress on pending obligations before
// resolving t, so that associated outputs already decidable are known.
func (ctx *InferenceContext) ResolveWithObligations(t typesystem.Type) typesystem.Type {
	ctx.SelectWherePossible()
	return ctx.Resolve(t)
}

// Unify makes a and b equal, extending the global substitution.
func (ctx *InferenceContext) Unify(a, b typesystem.Type) error {
	subst, err := typesystem.Unify(ctx.Resolve(a), ctx.Resolve(b))
	if err != nil {
		return err
	}
	ctx.extend(subst)
	return nil
}

func (ctx *InferenceContext) extend(subst typesystem.Subst) {
	if len(subst) == 0 {
		return
	}
	if ctx.GlobalSubst == nil {
		ctx.GlobalSubst = make(typesystem.Subst)
	}
	ctx.GlobalSubst = subst.Compose(ctx.GlobalSubst)
}

// Subtype requires actual to be usable where expected is. The never type is
// a subtype of everything; all other types are invariant.
func (ctx *InferenceContext) Subtype(expected, actual typesystem.Type) error {
	if typesystem.IsNever(ctx.Resolve(actual)) {
		return nil
	}
	return ctx.Unify(expected, actual)
}

// Fallback defaults every still-unresolved literal variable: integers to
// i32, floats to f64. It returns the number of variables defaulted.
func (ctx *InferenceContext) Fallback() int {
	n := 0
	for _, lit := range ctx.literals {
		tv, ok := ctx.Resolve(lit).(typesystem.TVar)
		if !ok {
			continue
		}
		fallback := typesystem.Int(config.IntFallbackTypeName)
		if tv.Lit == typesystem.FloatLit {
			fallback = typesystem.Float(config.FloatFallbackTypeName)
		}
		if err := ctx.Unify(tv, fallback); err == nil {
			n++
		}
	}
	return n
}

// Snapshot captures the mutable inference state.
type Snapshot struct {
	subst       typesystem.Subst
	obligations []Obligation
	unsatisfied int
	literals    int
}

// Snapshot records the current state so it can be rolled back.
func (ctx *InferenceContext) Snapshot() Snapshot {
	return Snapshot{
		subst:       ctx.GlobalSubst.Clone(),
		obligations: append([]Obligation(nil), ctx.Obligations...),
		unsatisfied: len(ctx.Unsatisfied),
		literals:    len(ctx.literals),
	}
}

// Rollback restores a snapshot. Variables created since stay allocated but
// forget their bindings.
func (ctx *InferenceContext) Rollback(s Snapshot) {
	ctx.GlobalSubst = s.subst
	ctx.Obligations = s.obligations
	ctx.Unsatisfied = ctx.Unsatisfied[:s.unsatisfied]
	ctx.literals = ctx.literals[:s.literals]
}

// Probe runs fn and undoes everything it did to the context.
func (ctx *InferenceContext) Probe(fn func() bool) bool {
	snap := ctx.Snapshot()
	defer ctx.Rollback(snap)
	return fn()
}

// Try runs fn and keeps its effects only if it succeeds.
func (ctx *InferenceContext) Try(fn func() error) error {
	snap := ctx.Snapshot()
	if err := fn(); err != nil {
		ctx.Rollback(snap)
		return err
	}
	return nil
}
