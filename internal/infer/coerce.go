package infer

import (
	"github.com/funvibe/opcheck/internal/typesystem"
)

// maxDerefSteps bounds deref coercion chains
const maxDerefSteps = 8

// StepKind is one implicit conversion applied by a coercion.
type StepKind int

const (
	StepNeverToAny StepKind = iota
	StepDeref
	StepOverloadedDeref
	StepBorrow
	StepReifyFnPointer
)

func (k StepKind) String() string {
	switch k {
	case StepNeverToAny:
		return "never-to-any"
	case StepDeref:
		return "deref"
	case StepOverloadedDeref:
		return "overloaded-deref"
	case StepBorrow:
		return "borrow"
	case StepReifyFnPointer:
		return "reify-fn-pointer"
	}
	return "unknown"
}

// Step records a conversion and the type it produces.
type Step struct {
	Kind    StepKind
	Target  typesystem.Type
	Mutable bool
}

// Coerce makes actual usable where expected is, allowing the implicit
// conversions: `!` to any type, `&mut T` to `&T`, deref coercion `&U` to `&T`
// when U derefs to T, and fn items to fn pointers. It returns the coerced
// type and the conversion steps, empty when the types simply unified.
func (ctx *InferenceContext) Coerce(actual, expected typesystem.Type) (typesystem.Type, []Step, error) {
	a := ctx.Resolve(actual)
	e := ctx.Resolve(expected)

	if typesystem.IsNever(a) {
		return e, []Step{{Kind: StepNeverToAny, Target: e}}, nil
	}
	if typesystem.IsError(a) || typesystem.IsError(e) {
		// Binds any variable on the other side to the error type.
		_ = ctx.Unify(e, a)
		return ctx.Resolve(e), nil, nil
	}

	if aRef, ok := a.(typesystem.TRef); ok {
		if eRef, ok := e.(typesystem.TRef); ok {
			return ctx.coerceBorrowed(aRef, eRef)
		}
	}

	if fnDef, ok := a.(typesystem.TFnDef); ok {
		if fnPtr, ok := e.(typesystem.TFunc); ok {
			ptr := fnDef.Pointer()
			if err := ctx.Unify(fnPtr, ptr); err != nil {
				return nil, nil, err
			}
			return ctx.Resolve(fnPtr), []Step{{Kind: StepReifyFnPointer, Target: ptr}}, nil
		}
	}

	if err := ctx.Unify(e, a); err != nil {
		return nil, nil, err
	}
	return ctx.Resolve(e), nil, nil
}

// coerceBorrowed autoderefs the referent of actual until it matches the
// referent of expected, then reborrows.
func (ctx *InferenceContext) coerceBorrowed(a, e typesystem.TRef) (typesystem.Type, []Step, error) {
	if e.Mutable && !a.Mutable {
		return nil, nil, &typesystem.UnifyError{Expected: e, Actual: a, Reason: "types differ in mutability"}
	}

	target := a.Elem
	steps := []Step{{Kind: StepDeref, Target: target}}
	for i := 0; i < maxDerefSteps; i++ {
		if err := ctx.Try(func() error { return ctx.Unify(e.Elem, target) }); err == nil {
			if i == 0 && a.Mutable == e.Mutable {
				return ctx.Resolve(e), nil, nil
			}
			steps = append(steps, Step{Kind: StepBorrow, Target: ctx.Resolve(e), Mutable: e.Mutable})
			return ctx.Resolve(e), steps, nil
		}

		// Only look through types that are known
		resolved := ctx.Resolve(target)
		if typesystem.IsTyVar(resolved) {
			break
		}
		if ref, ok := resolved.(typesystem.TRef); ok {
			target = ref.Elem
			steps = append(steps, Step{Kind: StepDeref, Target: target})
			continue
		}
		if ctx.Derefs == nil {
			break
		}
		next, ok := ctx.Derefs.DerefTarget(ctx, resolved)
		if !ok {
			break
		}
		target = next
		steps = append(steps, Step{Kind: StepOverloadedDeref, Target: target})
	}
	return nil, nil, &typesystem.UnifyError{Expected: e, Actual: a}
}
