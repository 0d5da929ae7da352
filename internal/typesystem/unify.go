package typesystem

import (
	"fmt"
)

// UnifyError reports two types that cannot be made equal.
type UnifyError struct {
	Expected Type
	Actual   Type
	Reason   string
}

func (e *UnifyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: expected %s, found %s", e.Reason, e.Expected, e.Actual)
	}
	return fmt.Sprintf("cannot unify %s with %s", e.Expected, e.Actual)
}

// Unify attempts to find a substitution that makes t1 and t2 equal.
// It enforces strict equality (invariant). The error sentinel unifies with
// everything; a variable unified with it is bound to it.
func Unify(t1, t2 Type) (Subst, error) {
	return unifyInternal(t1, t2)
}

func unifyInternal(t1, t2 Type) (Subst, error) {
	if Equal(t1, t2) {
		return Subst{}, nil
	}

	// Variables on either side; literal variables bind last so that a
	// general variable meeting a literal takes on its literal-ness.
	if v1, ok := t1.(TVar); ok {
		if v2, ok := t2.(TVar); ok {
			return bindVars(v1, v2)
		}
		return Bind(v1, t2)
	}
	if v2, ok := t2.(TVar); ok {
		return Bind(v2, t1)
	}
	if IsError(t1) || IsError(t2) {
		return Subst{}, nil
	}

	switch t1 := t1.(type) {
	case TCon, TParam:
		// Equal already compared name and module
		return nil, errUnify(t1, t2)

	case TApp:
		t2App, ok := t2.(TApp)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		if len(t1.Args) != len(t2App.Args) {
			return nil, errUnifyMsg(t1, t2, "type argument count mismatch")
		}
		s1, err := unifyInternal(t1.Constructor, t2App.Constructor)
		if err != nil {
			return nil, err
		}
		return unifyPairwise(t1.Args, t2App.Args, s1)

	case TRef:
		t2Ref, ok := t2.(TRef)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		if t1.Mutable != t2Ref.Mutable {
			return nil, errUnifyMsg(t1, t2, "types differ in mutability")
		}
		return unifyInternal(t1.Elem, t2Ref.Elem)

	case TTuple:
		t2Tuple, ok := t2.(TTuple)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		if len(t1.Elements) != len(t2Tuple.Elements) {
			return nil, errUnifyMsg(t1, t2, fmt.Sprintf("tuple length mismatch: %d vs %d", len(t1.Elements), len(t2Tuple.Elements)))
		}
		return unifyPairwise(t1.Elements, t2Tuple.Elements, Subst{})

	case TArray:
		t2Arr, ok := t2.(TArray)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		if t1.Len != t2Arr.Len {
			return nil, errUnifyMsg(t1, t2, fmt.Sprintf("array length mismatch: %d vs %d", t1.Len, t2Arr.Len))
		}
		return unifyInternal(t1.Elem, t2Arr.Elem)

	case TSimd:
		t2Simd, ok := t2.(TSimd)
		if !ok || t1.Lanes != t2Simd.Lanes {
			return nil, errUnify(t1, t2)
		}
		return unifyInternal(t1.Elem, t2Simd.Elem)

	case TFunc:
		t2Fn, ok := t2.(TFunc)
		if !ok {
			return nil, errUnify(t1, t2)
		}
		return unifySignatures(t1, t2, t1.Params, t2Fn.Params, t1.ReturnType, t2Fn.ReturnType)

	case TFnDef:
		// Distinct function items never unify; Equal handled the same item
		return nil, errUnify(t1, t2)

	case TNever:
		return nil, errUnify(t1, t2)

	default:
		return nil, errMismatch(fmt.Sprintf("unknown type kind: %T", t1))
	}
}

func unifySignatures(t1, t2 Type, p1, p2 []Type, r1, r2 Type) (Subst, error) {
	if len(p1) != len(p2) {
		return nil, errUnifyMsg(t1, t2, fmt.Sprintf("function parameter count mismatch: %d vs %d", len(p1), len(p2)))
	}
	s1, err := unifyPairwise(p1, p2, Subst{})
	if err != nil {
		return nil, err
	}
	s2, err := unifyInternal(r1.Apply(s1), r2.Apply(s1))
	if err != nil {
		return nil, err
	}
	return s1.Compose(s2), nil
}

func unifyPairwise(a, b []Type, s1 Subst) (Subst, error) {
	for i := 0; i < len(a); i++ {
		arg1 := a[i].Apply(s1)
		arg2 := b[i].Apply(s1)
		s2, err := unifyInternal(arg1, arg2)
		if err != nil {
			return nil, err
		}
		s1 = s1.Compose(s2)
	}
	return s1, nil
}

func bindVars(v1, v2 TVar) (Subst, error) {
	switch {
	case v1.Lit == General:
		return Subst{v1.Name: v2}, nil
	case v2.Lit == General:
		return Subst{v2.Name: v1}, nil
	case v1.Lit == v2.Lit:
		return Subst{v1.Name: v2}, nil
	default:
		return nil, errUnify(v1, v2)
	}
}

// Bind binds a type variable to a type, performing the occurs check.
// Literal variables only bind to primitives of their class.
func Bind(tv TVar, t Type) (Subst, error) {
	// If t is the same variable, return empty substitution
	if tVal, ok := t.(TVar); ok && tVal.Name == tv.Name {
		return Subst{}, nil
	}

	switch {
	case IsError(t):
	case tv.Lit == IntLit:
		if !IsIntegral(t) {
			return nil, errUnifyMsg(tv, t, "expected integer")
		}
	case tv.Lit == FloatLit:
		if !IsFloat(t) {
			return nil, errUnifyMsg(tv, t, "expected floating-point number")
		}
	}

	// Occurs check: ensure tv does not appear in t (to avoid infinite types like a = &a)
	if OccursCheck(tv, t) {
		return nil, errMismatch(fmt.Sprintf("infinite type detected: %s in %s", tv, t))
	}

	return Subst{tv.Name: t}, nil
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.Name == tv.Name {
			return true
		}
	}
	return false
}

func errUnify(t1, t2 Type) error {
	return &UnifyError{Expected: t1, Actual: t2}
}

func errUnifyMsg(t1, t2 Type, msg string) error {
	return &UnifyError{Expected: t1, Actual: t2, Reason: msg}
}

func errMismatch(msg string) error {
	return fmt.Errorf("type mismatch: %s", msg)
}
