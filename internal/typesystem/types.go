package typesystem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/opcheck/internal/config"
)

// Type is the interface for all types in our system.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
}

// LitKind distinguishes general inference variables from the variables
// created for unsuffixed numeric literals.
type LitKind int

const (
	General LitKind = iota
	IntLit
	FloatLit
)

// TVar represents an inference variable (e.g. '?3').
// Integer and float literal variables may only resolve to integral or
// floating primitives respectively.
type TVar struct {
	Name string
	Lit  LitKind
}

func (t TVar) String() string {
	switch t.Lit {
	case IntLit:
		return "{integer}"
	case FloatLit:
		return "{float}"
	}
	// Normalize auto-generated variables (?1, ?14, etc.) so test output is stable
	if config.IsTestMode && strings.HasPrefix(t.Name, "?") {
		if _, err := strconv.Atoi(t.Name[1:]); err == nil {
			return "?T"
		}
	}
	return t.Name
}

func (t TVar) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// ApplyWithCycleCheck applies substitution with cycle detection.
// This is the main entry point for substitution application. Variables are
// followed through chains of bindings until a non-variable or an unbound
// variable is reached.
func ApplyWithCycleCheck(t Type, s Subst, visited map[string]bool) Type {
	if t == nil {
		return nil
	}

	switch typ := t.(type) {
	case TVar:
		// Check for cycle
		if visited[typ.Name] {
			return typ
		}
		if replacement, ok := s[typ.Name]; ok {
			if tv, ok := replacement.(TVar); ok && tv.Name == typ.Name {
				return typ
			}
			newVisited := copyVisited(visited)
			newVisited[typ.Name] = true
			return ApplyWithCycleCheck(replacement, s, newVisited)
		}
		return typ

	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = ApplyWithCycleCheck(arg, s, visited)
		}
		return TApp{Constructor: ApplyWithCycleCheck(typ.Constructor, s, visited), Args: newArgs}

	case TRef:
		return TRef{Elem: ApplyWithCycleCheck(typ.Elem, s, visited), Mutable: typ.Mutable}

	case TTuple:
		if len(typ.Elements) == 0 {
			return typ
		}
		newElems := make([]Type, len(typ.Elements))
		for i, e := range typ.Elements {
			newElems[i] = ApplyWithCycleCheck(e, s, visited)
		}
		return TTuple{Elements: newElems}

	case TArray:
		return TArray{Elem: ApplyWithCycleCheck(typ.Elem, s, visited), Len: typ.Len}

	case TSimd:
		return TSimd{Elem: ApplyWithCycleCheck(typ.Elem, s, visited), Lanes: typ.Lanes}

	case TFunc:
		return TFunc{
			Params:     applyAll(typ.Params, s, visited),
			ReturnType: ApplyWithCycleCheck(typ.ReturnType, s, visited),
		}

	case TFnDef:
		return TFnDef{
			Name:       typ.Name,
			Params:     applyAll(typ.Params, s, visited),
			ReturnType: ApplyWithCycleCheck(typ.ReturnType, s, visited),
		}

	default:
		// Constants, parameters, never and error don't change
		return t
	}
}

func applyAll(ts []Type, s Subst, visited map[string]bool) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = ApplyWithCycleCheck(t, s, visited)
	}
	return out
}

func copyVisited(m map[string]bool) map[string]bool {
	newMap := make(map[string]bool, len(m))
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

// TCon represents a type constant: a primitive (i32, bool, str) or a
// nominal type (String, Meters).
type TCon struct {
	Name   string
	Module string // Module path for library types (e.g. std::string)
	Local  bool   // Declared in the unit being checked
}

func (t TCon) String() string { return t.Name }

func (t TCon) Apply(s Subst) Type { return t }

func (t TCon) FreeTypeVariables() []TVar { return []TVar{} }

// TApp represents a nominal type applied to arguments (e.g. Wrapper<i32>).
type TApp struct {
	Constructor Type
	Args        []Type
}

func (t TApp) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Constructor.String(), strings.Join(args, ", "))
}

func (t TApp) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TApp) FreeTypeVariables() []TVar {
	vars := t.Constructor.FreeTypeVariables()
	for _, arg := range t.Args {
		vars = append(vars, arg.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TRef represents a reference type (&T or &mut T).
type TRef struct {
	Elem    Type
	Mutable bool
}

func (t TRef) String() string {
	if t.Mutable {
		return "&mut " + t.Elem.String()
	}
	return "&" + t.Elem.String()
}

func (t TRef) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TRef) FreeTypeVariables() []TVar { return t.Elem.FreeTypeVariables() }

// TTuple represents a tuple type. The empty tuple is the unit type.
type TTuple struct {
	Elements []Type
}

func (t TTuple) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	if len(elems) == 1 {
		return "(" + elems[0] + ",)"
	}
	return "(" + strings.Join(elems, ", ") + ")"
}

func (t TTuple) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TTuple) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, e := range t.Elements {
		vars = append(vars, e.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TArray represents a fixed-length array type ([T; N]).
type TArray struct {
	Elem Type
	Len  int
}

func (t TArray) String() string { return fmt.Sprintf("[%s; %d]", t.Elem, t.Len) }

func (t TArray) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TArray) FreeTypeVariables() []TVar { return t.Elem.FreeTypeVariables() }

// TSimd represents a vector of scalars. Its lanes are compared element-wise,
// so comparisons on vectors yield vectors rather than bool.
type TSimd struct {
	Elem  Type
	Lanes int
}

func (t TSimd) String() string { return fmt.Sprintf("simd<%s, %d>", t.Elem, t.Lanes) }

func (t TSimd) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TSimd) FreeTypeVariables() []TVar { return t.Elem.FreeTypeVariables() }

// TFunc represents a function pointer type (e.g. fn(i32) -> bool).
type TFunc struct {
	Params     []Type
	ReturnType Type
}

func (t TFunc) String() string {
	return "fn" + signatureString(t.Params, t.ReturnType)
}

func (t TFunc) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TFunc) FreeTypeVariables() []TVar {
	return signatureVars(t.Params, t.ReturnType)
}

// TFnDef is the zero-sized type of a named function item. Unlike TFunc it
// still knows which function it names.
type TFnDef struct {
	Name       string
	Params     []Type
	ReturnType Type
}

func (t TFnDef) String() string {
	return fmt.Sprintf("fn%s {%s}", signatureString(t.Params, t.ReturnType), t.Name)
}

func (t TFnDef) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TFnDef) FreeTypeVariables() []TVar {
	return signatureVars(t.Params, t.ReturnType)
}

// Pointer returns the function pointer type the item coerces to.
func (t TFnDef) Pointer() TFunc {
	return TFunc{Params: t.Params, ReturnType: t.ReturnType}
}

func signatureString(params []Type, ret Type) string {
	ps := make([]string, len(params))
	for i, p := range params {
		ps[i] = p.String()
	}
	s := "(" + strings.Join(ps, ", ") + ")"
	if ret != nil && !IsUnit(ret) {
		s += " -> " + ret.String()
	}
	return s
}

func signatureVars(params []Type, ret Type) []TVar {
	vars := []TVar{}
	for _, p := range params {
		vars = append(vars, p.FreeTypeVariables()...)
	}
	if ret != nil {
		vars = append(vars, ret.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// TParam is a generic type parameter in scope (the T of fn f<T>).
// It is rigid: inference never binds it.
type TParam struct {
	Name string
}

func (t TParam) String() string { return t.Name }

func (t TParam) Apply(s Subst) Type { return t }

func (t TParam) FreeTypeVariables() []TVar { return []TVar{} }

// TNever is the type of diverging expressions.
type TNever struct{}

func (TNever) String() string { return config.NeverTypeName }

func (t TNever) Apply(s Subst) Type { return t }

func (TNever) FreeTypeVariables() []TVar { return []TVar{} }

// TError is the sentinel type of expressions that already failed to check.
// It unifies with everything so one error never cascades into more.
type TError struct{}

func (TError) String() string { return config.ErrorTypeName }

func (t TError) Apply(s Subst) Type { return t }

func (TError) FreeTypeVariables() []TVar { return []TVar{} }

// Subst is a mapping from Type Variables to Types.
type Subst map[string]Type

// Compose combines two substitutions.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

// Clone returns a shallow copy of the substitution.
func (s1 Subst) Clone() Subst {
	out := make(Subst, len(s1))
	for k, v := range s1 {
		out[k] = v
	}
	return out
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[string]bool{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	return unique
}
