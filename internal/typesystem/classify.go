package typesystem

import (
	"github.com/funvibe/opcheck/internal/config"
)

// Class is the capability tag of a type, queried instead of switching on
// concrete type variants outside this package.
type Class int

const (
	ClassOther Class = iota
	ClassIntegral
	ClassFloating
	ClassBoolean
	ClassChar
	ClassScalar // fn items and fn pointers
	ClassReference
	ClassError
	ClassVar
)

func (c Class) String() string {
	switch c {
	case ClassIntegral:
		return "integral"
	case ClassFloating:
		return "floating"
	case ClassBoolean:
		return "boolean"
	case ClassChar:
		return "char"
	case ClassScalar:
		return "scalar"
	case ClassReference:
		return "reference"
	case ClassError:
		return "error"
	case ClassVar:
		return "var"
	default:
		return "other"
	}
}

var (
	signedInts   = nameSet(config.SignedIntTypeNames)
	unsignedInts = nameSet(config.UnsignedIntTypeNames)
	floats       = nameSet(config.FloatTypeNames)
)

func nameSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Classify returns the capability tag of t.
func Classify(t Type) Class {
	switch typ := t.(type) {
	case TVar:
		switch typ.Lit {
		case IntLit:
			return ClassIntegral
		case FloatLit:
			return ClassFloating
		}
		return ClassVar
	case TCon:
		if typ.Module != "" {
			return ClassOther
		}
		switch {
		case signedInts[typ.Name] || unsignedInts[typ.Name]:
			return ClassIntegral
		case floats[typ.Name]:
			return ClassFloating
		case typ.Name == config.BoolTypeName:
			return ClassBoolean
		case typ.Name == config.CharTypeName:
			return ClassChar
		}
		return ClassOther
	case TFnDef, TFunc:
		return ClassScalar
	case TRef:
		return ClassReference
	case TError:
		return ClassError
	default:
		return ClassOther
	}
}

// IsIntegral reports integer primitives and integer literal variables.
func IsIntegral(t Type) bool { return Classify(t) == ClassIntegral }

// IsFloat reports float primitives and float literal variables.
func IsFloat(t Type) bool { return Classify(t) == ClassFloating }

func IsNumeric(t Type) bool { return IsIntegral(t) || IsFloat(t) }

func IsBool(t Type) bool { return Classify(t) == ClassBoolean }

// IsScalar reports bool, char, numbers, fn items and fn pointers.
// SIMD vectors are not scalar.
func IsScalar(t Type) bool {
	switch Classify(t) {
	case ClassIntegral, ClassFloating, ClassBoolean, ClassChar, ClassScalar:
		return true
	}
	return false
}

func IsSigned(t Type) bool {
	con, ok := t.(TCon)
	return ok && con.Module == "" && signedInts[con.Name]
}

func IsUnsigned(t Type) bool {
	con, ok := t.(TCon)
	return ok && con.Module == "" && unsignedInts[con.Name]
}

// IsTyVar reports a general, unconstrained inference variable. Literal
// variables are not type variables in this sense.
func IsTyVar(t Type) bool { return Classify(t) == ClassVar }

func IsError(t Type) bool { return Classify(t) == ClassError }

func IsNever(t Type) bool {
	_, ok := t.(TNever)
	return ok
}

func IsUnit(t Type) bool {
	tup, ok := t.(TTuple)
	return ok && len(tup.Elements) == 0
}

func IsStr(t Type) bool {
	con, ok := t.(TCon)
	return ok && con.Module == "" && con.Name == config.StrTypeName
}

// IsGrowableString reports the canonical owned string type.
func IsGrowableString(t Type) bool {
	con, ok := t.(TCon)
	return ok && con.Name == config.StringTypeName && con.Module == config.StringTypeModule
}

// IsLocalADT reports a nominal type declared in the unit being checked.
func IsLocalADT(t Type) bool {
	switch typ := t.(type) {
	case TCon:
		return typ.Local
	case TApp:
		return IsLocalADT(typ.Constructor)
	}
	return false
}

// IsParam reports a generic type parameter.
func IsParam(t Type) bool {
	_, ok := t.(TParam)
	return ok
}

// ReferencesError reports whether the error sentinel appears anywhere in t.
func ReferencesError(t Type) bool {
	switch typ := t.(type) {
	case TError:
		return true
	case TRef:
		return ReferencesError(typ.Elem)
	case TApp:
		return ReferencesError(typ.Constructor) || anyReferencesError(typ.Args)
	case TTuple:
		return anyReferencesError(typ.Elements)
	case TArray:
		return ReferencesError(typ.Elem)
	case TSimd:
		return ReferencesError(typ.Elem)
	case TFunc:
		return anyReferencesError(typ.Params) || ReferencesError(typ.ReturnType)
	case TFnDef:
		return anyReferencesError(typ.Params) || ReferencesError(typ.ReturnType)
	}
	return false
}

func anyReferencesError(ts []Type) bool {
	for _, t := range ts {
		if ReferencesError(t) {
			return true
		}
	}
	return false
}

// PeelRefs strips every layer of reference.
func PeelRefs(t Type) Type {
	for {
		ref, ok := t.(TRef)
		if !ok {
			return t
		}
		t = ref.Elem
	}
}

// DerefIfImmutable strips a single immutable reference. Mutable references
// and non-references are returned unchanged.
func DerefIfImmutable(t Type) Type {
	if ref, ok := t.(TRef); ok && !ref.Mutable {
		return ref.Elem
	}
	return t
}

// Constructors for the primitive and library types

func Unit() Type { return TTuple{} }

func Bool() Type { return TCon{Name: config.BoolTypeName} }

func Char() Type { return TCon{Name: config.CharTypeName} }

func Str() Type { return TCon{Name: config.StrTypeName} }

func Int(name string) Type { return TCon{Name: name} }

func Float(name string) Type { return TCon{Name: name} }

func String() Type {
	return TCon{Name: config.StringTypeName, Module: config.StringTypeModule}
}

func Ref(t Type) Type { return TRef{Elem: t} }

func MutRef(t Type) Type { return TRef{Elem: t, Mutable: true} }

// IntTypes returns every integer primitive.
func IntTypes() []Type {
	var out []Type
	for _, n := range config.SignedIntTypeNames {
		out = append(out, Int(n))
	}
	for _, n := range config.UnsignedIntTypeNames {
		out = append(out, Int(n))
	}
	return out
}

// FloatTypes returns every float primitive.
func FloatTypes() []Type {
	var out []Type
	for _, n := range config.FloatTypeNames {
		out = append(out, Float(n))
	}
	return out
}

// Equal reports structural equality. Variables are equal when their names are.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case TVar:
		y, ok := b.(TVar)
		return ok && x.Name == y.Name
	case TCon:
		y, ok := b.(TCon)
		return ok && x.Name == y.Name && x.Module == y.Module
	case TParam:
		y, ok := b.(TParam)
		return ok && x.Name == y.Name
	case TRef:
		y, ok := b.(TRef)
		return ok && x.Mutable == y.Mutable && Equal(x.Elem, y.Elem)
	case TApp:
		y, ok := b.(TApp)
		return ok && Equal(x.Constructor, y.Constructor) && equalAll(x.Args, y.Args)
	case TTuple:
		y, ok := b.(TTuple)
		return ok && equalAll(x.Elements, y.Elements)
	case TArray:
		y, ok := b.(TArray)
		return ok && x.Len == y.Len && Equal(x.Elem, y.Elem)
	case TSimd:
		y, ok := b.(TSimd)
		return ok && x.Lanes == y.Lanes && Equal(x.Elem, y.Elem)
	case TFunc:
		y, ok := b.(TFunc)
		return ok && equalAll(x.Params, y.Params) && Equal(x.ReturnType, y.ReturnType)
	case TFnDef:
		y, ok := b.(TFnDef)
		return ok && x.Name == y.Name
	case TNever:
		_, ok := b.(TNever)
		return ok
	case TError:
		_, ok := b.(TError)
		return ok
	}
	return false
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
