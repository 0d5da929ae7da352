package symbols

import (
	"sync"

	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// Singleton prelude table built from the embedded lang-item table
var (
	preludeTable *SymbolTable
	preludeOnce  sync.Once
)

// GetPrelude returns the singleton prelude SymbolTable containing all built-in symbols.
// This table is shared across all compilation units.
func GetPrelude() *SymbolTable {
	preludeOnce.Do(func() {
		preludeTable = NewPrelude(config.DefaultLangItems())
	})
	return preludeTable
}

// NewPrelude builds a prelude for a specific lang-item table.
func NewPrelude(items *config.LangItems) *SymbolTable {
	st := NewEmptySymbolTable()
	st.scopeType = ScopePrelude
	st.InitBuiltins(items)
	return st
}

// NewSymbolTable creates a new symbol table.
// It inherits from Prelude.
func NewSymbolTable() *SymbolTable {
	return NewEnclosedSymbolTable(GetPrelude())
}

// ResetPrelude resets the prelude singleton (for testing only).
func ResetPrelude() {
	preludeOnce = sync.Once{}
	preludeTable = nil
}

// operator families decide which primitive impls a trait gets
type family int

const (
	famNone family = iota
	famArith
	famBitwise
	famShift
	famEq
	famOrd
	famNeg
	famNot
	famDeref
)

func familyOf(item config.LangItem) family {
	if item.Unary {
		switch item.Op {
		case "-":
			return famNeg
		case "!":
			return famNot
		case "*":
			return famDeref
		}
		return famNone
	}
	switch item.Op {
	case "+", "-", "*", "/", "%":
		return famArith
	case "^", "&", "|":
		return famBitwise
	case "<<", ">>":
		return famShift
	case "==", "!=":
		return famEq
	case "<", "<=", ">", ">=":
		return famOrd
	}
	return famNone
}

func (st *SymbolTable) InitBuiltins(items *config.LangItems) {
	const prelude = config.PreludeOrigin

	// Define built-in types
	for _, t := range typesystem.IntTypes() {
		st.DefineType(t.String(), t, prelude)
	}
	for _, t := range typesystem.FloatTypes() {
		st.DefineType(t.String(), t, prelude)
	}
	st.DefineType(config.BoolTypeName, typesystem.Bool(), prelude)
	st.DefineType(config.CharTypeName, typesystem.Char(), prelude)
	st.DefineType(config.StrTypeName, typesystem.Str(), prelude)
	st.DefineType(config.StringTypeName, typesystem.String(), prelude)

	// Operator traits and their primitive impls
	for path, methods := range items.TraitMethods() {
		def := &TraitDef{Path: path, Methods: make(map[string]config.LangItem, len(methods))}
		for _, m := range methods {
			def.Methods[m.Method] = m
		}
		st.DefineTrait(def, prelude)
		st.initPrimitiveImpls(path, methods[0])
	}

	// Marker and coercion traits exist even when no operator maps to them
	st.DefineTrait(&TraitDef{Path: config.CopyTraitPath}, prelude)
	if !st.TraitExists(config.DerefTraitPath) {
		st.DefineTrait(&TraitDef{Path: config.DerefTraitPath}, prelude)
		st.registerImpl(&Impl{Trait: config.DerefTraitPath, Self: typesystem.String(), Output: typesystem.Str(), Origin: prelude})
	}
}

func (st *SymbolTable) initPrimitiveImpls(trait string, item config.LangItem) {
	ints := typesystem.IntTypes()
	numbers := append(typesystem.IntTypes(), typesystem.FloatTypes()...)
	str, owned := typesystem.Str(), typesystem.String()

	switch familyOf(item) {
	case famArith:
		if item.Assign {
			for _, t := range numbers {
				st.assignImpls(trait, t, t)
			}
			if item.Op == "+" {
				st.builtin(trait, owned, []typesystem.Type{typesystem.Ref(str)}, nil)
			}
			return
		}
		for _, t := range numbers {
			st.forwardingImpls(trait, t, t, t)
		}
		if item.Op == "+" {
			st.builtin(trait, owned, []typesystem.Type{typesystem.Ref(str)}, owned)
		}

	case famBitwise:
		for _, t := range append(ints, typesystem.Bool()) {
			if item.Assign {
				st.assignImpls(trait, t, t)
			} else {
				st.forwardingImpls(trait, t, t, t)
			}
		}

	case famShift:
		for _, t := range ints {
			for _, u := range ints {
				if item.Assign {
					st.assignImpls(trait, t, u)
				} else {
					st.forwardingImpls(trait, t, u, t)
				}
			}
		}

	case famEq, famOrd:
		for _, t := range append(numbers, typesystem.Bool(), typesystem.Char(), str, owned) {
			st.builtin(trait, t, []typesystem.Type{t}, nil)
		}
		if familyOf(item) == famEq {
			st.builtin(trait, owned, []typesystem.Type{str}, nil)
			st.builtin(trait, owned, []typesystem.Type{typesystem.Ref(str)}, nil)
			st.builtin(trait, str, []typesystem.Type{owned}, nil)
			st.builtin(trait, typesystem.Ref(str), []typesystem.Type{owned}, nil)
		}
		// impl<A: Trait<B>, B> Trait<&B> for &A
		a, b := typesystem.TParam{Name: "A"}, typesystem.TParam{Name: "B"}
		st.registerImpl(&Impl{
			Trait:    trait,
			Self:     typesystem.Ref(a),
			Args:     []typesystem.Type{typesystem.Ref(b)},
			Generics: []string{"A", "B"},
			Bounds:   []Bound{{Self: a, Trait: trait, Args: []typesystem.Type{b}}},
			Origin:   config.PreludeOrigin,
		})

	case famNeg:
		for _, t := range numbers {
			if typesystem.IsUnsigned(t) {
				continue
			}
			st.builtin(trait, t, nil, t)
			st.builtin(trait, typesystem.Ref(t), nil, t)
		}

	case famNot:
		for _, t := range append(ints, typesystem.Bool()) {
			st.builtin(trait, t, nil, t)
			st.builtin(trait, typesystem.Ref(t), nil, t)
		}

	case famDeref:
		st.builtin(trait, owned, nil, str)
	}
}

func (st *SymbolTable) builtin(trait string, self typesystem.Type, args []typesystem.Type, output typesystem.Type) {
	st.registerImpl(&Impl{Trait: trait, Self: self, Args: args, Output: output, Origin: config.PreludeOrigin})
}

// forwardingImpls registers `L op R` and the reference forms `&L op R`,
// `L op &R`, `&L op &R`, all producing out.
func (st *SymbolTable) forwardingImpls(trait string, l, r, out typesystem.Type) {
	for _, self := range []typesystem.Type{l, typesystem.Ref(l)} {
		for _, arg := range []typesystem.Type{r, typesystem.Ref(r)} {
			st.builtin(trait, self, []typesystem.Type{arg}, out)
		}
	}
}

// assignImpls registers `L op= R` and `L op= &R`.
func (st *SymbolTable) assignImpls(trait string, l, r typesystem.Type) {
	st.builtin(trait, l, []typesystem.Type{r}, nil)
	st.builtin(trait, l, []typesystem.Type{typesystem.Ref(r)}, nil)
}
