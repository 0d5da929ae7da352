// symbols/symbol_table.go - Main symbol table entry point
//
// The table is split into focused files:
// - symbol_table.go: Symbol, SymbolTable struct, constructors
// - symbol_table_init.go: Prelude initialization from the lang-item table
// - symbol_table_operations.go: Variables, types, functions (define, find, etc.)
// - symbol_table_traits.go: Trait definitions
// - symbol_table_implementations.go: Impl registration and overlap checks
// - symbol_table_lookup.go: Trait-method lookup, obligation selection, Copy and Deref queries

package symbols

import (
	"github.com/funvibe/opcheck/internal/typesystem"
)

type SymbolKind int

type ScopeType int

const (
	ScopePrelude ScopeType = iota // Built-in symbols (types, traits, impls)
	ScopeGlobal                   // The unit being checked
)

const (
	VariableSymbol SymbolKind = iota
	TypeSymbol
	FunctionSymbol
	TraitSymbol
)

type Symbol struct {
	Name         string
	Type         typesystem.Type
	Kind         SymbolKind
	IsMutable    bool   // Variable declared mutable (a place usable with compound assignment)
	HasBody      bool   // Functions: false for bodiless declarations
	OriginModule string // Module where symbol was originally defined
}

type SymbolTable struct {
	store     map[string]Symbol
	types     map[string]typesystem.Type
	outer     *SymbolTable
	scopeType ScopeType

	// Traits registry: TraitPath -> TraitDef
	traits map[string]*TraitDef

	// Implementations registry: TraitPath -> [Impl]
	implementations map[string][]*Impl
}

func NewEmptySymbolTable() *SymbolTable {
	return &SymbolTable{
		store:           make(map[string]Symbol),
		types:           make(map[string]typesystem.Type),
		scopeType:       ScopeGlobal,
		traits:          make(map[string]*TraitDef),
		implementations: make(map[string][]*Impl),
	}
}

// NewEnclosedSymbolTable creates a scope that falls back to outer.
func NewEnclosedSymbolTable(outer *SymbolTable) *SymbolTable {
	st := NewEmptySymbolTable()
	st.outer = outer
	return st
}

// Outer returns the outer scope symbol table
func (s *SymbolTable) Outer() *SymbolTable {
	return s.outer
}

// IsPrelude reports whether this is the built-in scope.
func (s *SymbolTable) IsPrelude() bool {
	return s.scopeType == ScopePrelude
}
