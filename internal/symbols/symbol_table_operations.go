package symbols

import (
	"fmt"
	"sort"

	"github.com/funvibe/opcheck/internal/typesystem"
)

func (s *SymbolTable) Define(name string, t typesystem.Type, origin string) {
	s.store[name] = Symbol{Name: name, Type: t, Kind: VariableSymbol, OriginModule: origin}
}

// DefineMutable defines a variable that may be assigned through.
func (s *SymbolTable) DefineMutable(name string, t typesystem.Type, origin string) {
	s.store[name] = Symbol{Name: name, Type: t, Kind: VariableSymbol, IsMutable: true, OriginModule: origin}
}

func (s *SymbolTable) DefineType(name string, t typesystem.Type, origin string) {
	s.types[name] = t
	s.store[name] = Symbol{Name: name, Type: t, Kind: TypeSymbol, OriginModule: origin}
}

// DefineFunction defines a function item. The symbol's type is the item's
// own TFnDef.
func (s *SymbolTable) DefineFunction(name string, params []typesystem.Type, ret typesystem.Type, hasBody bool, origin string) typesystem.TFnDef {
	fn := typesystem.TFnDef{Name: name, Params: params, ReturnType: ret}
	s.store[name] = Symbol{Name: name, Type: fn, Kind: FunctionSymbol, HasBody: hasBody, OriginModule: origin}
	return fn
}

// FindWithScope returns the symbol and the scope where it was defined
func (s *SymbolTable) FindWithScope(name string) (Symbol, *SymbolTable, bool) {
	sym, ok := s.store[name]
	if ok {
		return sym, s, true
	}
	if s.outer != nil {
		return s.outer.FindWithScope(name)
	}
	return Symbol{}, nil, false
}

func (s *SymbolTable) Find(name string) (Symbol, bool) {
	sym, _, ok := s.FindWithScope(name)
	return sym, ok
}

// ResolveType looks up a named type in this scope or any outer scope.
func (s *SymbolTable) ResolveType(name string) (typesystem.Type, bool) {
	if t, ok := s.types[name]; ok {
		return t, true
	}
	if s.outer != nil {
		return s.outer.ResolveType(name)
	}
	return nil, false
}

// HasBody reports whether a function item has a body that can be called.
// Unknown functions are assumed callable.
func (s *SymbolTable) HasBody(fn typesystem.TFnDef) bool {
	sym, ok := s.Find(fn.Name)
	if !ok || sym.Kind != FunctionSymbol {
		return true
	}
	return sym.HasBody
}

func (s *SymbolTable) IsDefined(name string) bool {
	_, ok := s.Find(name)
	return ok
}

// GetAllNames returns all symbol names in scope (for error suggestions)
func (s *SymbolTable) GetAllNames() []string {
	seen := make(map[string]bool)
	var names []string

	for name := range s.store {
		if !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	if s.outer != nil {
		for _, name := range s.outer.GetAllNames() {
			if !seen[name] {
				names = append(names, name)
				seen[name] = true
			}
		}
	}
	sort.Strings(names)
	return names
}

// Update updates the type of an existing symbol.
// It searches up the scope chain and updates the symbol where it is defined.
func (s *SymbolTable) Update(name string, t typesystem.Type) error {
	if sym, ok := s.store[name]; ok {
		sym.Type = t
		s.store[name] = sym
		return nil
	}
	if s.outer != nil {
		return s.outer.Update(name, t)
	}
	return fmt.Errorf("symbol not found: %s", name)
}
