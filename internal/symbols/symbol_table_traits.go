package symbols

import (
	"sort"

	"github.com/funvibe/opcheck/internal/config"
)

// TraitDef is a trait and the operator methods it provides. Marker traits
// such as Copy have no methods.
type TraitDef struct {
	Path    string
	Methods map[string]config.LangItem
}

// Method returns the lang item behind one of the trait's methods.
func (t *TraitDef) Method(name string) (config.LangItem, bool) {
	item, ok := t.Methods[name]
	return item, ok
}

// MethodNames returns the trait's method names, sorted.
func (t *TraitDef) MethodNames() []string {
	names := make([]string, 0, len(t.Methods))
	for name := range t.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *SymbolTable) DefineTrait(def *TraitDef, origin string) {
	s.store[def.Path] = Symbol{Name: def.Path, Kind: TraitSymbol, OriginModule: origin}
	s.traits[def.Path] = def
	// Only initialize implementations list if it doesn't exist yet
	if _, exists := s.implementations[def.Path]; !exists {
		s.implementations[def.Path] = []*Impl{}
	}
}

// GetTrait finds a trait in this scope or any outer scope.
func (s *SymbolTable) GetTrait(path string) (*TraitDef, bool) {
	if def, ok := s.traits[path]; ok {
		return def, true
	}
	if s.outer != nil {
		return s.outer.GetTrait(path)
	}
	return nil, false
}

// TraitExists checks if a trait is defined in this scope or any outer scope
func (s *SymbolTable) TraitExists(path string) bool {
	_, ok := s.GetTrait(path)
	return ok
}
