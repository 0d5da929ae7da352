package symbols

import (
	"fmt"
	"strings"

	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// Impl is `impl<Generics> Trait<Args> for Self where Bounds`, with the
// associated Output (or Deref Target) when the trait has one.
type Impl struct {
	Trait    string
	Self     typesystem.Type
	Args     []typesystem.Type
	Output   typesystem.Type
	Generics []string
	Bounds   []Bound
	Origin   string
}

// Bound is a where-clause of a generic impl.
type Bound struct {
	Self   typesystem.Type
	Trait  string
	Args   []typesystem.Type
	Output typesystem.Type
}

func (i *Impl) String() string {
	var sb strings.Builder
	sb.WriteString("impl")
	if len(i.Generics) > 0 {
		sb.WriteString("<" + strings.Join(i.Generics, ", ") + ">")
	}
	sb.WriteString(" " + i.Trait)
	if len(i.Args) > 0 {
		args := make([]string, len(i.Args))
		for j, a := range i.Args {
			args[j] = a.String()
		}
		sb.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	sb.WriteString(" for " + i.Self.String())
	return sb.String()
}

// instantiate replaces the impl's generics with the given types.
func (i *Impl) instantiate(replacements map[string]typesystem.Type) *Impl {
	if len(i.Generics) == 0 {
		return i
	}
	out := &Impl{
		Trait:  i.Trait,
		Self:   typesystem.ReplaceParams(i.Self, replacements),
		Args:   replaceTypes(i.Args, replacements),
		Output: typesystem.ReplaceParams(i.Output, replacements),
		Origin: i.Origin,
	}
	for _, b := range i.Bounds {
		out.Bounds = append(out.Bounds, Bound{
			Self:   typesystem.ReplaceParams(b.Self, replacements),
			Trait:  b.Trait,
			Args:   replaceTypes(b.Args, replacements),
			Output: typesystem.ReplaceParams(b.Output, replacements),
		})
	}
	return out
}

// freshen instantiates the impl's generics with fresh inference variables.
func (i *Impl) freshen(ctx *infer.InferenceContext) *Impl {
	if len(i.Generics) == 0 {
		return i
	}
	replacements := make(map[string]typesystem.Type, len(i.Generics))
	for _, g := range i.Generics {
		replacements[g] = ctx.FreshVar("impl parameter " + g)
	}
	return i.instantiate(replacements)
}

// renamed instantiates the impl's generics with variables suffixed by tag,
// for unification outside an inference context.
func (i *Impl) renamed(tag string) *Impl {
	replacements := make(map[string]typesystem.Type, len(i.Generics))
	for _, g := range i.Generics {
		replacements[g] = typesystem.TVar{Name: g + "_" + tag}
	}
	return i.instantiate(replacements)
}

func replaceTypes(ts []typesystem.Type, replacements map[string]typesystem.Type) []typesystem.Type {
	if ts == nil {
		return nil
	}
	out := make([]typesystem.Type, len(ts))
	for i, t := range ts {
		out[i] = typesystem.ReplaceParams(t, replacements)
	}
	return out
}

// RegisterImplementation adds an impl to the current scope, rejecting impls
// that overlap one already visible.
func (s *SymbolTable) RegisterImplementation(impl *Impl) error {
	// Validate that trait exists (search entire scope chain)
	if !s.TraitExists(impl.Trait) {
		return fmt.Errorf("impl for unknown trait %s", impl.Trait)
	}

	// Check for overlap across ALL scopes (local + parents)
	candidate := impl.renamed("new")
	for _, existing := range s.GetAllImplementations(impl.Trait) {
		if len(existing.Args) != len(impl.Args) {
			continue // Arity mismatch, shouldn't happen for same trait
		}
		if implsOverlap(existing.renamed("old"), candidate) {
			return fmt.Errorf("overlapping impls for trait %s: %s and %s", impl.Trait, existing, impl)
		}
	}

	s.registerImpl(impl)
	return nil
}

// RegisterCopy marks t as a Copy type.
func (s *SymbolTable) RegisterCopy(t typesystem.Type, generics []string, origin string) error {
	return s.RegisterImplementation(&Impl{Trait: config.CopyTraitPath, Self: t, Generics: generics, Origin: origin})
}

// RegisterDeref makes t deref to target, through both `*` and deref coercion.
func (s *SymbolTable) RegisterDeref(t, target typesystem.Type, generics []string, origin string) error {
	return s.RegisterImplementation(&Impl{Trait: config.DerefTraitPath, Self: t, Output: target, Generics: generics, Origin: origin})
}

// registerImpl adds an impl without the overlap check. The prelude uses it
// for the built-in impls, which are disjoint by construction.
func (s *SymbolTable) registerImpl(impl *Impl) {
	s.implementations[impl.Trait] = append(s.implementations[impl.Trait], impl)
}

func implsOverlap(a, b *Impl) bool {
	subst := typesystem.Subst{}
	pairs := append([]typesystem.Type{a.Self}, a.Args...)
	others := append([]typesystem.Type{b.Self}, b.Args...)
	for i := range pairs {
		s2, err := typesystem.Unify(pairs[i].Apply(subst), others[i].Apply(subst))
		if err != nil {
			return false
		}
		subst = subst.Compose(s2)
	}
	return true
}

// GetAllImplementations returns the impls of a trait visible from this
// scope, innermost scope first.
func (s *SymbolTable) GetAllImplementations(trait string) []*Impl {
	var impls []*Impl
	for scope := s; scope != nil; scope = scope.outer {
		impls = append(impls, scope.implementations[trait]...)
	}
	return impls
}
