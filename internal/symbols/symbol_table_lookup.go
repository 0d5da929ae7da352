package symbols

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// maxBoundDepth limits how deep impl where-clauses are evaluated when
// deciding whether an obligation may hold.
const maxBoundDepth = 4

var errNoDeref = errors.New("no unique Deref impl")

// MethodCallee is a resolved trait method: its identity and its signature
// as seen from the call site. Inputs[0] is the receiver as the method takes it.
type MethodCallee struct {
	Trait  string
	Method string
	Inputs []typesystem.Type
	Output typesystem.Type
}

func (m *MethodCallee) String() string {
	inputs := make([]string, len(m.Inputs))
	for i, in := range m.Inputs {
		inputs[i] = in.String()
	}
	return fmt.Sprintf("%s::%s(%s) -> %s", m.Trait, m.Method, strings.Join(inputs, ", "), m.Output)
}

// LookupMethodInTrait looks up `method` of `trait` for a receiver and the
// expected argument types. It succeeds when some impl may apply; the callee
// output is then the impl's associated output, still to be selected through
// the returned obligation.
func (s *SymbolTable) LookupMethodInTrait(ctx *infer.InferenceContext, receiver typesystem.Type,
	trait, method string, args []typesystem.Type) (*MethodCallee, []infer.Obligation, bool) {
	def, ok := s.GetTrait(trait)
	if !ok {
		return nil, nil, false
	}
	item, ok := def.Method(method)
	if !ok {
		return nil, nil, false
	}

	ob := infer.Obligation{Trait: trait, Self: ctx.Resolve(receiver)}
	for _, a := range args {
		ob.Args = append(ob.Args, ctx.Resolve(a))
	}
	if !s.mayHold(ctx, ob, 0) {
		return nil, nil, false
	}

	var output typesystem.Type
	switch item.Output {
	case config.OutputBool:
		output = typesystem.Bool()
	case config.OutputUnit:
		output = typesystem.Unit()
	case config.OutputRefAssoc:
		target := ctx.FreshVar(fmt.Sprintf("<%s as %s>::Target", ob.Self, trait))
		ob.Output = target
		output = typesystem.Ref(target)
	default:
		out := ctx.FreshVar(fmt.Sprintf("<%s as %s>::Output", ob.Self, trait))
		ob.Output = out
		output = out
	}

	inputs := []typesystem.Type{passedAs(item.Receiver, ob.Self)}
	for _, a := range ob.Args {
		inputs = append(inputs, passedAs(item.Arg, a))
	}
	callee := &MethodCallee{Trait: trait, Method: method, Inputs: inputs, Output: output}
	return callee, []infer.Obligation{ob}, true
}

func passedAs(mode config.PassMode, t typesystem.Type) typesystem.Type {
	switch mode {
	case config.PassByRef:
		return typesystem.Ref(t)
	case config.PassByMutRef:
		return typesystem.MutRef(t)
	default:
		return t
	}
}

// Select implements infer.ObligationSolver: an obligation is selected when
// exactly one visible impl matches it.
func (s *SymbolTable) Select(ctx *infer.InferenceContext, ob infer.Obligation) infer.Selection {
	matches := s.candidates(ctx, ob, 0)
	switch len(matches) {
	case 0:
		return infer.Unsatisfiable
	case 1:
	default:
		return infer.Ambiguous
	}

	inst := matches[0].freshen(ctx)
	if err := ctx.Try(func() error { return unifyImpl(ctx, inst, ob) }); err != nil {
		return infer.Unsatisfiable
	}
	var nested []infer.Obligation
	for _, b := range inst.Bounds {
		nested = append(nested, infer.Obligation{Trait: b.Trait, Self: b.Self, Args: b.Args, Output: b.Output, Token: ob.Token})
	}
	ctx.RegisterObligations(nested)
	return infer.Selected
}

// candidates returns the impls that may match ob, without side effects.
func (s *SymbolTable) candidates(ctx *infer.InferenceContext, ob infer.Obligation, depth int) []*Impl {
	var matches []*Impl
	for _, impl := range s.GetAllImplementations(ob.Trait) {
		if !headsMayMatch(impl, ob) {
			continue
		}
		impl := impl
		if ctx.Probe(func() bool { return s.matchImpl(ctx, impl, ob, depth) }) {
			matches = append(matches, impl)
		}
	}
	return matches
}

func (s *SymbolTable) mayHold(ctx *infer.InferenceContext, ob infer.Obligation, depth int) bool {
	if typesystem.ReferencesError(ob.Self) {
		return true
	}
	return len(s.candidates(ctx, ob, depth)) > 0
}

// matchImpl unifies a fresh instance of impl with ob and evaluates the
// impl's where-clauses. Callers run it inside a probe.
func (s *SymbolTable) matchImpl(ctx *infer.InferenceContext, impl *Impl, ob infer.Obligation, depth int) bool {
	inst := impl.freshen(ctx)
	if err := unifyImpl(ctx, inst, ob); err != nil {
		return false
	}
	if depth >= maxBoundDepth {
		return true
	}
	for _, b := range inst.Bounds {
		nested := infer.Obligation{Trait: b.Trait, Self: ctx.Resolve(b.Self), Output: b.Output}
		for _, a := range b.Args {
			nested.Args = append(nested.Args, ctx.Resolve(a))
		}
		if typesystem.IsTyVar(nested.Self) {
			continue // ambiguous; may still hold
		}
		if !s.mayHold(ctx, nested, depth+1) {
			return false
		}
	}
	return true
}

func unifyImpl(ctx *infer.InferenceContext, inst *Impl, ob infer.Obligation) error {
	if len(inst.Args) != len(ob.Args) {
		return fmt.Errorf("%s takes %d arguments, got %d", inst, len(inst.Args), len(ob.Args))
	}
	if err := ctx.Unify(inst.Self, ob.Self); err != nil {
		return err
	}
	for i := range inst.Args {
		if err := ctx.Unify(inst.Args[i], ob.Args[i]); err != nil {
			return err
		}
	}
	if ob.Output != nil && inst.Output != nil {
		return ctx.Unify(inst.Output, ob.Output)
	}
	return nil
}

// headsMayMatch is a cheap pre-filter on the outermost constructors.
func headsMayMatch(impl *Impl, ob infer.Obligation) bool {
	generic := make(map[string]bool, len(impl.Generics))
	for _, g := range impl.Generics {
		generic[g] = true
	}
	if !headMatch(head(impl.Self, generic), head(ob.Self, nil)) {
		return false
	}
	if len(impl.Args) != len(ob.Args) {
		return false
	}
	for i := range impl.Args {
		if !headMatch(head(impl.Args[i], generic), head(ob.Args[i], nil)) {
			return false
		}
	}
	return true
}

func headMatch(a, b string) bool {
	return a == "" || b == "" || a == b
}

// head names the outermost constructor of t; "" matches anything.
func head(t typesystem.Type, generic map[string]bool) string {
	switch typ := t.(type) {
	case typesystem.TVar, typesystem.TError:
		return ""
	case typesystem.TParam:
		if generic[typ.Name] {
			return ""
		}
		return "param " + typ.Name
	case typesystem.TCon:
		return typ.Module + "::" + typ.Name
	case typesystem.TApp:
		return head(typ.Constructor, generic)
	case typesystem.TRef:
		if typ.Mutable {
			return "&mut"
		}
		return "&"
	case typesystem.TTuple:
		return fmt.Sprintf("tuple/%d", len(typ.Elements))
	case typesystem.TArray:
		return "array"
	case typesystem.TSimd:
		return "simd"
	case typesystem.TFunc:
		return "fn"
	case typesystem.TFnDef:
		return "fn " + typ.Name
	case typesystem.TNever:
		return "!"
	}
	return ""
}

// TypeIsCopy reports whether values of t are copied rather than moved.
func (s *SymbolTable) TypeIsCopy(ctx *infer.InferenceContext, t typesystem.Type) bool {
	t = ctx.Resolve(t)
	switch typ := t.(type) {
	case typesystem.TRef:
		return !typ.Mutable
	case typesystem.TFnDef, typesystem.TFunc, typesystem.TNever, typesystem.TError:
		return true
	case typesystem.TTuple:
		for _, e := range typ.Elements {
			if !s.TypeIsCopy(ctx, e) {
				return false
			}
		}
		return true
	case typesystem.TArray:
		return s.TypeIsCopy(ctx, typ.Elem)
	case typesystem.TSimd:
		return true
	}
	if typesystem.IsScalar(t) {
		return true
	}
	return s.mayHold(ctx, infer.Obligation{Trait: config.CopyTraitPath, Self: t}, 0)
}

// DerefTarget implements infer.DerefSource through the Deref impls.
func (s *SymbolTable) DerefTarget(ctx *infer.InferenceContext, t typesystem.Type) (typesystem.Type, bool) {
	target := ctx.FreshVar("deref target")
	err := ctx.Try(func() error {
		if s.Select(ctx, infer.Obligation{Trait: config.DerefTraitPath, Self: t, Output: target}) != infer.Selected {
			return errNoDeref
		}
		return nil
	})
	if err != nil {
		return nil, false
	}
	return ctx.Resolve(target), true
}
