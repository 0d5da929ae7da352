package analyzer

import (
	"fmt"
	"io"

	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/infer"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// OverloadResolver maps operators to their trait methods and looks them up.
type OverloadResolver struct {
	table  *config.LangItems
	lookup MethodLookup
	infer  *infer.InferenceContext
	calls  int

	Trace io.Writer
}

func NewOverloadResolver(table *config.LangItems, lookup MethodLookup, ctx *infer.InferenceContext) *OverloadResolver {
	return &OverloadResolver{table: table, lookup: lookup, infer: ctx}
}

// Calls returns how many times Resolve has been invoked.
func (r *OverloadResolver) Calls() int { return r.calls }

// LangItem returns the trait method op desugars to. Forms that can never be
// overloaded are a bug in the caller.
func (r *OverloadResolver) LangItem(op OperatorKind) (config.LangItem, bool) {
	if bin, mode, ok := op.Binary(); ok {
		if mode == CompoundAssign && (bin.IsComparison() || bin.IsShortCircuit()) {
			panic(Bug(token.Token{}, "impossible assignment operation: %s=", bin))
		}
		if bin.IsShortCircuit() {
			panic(Bug(token.Token{}, "&& and || are not overloadable"))
		}
	}
	return r.table.Lookup(op.Symbol(), op.IsAssign(), op.IsUnary())
}

// Resolve looks up the trait method for lhs op others. Obligations produced
// by a match are registered and selected where possible; the ones still
// ambiguous stay pending.
func (r *OverloadResolver) Resolve(lhs typesystem.Type, others []typesystem.Type, op OperatorKind) (*symbols.MethodCallee, *Failure) {
	return r.resolveAt(token.Token{}, lhs, others, op)
}

// resolveAt is Resolve with the registered obligations attributed to tok.
func (r *OverloadResolver) resolveAt(tok token.Token, lhs typesystem.Type, others []typesystem.Type,
	op OperatorKind) (*symbols.MethodCallee, *Failure) {
	r.calls++

	item, ok := r.LangItem(op)
	r.tracef("lookup_op_method(lhs_ty=%s, op=%s, method=%s, trait=%s)", lhs, op, item.Method, item.Trait)
	if !ok {
		return nil, &Failure{Op: op, Reason: MissingLangItem, Lhs: lhs, Others: others}
	}

	callee, obligations, ok := r.lookup.LookupMethodInTrait(r.infer, lhs, item.Trait, item.Method, others)
	if !ok {
		return nil, &Failure{Op: op, Reason: NoImplementation, Trait: item.Trait, Lhs: lhs, Others: others}
	}
	for i := range obligations {
		obligations[i].Token = tok
	}
	r.infer.RegisterObligations(obligations)
	r.infer.SelectWherePossible()
	return callee, nil
}

// Succeeds reports whether resolution would succeed, leaving the inference
// context untouched.
func (r *OverloadResolver) Succeeds(lhs typesystem.Type, others []typesystem.Type, op OperatorKind) bool {
	return r.infer.Probe(func() bool {
		_, failure := r.Resolve(lhs, others, op)
		return failure == nil
	})
}

func (r *OverloadResolver) tracef(format string, args ...interface{}) {
	if r.Trace != nil {
		fmt.Fprintf(r.Trace, format+"\n", args...)
	}
}
