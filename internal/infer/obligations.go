package infer

import (
	"strings"

	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// Obligation is a trait requirement `Self: Trait<Args>`. When Output is set,
// the selected impl's associated output must equal it.
type Obligation struct {
	Trait  string
	Self   typesystem.Type
	Args   []typesystem.Type
	Output typesystem.Type
	// Token is the expression the obligation comes from
	Token token.Token
}

func (o Obligation) String() string {
	var sb strings.Builder
	sb.WriteString(o.Self.String())
	sb.WriteString(": ")
	sb.WriteString(o.Trait)
	if len(o.Args) > 0 {
		args := make([]string, len(o.Args))
		for i, a := range o.Args {
			args[i] = a.String()
		}
		sb.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	return sb.String()
}

// Resolved returns the obligation with the current substitution applied.
func (o Obligation) Resolved(ctx *InferenceContext) Obligation {
	out := Obligation{Trait: o.Trait, Self: ctx.Resolve(o.Self), Token: o.Token}
	for _, a := range o.Args {
		out.Args = append(out.Args, ctx.Resolve(a))
	}
	if o.Output != nil {
		out.Output = ctx.Resolve(o.Output)
	}
	return out
}

// Selection is the solver's verdict on one obligation.
type Selection int

const (
	// Ambiguous: more than one impl may still apply; retry later
	Ambiguous Selection = iota
	// Selected: exactly one impl applies and its constraints were applied
	Selected
	// Unsatisfiable: no impl can ever apply
	Unsatisfiable
)

func (s Selection) String() string {
	switch s {
	case Selected:
		return "selected"
	case Unsatisfiable:
		return "unsatisfiable"
	default:
		return "ambiguous"
	}
}

// ObligationSolver picks impls for obligations. Select may extend the
// context's substitution when it selects.
type ObligationSolver interface {
	Select(ctx *InferenceContext, ob Obligation) Selection
}

// DerefSource answers overloaded-deref queries: the target of `*t` through
// the Deref trait, if t implements it.
type DerefSource interface {
	DerefTarget(ctx *InferenceContext, t typesystem.Type) (typesystem.Type, bool)
}

// RegisterObligations queues obligations for selection.
func (ctx *InferenceContext) RegisterObligations(obs []Obligation) {
	ctx.Obligations = append(ctx.Obligations, obs...)
}

// PendingObligations returns the obligations still undecided.
func (ctx *InferenceContext) PendingObligations() []Obligation {
	return ctx.Obligations
}

// SelectWherePossible selects every obligation that can be decided, until no
// more progress is made. Ambiguous obligations stay pending. It returns the
// obligations found unsatisfiable during this call.
func (ctx *InferenceContext) SelectWherePossible() []Obligation {
	if ctx.Solver == nil {
		return nil
	}
	var failed []Obligation
	for {
		progress := false
		pending := ctx.Obligations
		ctx.Obligations = make([]Obligation, 0, len(pending))
		for _, ob := range pending {
			switch ctx.Solver.Select(ctx, ob.Resolved(ctx)) {
			case Selected:
				progress = true
			case Unsatisfiable:
				failed = append(failed, ob)
				progress = true
			default:
				ctx.Obligations = append(ctx.Obligations, ob)
			}
		}
		if !progress {
			break
		}
	}
	ctx.Unsatisfied = append(ctx.Unsatisfied, failed...)
	return failed
}
