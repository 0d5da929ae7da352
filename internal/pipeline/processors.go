package pipeline

import (
	"github.com/funvibe/opcheck/internal/scenario"
)

// LoadProcessor parses the scenario file.
type LoadProcessor struct{}

func (lp *LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil {
		return ctx
	}
	var sc *scenario.Scenario
	var err error
	if ctx.Source != nil {
		sc, err = scenario.Parse(ctx.Source, ctx.FilePath)
	} else {
		sc, err = scenario.LoadFile(ctx.FilePath)
	}
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Scenario = sc
	return ctx
}

// CheckProcessor checks every expression of the scenario as its own unit.
// A unit aborted by an internal error does not stop the others.
type CheckProcessor struct{}

func (cp *CheckProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.Checker == nil {
		return ctx
	}
	if ctx.Trace != nil {
		ctx.Checker.SetTrace(ctx.Trace)
	}
	for _, u := range ctx.Scenario.Expressions {
		ty, err := ctx.Checker.CheckUnit(u.Expr)
		ctx.Units = append(ctx.Units, &UnitResult{Name: u.Name, Expr: u.Expr, Type: ty, Bug: err})
	}
	return ctx
}

// FinalizeProcessor ends inference for the file and collects its
// diagnostics.
type FinalizeProcessor struct{}

func (fp *FinalizeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.Checker == nil {
		return ctx
	}
	ctx.Checker.Finalize()
	for _, u := range ctx.Units {
		if u.Bug != nil {
			continue
		}
		if ty, ok := ctx.Checker.TypeOf(u.Expr); ok {
			u.Type = ty
		}
	}
	ctx.Errors = append(ctx.Errors, ctx.Checker.Bag.Errors()...)
	return ctx
}
