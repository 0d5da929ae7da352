package pipeline

import (
	"io"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/exprcheck"
	"github.com/funvibe/opcheck/internal/scenario"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one scenario file through the stages.
type PipelineContext struct {
	FilePath string
	// Source is read from FilePath when nil.
	Source []byte
	// LangItems defaults to the embedded table.
	LangItems *config.LangItems
	// Trace, when set, receives the operator checker's trace.
	Trace io.Writer

	Scenario    *scenario.Scenario
	SymbolTable *symbols.SymbolTable
	Checker     *exprcheck.Checker
	Units       []*UnitResult

	// Err is a load or declaration failure. Stages after it skip the file.
	Err    error
	Errors []*diagnostics.DiagnosticError
}

// UnitResult is the outcome of checking one top-level expression.
type UnitResult struct {
	Name string
	Expr ast.Expression
	Type typesystem.Type
	// Bug is the internal-consistency failure that aborted the unit.
	Bug error
}

func NewPipelineContext(path string) *PipelineContext {
	return &PipelineContext{FilePath: path}
}

// HasBug reports whether any unit was aborted by an internal error.
func (ctx *PipelineContext) HasBug() bool {
	for _, u := range ctx.Units {
		if u.Bug != nil {
			return true
		}
	}
	return false
}

func (ctx *PipelineContext) langItems() *config.LangItems {
	if ctx.LangItems == nil {
		return config.DefaultLangItems()
	}
	return ctx.LangItems
}
