package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/diagnostics"
	"github.com/funvibe/opcheck/internal/exprcheck"
	"github.com/funvibe/opcheck/internal/pipeline"
)

// Report is the result of one opcheck run.
type Report struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	Version string        `json:"version" yaml:"version"`
	Files   []*FileReport `json:"files" yaml:"files"`
}

type FileReport struct {
	File string `json:"file" yaml:"file"`
	// Error is set when the file could not be loaded or declared.
	Error       string                         `json:"error,omitempty" yaml:"error,omitempty"`
	Units       []*UnitReport                  `json:"units,omitempty" yaml:"units,omitempty"`
	Diagnostics []*diagnostics.DiagnosticError `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type UnitReport struct {
	Name      string            `json:"name" yaml:"name"`
	Expr      string            `json:"expr" yaml:"expr"`
	Type      string            `json:"type,omitempty" yaml:"type,omitempty"`
	Bug       string            `json:"bug,omitempty" yaml:"bug,omitempty"`
	Operators []*OperatorReport `json:"operators,omitempty" yaml:"operators,omitempty"`
}

// OperatorReport is the resolution of one operator node, with the
// adjustments of its operands.
type OperatorReport struct {
	Expr        string              `json:"expr" yaml:"expr"`
	Outcome     string              `json:"outcome" yaml:"outcome"`
	Type        string              `json:"type,omitempty" yaml:"type,omitempty"`
	Callee      string              `json:"callee,omitempty" yaml:"callee,omitempty"`
	Adjustments map[string][]string `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`
}

func NewReport() *Report {
	return &Report{RunID: uuid.New().String(), Version: config.Version}
}

// Add records the outcome of one pipeline run.
func (r *Report) Add(ctx *pipeline.PipelineContext) {
	fr := &FileReport{File: ctx.FilePath, Diagnostics: ctx.Errors}
	r.Files = append(r.Files, fr)
	if ctx.Err != nil {
		fr.Error = ctx.Err.Error()
		return
	}
	for _, u := range ctx.Units {
		fr.Units = append(fr.Units, unitReport(ctx, u))
	}
}

func unitReport(ctx *pipeline.PipelineContext, u *pipeline.UnitResult) *UnitReport {
	ur := &UnitReport{Name: u.Name, Expr: u.Expr.String()}
	if u.Bug != nil {
		ur.Bug = u.Bug.Error()
		return ur
	}
	if u.Type != nil {
		ur.Type = u.Type.String()
	}
	checker := ctx.Checker
	exprcheck.Walk(u.Expr, func(e ast.Expression) {
		o, ok := checker.Operators().Outcome(e)
		if !ok {
			return
		}
		op := &OperatorReport{Expr: e.String(), Outcome: o.Kind.String()}
		if ty, ok := checker.TypeOf(e); ok {
			op.Type = ty.String()
		}
		if callee, ok := checker.MethodCallOf(e); ok {
			op.Callee = callee.String()
		}
		for _, operand := range operands(e) {
			adjustments := checker.AdjustmentsOf(operand)
			if len(adjustments) == 0 {
				continue
			}
			if op.Adjustments == nil {
				op.Adjustments = make(map[string][]string)
			}
			steps := make([]string, len(adjustments))
			for i, a := range adjustments {
				steps[i] = a.String()
			}
			op.Adjustments[operand.String()] = steps
		}
		ur.Operators = append(ur.Operators, op)
	})
	return ur
}

func operands(e ast.Expression) []ast.Expression {
	switch e := e.(type) {
	case *ast.InfixExpression:
		return []ast.Expression{e.Left, e.Right}
	case *ast.AssignOpExpression:
		return []ast.Expression{e.Left, e.Right}
	case *ast.PrefixExpression:
		return []ast.Expression{e.Right}
	}
	return nil
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// WriteText writes unit results to out and diagnostics to errOut.
func (r *Report) WriteText(out, errOut io.Writer, color bool) {
	emitter := diagnostics.NewEmitter(errOut, color)
	var all []*diagnostics.DiagnosticError
	for _, f := range r.Files {
		if f.Error != "" {
			fmt.Fprintf(errOut, "%s\n", f.Error)
			continue
		}
		fmt.Fprintf(out, "%s\n", f.File)
		for _, u := range f.Units {
			writeUnit(out, u)
		}
		all = append(all, f.Diagnostics...)
	}
	emitter.EmitAll(all)
}

func writeUnit(out io.Writer, u *UnitReport) {
	if u.Bug != "" {
		fmt.Fprintf(out, "  %s: %s: internal error\n", u.Name, u.Expr)
		return
	}
	fmt.Fprintf(out, "  %s: %s : %s\n", u.Name, u.Expr, u.Type)
	for _, op := range u.Operators {
		line := fmt.Sprintf("    %s [%s]", op.Expr, op.Outcome)
		if op.Callee != "" {
			line += " " + op.Callee
		}
		fmt.Fprintln(out, line)
		for _, operand := range sortedKeys(op.Adjustments) {
			fmt.Fprintf(out, "      %s: %s\n", operand, strings.Join(op.Adjustments[operand], ", "))
		}
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
