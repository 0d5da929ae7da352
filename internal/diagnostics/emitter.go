package diagnostics

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
)

// Emitter renders diagnostics as text, optionally with ANSI colors.
type Emitter struct {
	Out   io.Writer
	Color bool
}

func NewEmitter(out io.Writer, color bool) *Emitter {
	return &Emitter{Out: out, Color: color}
}

func (e *Emitter) paint(code, s string) string {
	if !e.Color {
		return s
	}
	return code + s + ansiReset
}

// Emit writes one diagnostic.
func (e *Emitter) Emit(d *DiagnosticError) {
	header := fmt.Sprintf("error[%s]", d.Code)
	fmt.Fprintf(e.Out, "%s: %s\n", e.paint(ansiBold+ansiRed, header), e.paint(ansiBold, d.Message))

	location := d.Token.Pos()
	if d.File != "" {
		location = d.File + ":" + location
	}
	fmt.Fprintf(e.Out, "  %s %s\n", e.paint(ansiBlue, "-->"), location)

	for _, l := range d.Labels {
		marker := "-"
		if l.Primary {
			marker = "^"
		}
		fmt.Fprintf(e.Out, "   %s %s %s: %s\n", e.paint(ansiBlue, "|"), e.paint(ansiRed, marker), l.Token.Pos(), l.Message)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(e.Out, "   %s note: %s\n", e.paint(ansiBlue, "="), n)
	}
	for _, h := range d.Help {
		fmt.Fprintf(e.Out, "   %s help: %s\n", e.paint(ansiBlue, "="), h)
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(e.Out, "%s: %s\n", e.paint(ansiBold+ansiCyan, "help"), s.Message)
		for _, edit := range s.Edits {
			fmt.Fprintf(e.Out, "   %s %s: %s\n", e.paint(ansiBlue, "|"), edit.Token.Pos(), e.paint(ansiYellow, edit.Replacement))
		}
	}
	if len(d.Facts) > 0 {
		keys := make([]string, 0, len(d.Facts))
		for k := range d.Facts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + d.Facts[k]
		}
		fmt.Fprintf(e.Out, "   %s facts: %s\n", e.paint(ansiBlue, "="), strings.Join(parts, " "))
	}
}

// EmitAll writes every diagnostic followed by a summary line.
func (e *Emitter) EmitAll(errs []*DiagnosticError) {
	for _, d := range errs {
		e.Emit(d)
		fmt.Fprintln(e.Out)
	}
	if len(errs) > 0 {
		fmt.Fprintf(e.Out, "%s\n", e.paint(ansiBold+ansiRed, fmt.Sprintf("found %d error(s)", len(errs))))
	}
}
