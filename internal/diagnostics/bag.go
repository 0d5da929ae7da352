package diagnostics

import (
	"fmt"
	"sort"
)

// Bag collects diagnostics for one file, keeping a single diagnostic per
// position and code.
type Bag struct {
	File     string
	errorSet map[string]*DiagnosticError
}

func NewBag(file string) *Bag {
	return &Bag{File: file, errorSet: make(map[string]*DiagnosticError)}
}

func (b *Bag) Add(err *DiagnosticError) {
	if err.File == "" && b.File != "" {
		err.File = b.File
	}
	key := fmt.Sprintf("%d:%d:%s", err.Token.Line, err.Token.Column, err.Code)
	b.errorSet[key] = err
}

func (b *Bag) Len() int { return len(b.errorSet) }

// HasCode reports whether any diagnostic carries code.
func (b *Bag) HasCode(code ErrorCode) bool {
	for _, err := range b.errorSet {
		if err.Code == code {
			return true
		}
	}
	return false
}

// Errors returns all unique errors as a slice, sorted by position
func (b *Bag) Errors() []*DiagnosticError {
	result := make([]*DiagnosticError, 0, len(b.errorSet))
	for _, err := range b.errorSet {
		result = append(result, err)
	}

	// Sort by line, then column, then code for deterministic output
	sort.Slice(result, func(i, j int) bool {
		if result[i].Token.Line != result[j].Token.Line {
			return result[i].Token.Line < result[j].Token.Line
		}
		if result[i].Token.Column != result[j].Token.Column {
			return result[i].Token.Column < result[j].Token.Column
		}
		return result[i].Code < result[j].Code
	})
	return result
}
