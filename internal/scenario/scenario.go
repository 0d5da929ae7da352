// Package scenario loads scenario files: the declarations a group of
// expressions is checked against, and the expression trees themselves.
//
// A scenario is YAML:
//
//	types:
//	  - {name: Meters, copy: true}
//	  - {name: Boxed, params: [T], deref: T}
//	generics: [T]
//	functions:
//	  - {name: len, params: ["&str"], returns: usize}
//	variables:
//	  - {name: s, type: String, mutable: true}
//	impls:
//	  - {trait: "std::ops::Add", self: Meters, output: Meters}
//	expressions:
//	  - name: concat
//	    expr: {binary: "+", lhs: s, rhs: {ref: t}}
//	  - name: append
//	    expr: 's += "x"'
//
// A bare scalar in an expression position is a variable name, a literal
// when YAML tags it as a number or a bool, and otherwise expression source
// text such as `-(a + 1) << 2u32`.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/token"
)

type Scenario struct {
	File        string
	Types       []TypeDecl
	Generics    []string
	Functions   []FunctionDecl
	Variables   []VariableDecl
	Impls       []ImplDecl
	Expressions []Unit
}

// TypeDecl declares a local nominal type, generic over Params.
type TypeDecl struct {
	Name   string
	Params []string
	Copy   bool
	// Deref, when set, is the type `*` and deref coercion produce.
	Deref string
	Token token.Token
}

type FunctionDecl struct {
	Name    string
	Params  []string
	Returns string
	// Extern functions are declared without a body.
	Extern bool
	Token  token.Token
}

// VariableDecl binds a name to a type. The type `_` is left to inference.
type VariableDecl struct {
	Name    string
	Type    string
	Mutable bool
	Token   token.Token
}

type ImplDecl struct {
	Trait    string
	Self     string
	Args     []string
	Output   string
	Generics []string
	Bounds   []BoundDecl
	Token    token.Token
}

// BoundDecl is a where-clause `Self: Trait<Args>` of a generic impl.
type BoundDecl struct {
	Self  string
	Trait string
	Args  []string
}

// Unit is one named top-level expression.
type Unit struct {
	Name  string
	Expr  ast.Expression
	Token token.Token
}

// Error is a scenario file error with its position.
type Error struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses scenario YAML. The path is used for positions and messages.
func Parse(data []byte, path string) (*Scenario, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	d := &decoder{file: path}
	sc := &Scenario{File: path}
	if len(doc.Content) == 0 {
		return sc, nil
	}
	if err := d.scenario(doc.Content[0], sc); err != nil {
		return nil, err
	}
	return sc, nil
}
