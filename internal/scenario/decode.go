package scenario

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/opcheck/internal/analyzer"
	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/lexer"
	"github.com/funvibe/opcheck/internal/parser"
	"github.com/funvibe/opcheck/internal/token"
)

type decoder struct {
	file string
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return &Error{File: d.file, Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

func pos(n *yaml.Node, tt token.TokenType, lexeme string) token.Token {
	return token.New(tt, lexeme, n.Line, n.Column)
}

// field is a mapping entry with the key node kept for its position.
type field struct {
	key   *yaml.Node
	value *yaml.Node
}

// fields returns the entries of a mapping, rejecting keys not in allowed
// and duplicate keys.
func (d *decoder) fields(n *yaml.Node, what string, allowed ...string) (map[string]field, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "%s must be a mapping", what)
	}
	known := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		known[a] = true
	}
	out := make(map[string]field, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if !known[key.Value] {
			return nil, d.errorf(key, "unknown key %q in %s", key.Value, what)
		}
		if _, dup := out[key.Value]; dup {
			return nil, d.errorf(key, "duplicate key %q in %s", key.Value, what)
		}
		out[key.Value] = field{key: key, value: value}
	}
	return out, nil
}

func (d *decoder) str(n *yaml.Node, what string) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", d.errorf(n, "%s must be a scalar", what)
	}
	return n.Value, nil
}

func (d *decoder) required(fs map[string]field, key string, n *yaml.Node, what string) (string, error) {
	f, ok := fs[key]
	if !ok {
		return "", d.errorf(n, "%s needs %q", what, key)
	}
	s, err := d.str(f.value, what+" "+key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", d.errorf(f.value, "%s %s is empty", what, key)
	}
	return s, nil
}

func (d *decoder) optional(fs map[string]field, key, what string) (string, error) {
	f, ok := fs[key]
	if !ok {
		return "", nil
	}
	return d.str(f.value, what+" "+key)
}

func (d *decoder) strs(fs map[string]field, key, what string) ([]string, error) {
	f, ok := fs[key]
	if !ok {
		return nil, nil
	}
	return d.strList(f.value, what+" "+key)
}

func (d *decoder) strList(n *yaml.Node, what string) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "%s must be a list", what)
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		s, err := d.str(item, what)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) flag(fs map[string]field, key, what string) (bool, error) {
	f, ok := fs[key]
	if !ok {
		return false, nil
	}
	var b bool
	if err := f.value.Decode(&b); err != nil {
		return false, d.errorf(f.value, "%s %s must be a bool", what, key)
	}
	return b, nil
}

func (d *decoder) list(n *yaml.Node, what string, each func(*yaml.Node) error) error {
	if n.Kind != yaml.SequenceNode {
		return d.errorf(n, "%s must be a list", what)
	}
	for _, item := range n.Content {
		if err := each(item); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) scenario(root *yaml.Node, sc *Scenario) error {
	fs, err := d.fields(root, "scenario", "types", "generics", "functions", "variables", "impls", "expressions")
	if err != nil {
		return err
	}
	if f, ok := fs["types"]; ok {
		if err := d.list(f.value, "types", func(n *yaml.Node) error {
			decl, err := d.typeDecl(n)
			sc.Types = append(sc.Types, decl)
			return err
		}); err != nil {
			return err
		}
	}
	if sc.Generics, err = d.strs(fs, "generics", "scenario"); err != nil {
		return err
	}
	if f, ok := fs["functions"]; ok {
		if err := d.list(f.value, "functions", func(n *yaml.Node) error {
			decl, err := d.functionDecl(n)
			sc.Functions = append(sc.Functions, decl)
			return err
		}); err != nil {
			return err
		}
	}
	if f, ok := fs["variables"]; ok {
		if err := d.list(f.value, "variables", func(n *yaml.Node) error {
			decl, err := d.variableDecl(n)
			sc.Variables = append(sc.Variables, decl)
			return err
		}); err != nil {
			return err
		}
	}
	if f, ok := fs["impls"]; ok {
		if err := d.list(f.value, "impls", func(n *yaml.Node) error {
			decl, err := d.implDecl(n)
			sc.Impls = append(sc.Impls, decl)
			return err
		}); err != nil {
			return err
		}
	}
	if f, ok := fs["expressions"]; ok {
		seen := make(map[string]bool)
		if err := d.list(f.value, "expressions", func(n *yaml.Node) error {
			u, err := d.unit(n)
			if err != nil {
				return err
			}
			if seen[u.Name] {
				return d.errorf(n, "duplicate expression name %q", u.Name)
			}
			seen[u.Name] = true
			sc.Expressions = append(sc.Expressions, u)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) typeDecl(n *yaml.Node) (TypeDecl, error) {
	decl := TypeDecl{Token: pos(n, token.IDENT, "")}
	fs, err := d.fields(n, "type", "name", "params", "copy", "deref")
	if err != nil {
		return decl, err
	}
	if decl.Name, err = d.required(fs, "name", n, "type"); err != nil {
		return decl, err
	}
	decl.Token.Lexeme = decl.Name
	if decl.Params, err = d.strs(fs, "params", "type"); err != nil {
		return decl, err
	}
	if decl.Copy, err = d.flag(fs, "copy", "type"); err != nil {
		return decl, err
	}
	decl.Deref, err = d.optional(fs, "deref", "type")
	return decl, err
}

func (d *decoder) functionDecl(n *yaml.Node) (FunctionDecl, error) {
	decl := FunctionDecl{Token: pos(n, token.IDENT, "")}
	fs, err := d.fields(n, "function", "name", "params", "returns", "extern")
	if err != nil {
		return decl, err
	}
	if decl.Name, err = d.required(fs, "name", n, "function"); err != nil {
		return decl, err
	}
	decl.Token.Lexeme = decl.Name
	if decl.Params, err = d.strs(fs, "params", "function"); err != nil {
		return decl, err
	}
	if decl.Returns, err = d.optional(fs, "returns", "function"); err != nil {
		return decl, err
	}
	decl.Extern, err = d.flag(fs, "extern", "function")
	return decl, err
}

func (d *decoder) variableDecl(n *yaml.Node) (VariableDecl, error) {
	decl := VariableDecl{Token: pos(n, token.IDENT, "")}
	fs, err := d.fields(n, "variable", "name", "type", "mutable")
	if err != nil {
		return decl, err
	}
	if decl.Name, err = d.required(fs, "name", n, "variable"); err != nil {
		return decl, err
	}
	decl.Token.Lexeme = decl.Name
	if decl.Type, err = d.required(fs, "type", n, "variable"); err != nil {
		return decl, err
	}
	decl.Mutable, err = d.flag(fs, "mutable", "variable")
	return decl, err
}

func (d *decoder) implDecl(n *yaml.Node) (ImplDecl, error) {
	decl := ImplDecl{Token: pos(n, token.IDENT, "")}
	fs, err := d.fields(n, "impl", "trait", "self", "args", "output", "generics", "bounds")
	if err != nil {
		return decl, err
	}
	if decl.Trait, err = d.required(fs, "trait", n, "impl"); err != nil {
		return decl, err
	}
	decl.Token.Lexeme = decl.Trait
	if decl.Self, err = d.required(fs, "self", n, "impl"); err != nil {
		return decl, err
	}
	if decl.Args, err = d.strs(fs, "args", "impl"); err != nil {
		return decl, err
	}
	if decl.Output, err = d.optional(fs, "output", "impl"); err != nil {
		return decl, err
	}
	if decl.Generics, err = d.strs(fs, "generics", "impl"); err != nil {
		return decl, err
	}
	if f, ok := fs["bounds"]; ok {
		err = d.list(f.value, "impl bounds", func(b *yaml.Node) error {
			bfs, err := d.fields(b, "bound", "self", "trait", "args")
			if err != nil {
				return err
			}
			var bound BoundDecl
			if bound.Self, err = d.required(bfs, "self", b, "bound"); err != nil {
				return err
			}
			if bound.Trait, err = d.required(bfs, "trait", b, "bound"); err != nil {
				return err
			}
			if bound.Args, err = d.strs(bfs, "args", "bound"); err != nil {
				return err
			}
			decl.Bounds = append(decl.Bounds, bound)
			return nil
		})
	}
	return decl, err
}

func (d *decoder) unit(n *yaml.Node) (Unit, error) {
	fs, err := d.fields(n, "expression", "name", "expr")
	if err != nil {
		return Unit{}, err
	}
	u := Unit{Token: pos(n, token.IDENT, "")}
	if u.Name, err = d.required(fs, "name", n, "expression"); err != nil {
		return u, err
	}
	u.Token.Lexeme = u.Name
	f, ok := fs["expr"]
	if !ok {
		return u, d.errorf(n, "expression %q needs \"expr\"", u.Name)
	}
	u.Expr, err = d.expr(f.value)
	return u, err
}

// exprKinds are the keys that select the kind of an expression mapping,
// with the other keys each kind accepts.
var exprKinds = map[string][]string{
	"var":    nil,
	"int":    {"suffix"},
	"float":  {"suffix"},
	"bool":   nil,
	"str":    nil,
	"char":   nil,
	"binary": {"lhs", "rhs"},
	"assign": {"lhs", "rhs"},
	"unary":  {"operand"},
	"ref":    {"mut"},
	"call":   {"args"},
	"tuple":  nil,
	"panic":  nil,
	"paren":  nil,
}

func (d *decoder) expr(n *yaml.Node) (ast.Expression, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalarExpr(n)
	case yaml.MappingNode:
	default:
		return nil, d.errorf(n, "expression must be a scalar or a mapping")
	}

	kind := ""
	for i := 0; i+1 < len(n.Content); i += 2 {
		if _, ok := exprKinds[n.Content[i].Value]; ok {
			if kind != "" {
				return nil, d.errorf(n.Content[i], "expression has both %q and %q", kind, n.Content[i].Value)
			}
			kind = n.Content[i].Value
		}
	}
	if kind == "" {
		return nil, d.errorf(n, "expression needs one of var, int, float, bool, str, char, binary, assign, unary, ref, call, tuple, panic, paren")
	}
	fs, err := d.fields(n, kind+" expression", append([]string{kind}, exprKinds[kind]...)...)
	if err != nil {
		return nil, err
	}
	head := fs[kind]

	switch kind {
	case "var":
		return d.identifier(head.value)
	case "int", "float":
		lexeme, err := d.str(head.value, kind+" literal")
		if err != nil {
			return nil, err
		}
		suffix, err := d.optional(fs, "suffix", kind+" literal")
		if err != nil {
			return nil, err
		}
		want := parser.IntLiteral
		if kind == "float" {
			want = parser.FloatLiteral
		}
		return d.number(head.value, lexeme+suffix, want)
	case "bool":
		var b bool
		if err := head.value.Decode(&b); err != nil {
			return nil, d.errorf(head.value, "bool literal must be true or false")
		}
		return boolLiteral(head.value, b), nil
	case "str":
		s, err := d.str(head.value, "string literal")
		if err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Token: pos(head.value, token.STRING, s), Value: s}, nil
	case "char":
		s, err := d.str(head.value, "char literal")
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(s) != 1 {
			return nil, d.errorf(head.value, "char literal must be a single character, got %q", s)
		}
		r, _ := utf8.DecodeRuneInString(s)
		return &ast.CharLiteral{Token: pos(head.value, token.CHAR, s), Value: r}, nil
	case "binary":
		return d.binary(fs, head)
	case "assign":
		return d.assign(fs, head)
	case "unary":
		op, err := d.str(head.value, "unary operator")
		if err != nil {
			return nil, err
		}
		if _, ok := analyzer.ParseUnOp(op); !ok {
			return nil, d.errorf(head.value, "unknown unary operator %q", op)
		}
		operand, err := d.operand(fs, "operand", n, "unary expression")
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpression{Token: pos(head.value, token.PREFIX, op), Operator: op, Right: operand}, nil
	case "ref":
		mutable, err := d.flag(fs, "mut", "ref")
		if err != nil {
			return nil, err
		}
		inner, err := d.expr(head.value)
		if err != nil {
			return nil, err
		}
		return &ast.ReferenceExpression{Token: pos(head.key, token.AMPERSAND, "&"), Mutable: mutable, Value: inner}, nil
	case "call":
		fn, err := d.expr(head.value)
		if err != nil {
			return nil, err
		}
		call := &ast.CallExpression{Token: pos(head.key, token.LPAREN, "("), Function: fn}
		if f, ok := fs["args"]; ok {
			if call.Arguments, err = d.exprList(f.value, "call arguments"); err != nil {
				return nil, err
			}
		}
		return call, nil
	case "tuple":
		elems, err := d.exprList(head.value, "tuple elements")
		if err != nil {
			return nil, err
		}
		return &ast.TupleLiteral{Token: pos(head.key, token.LPAREN, "("), Elements: elems}, nil
	case "panic":
		return &ast.PanicExpression{Token: pos(head.key, token.PANIC, "panic!")}, nil
	default: // paren
		inner, err := d.expr(head.value)
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpression{Token: pos(head.key, token.LPAREN, "("), Inner: inner}, nil
	}
}

func (d *decoder) exprList(n *yaml.Node, what string) ([]ast.Expression, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "%s must be a list", what)
	}
	out := make([]ast.Expression, 0, len(n.Content))
	for _, item := range n.Content {
		e, err := d.expr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) operand(fs map[string]field, key string, n *yaml.Node, what string) (ast.Expression, error) {
	f, ok := fs[key]
	if !ok {
		return nil, d.errorf(n, "%s needs %q", what, key)
	}
	return d.expr(f.value)
}

func (d *decoder) binary(fs map[string]field, head field) (ast.Expression, error) {
	op, err := d.str(head.value, "binary operator")
	if err != nil {
		return nil, err
	}
	if _, ok := analyzer.ParseBinOp(op); !ok {
		return nil, d.errorf(head.value, "unknown binary operator %q", op)
	}
	lhs, rhs, err := d.operands(fs, head.key)
	if err != nil {
		return nil, err
	}
	return &ast.InfixExpression{Token: pos(head.value, token.OPERATOR, op), Left: lhs, Operator: op, Right: rhs}, nil
}

// assign accepts any binary operator followed by `=`. Forms that are not
// assignment operators, such as `&&=`, are left to the checker to reject.
func (d *decoder) assign(fs map[string]field, head field) (ast.Expression, error) {
	op, err := d.str(head.value, "assignment operator")
	if err != nil {
		return nil, err
	}
	if _, ok := analyzer.ParseBinOp(strings.TrimSuffix(op, "=")); !ok || !strings.HasSuffix(op, "=") {
		return nil, d.errorf(head.value, "unknown assignment operator %q", op)
	}
	lhs, rhs, err := d.operands(fs, head.key)
	if err != nil {
		return nil, err
	}
	return &ast.AssignOpExpression{Token: pos(head.value, token.ASSIGN_OPERATOR, op), Left: lhs, Operator: op, Right: rhs}, nil
}

func (d *decoder) operands(fs map[string]field, at *yaml.Node) (ast.Expression, ast.Expression, error) {
	lhs, err := d.operand(fs, "lhs", at, "operator")
	if err != nil {
		return nil, nil, err
	}
	rhs, err := d.operand(fs, "rhs", at, "operator")
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}

func (d *decoder) scalarExpr(n *yaml.Node) (ast.Expression, error) {
	switch n.Tag {
	case "!!int":
		return d.number(n, n.Value, parser.IntLiteral)
	case "!!float":
		return d.number(n, n.Value, parser.FloatLiteral)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "invalid bool %q", n.Value)
		}
		return boolLiteral(n, b), nil
	case "!!null":
		return nil, d.errorf(n, "missing expression")
	}
	if isIdentifier(n.Value) && !lexer.IsKeyword(n.Value) {
		return d.identifier(n)
	}
	return d.source(n)
}

func boolLiteral(n *yaml.Node, b bool) *ast.BooleanLiteral {
	tt := token.FALSE
	if b {
		tt = token.TRUE
	}
	return &ast.BooleanLiteral{Token: pos(n, tt, n.Value), Value: b}
}

func (d *decoder) identifier(n *yaml.Node) (ast.Expression, error) {
	name, err := d.str(n, "variable")
	if err != nil {
		return nil, err
	}
	if !isIdentifier(name) {
		return nil, d.errorf(n, "invalid name %q", name)
	}
	return &ast.Identifier{Token: pos(n, token.IDENT, name), Value: name}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// number builds a literal from lexeme, which may carry a type suffix.
func (d *decoder) number(n *yaml.Node, lexeme string, kind parser.LiteralKind) (ast.Expression, error) {
	lit, err := parser.ParseNumber(pos(n, token.INT, lexeme), lexeme, kind)
	if err != nil {
		return nil, d.syntaxError(err)
	}
	return lit, nil
}

// source parses a scalar holding expression source text, e.g. `s + &t`.
func (d *decoder) source(n *yaml.Node) (ast.Expression, error) {
	line, col := n.Line, n.Column
	switch n.Style {
	case yaml.DoubleQuotedStyle, yaml.SingleQuotedStyle:
		col++
	case yaml.LiteralStyle, yaml.FoldedStyle:
		// the node does not record the indentation of block scalars
		line++
	}
	expr, err := parser.ParseExpression(n.Value, line, col)
	if err != nil {
		return nil, d.syntaxError(err)
	}
	return expr, nil
}

func (d *decoder) syntaxError(err error) error {
	var pe *parser.Error
	if errors.As(err, &pe) {
		return &Error{File: d.file, Line: pe.Token.Line, Column: pe.Token.Column, Msg: pe.Msg}
	}
	return err
}
