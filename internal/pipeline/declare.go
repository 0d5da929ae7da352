package pipeline

import (
	"fmt"
	"strings"

	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/exprcheck"
	"github.com/funvibe/opcheck/internal/scenario"
	"github.com/funvibe/opcheck/internal/symbols"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// InferredType is the variable type left to inference.
const InferredType = "_"

// DeclareProcessor builds the symbol table of the scenario and the checker
// that types its expressions.
type DeclareProcessor struct{}

func (dp *DeclareProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil {
		return ctx
	}
	items := ctx.langItems()
	var st *symbols.SymbolTable
	if ctx.LangItems == nil {
		st = symbols.NewSymbolTable()
	} else {
		st = symbols.NewEnclosedSymbolTable(symbols.NewPrelude(items))
	}
	checker := exprcheck.New(st, items, ctx.FilePath)

	d := &declarer{
		file:    ctx.FilePath,
		st:      st,
		checker: checker,
		arity:   make(map[string]int),
	}
	if err := d.declare(ctx.Scenario); err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.SymbolTable = st
	ctx.Checker = checker
	return ctx
}

type declarer struct {
	file    string
	st      *symbols.SymbolTable
	checker *exprcheck.Checker
	// arity is the parameter count of each declared type
	arity    map[string]int
	generics []string
}

func (d *declarer) errorf(tok token.Token, format string, args ...interface{}) error {
	return &scenario.Error{File: d.file, Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func (d *declarer) declare(sc *scenario.Scenario) error {
	d.generics = sc.Generics

	for _, t := range sc.Types {
		if _, ok := d.st.ResolveType(t.Name); ok {
			return d.errorf(t.Token, "type %s is already defined", t.Name)
		}
		d.st.DefineType(t.Name, typesystem.TCon{Name: t.Name, Local: true}, d.file)
		d.arity[t.Name] = len(t.Params)
	}
	for _, t := range sc.Types {
		if err := d.typeFacts(t); err != nil {
			return err
		}
	}
	for _, fn := range sc.Functions {
		if err := d.function(fn); err != nil {
			return err
		}
	}
	for _, v := range sc.Variables {
		if err := d.variable(v); err != nil {
			return err
		}
	}
	for _, impl := range sc.Impls {
		if err := d.impl(impl); err != nil {
			return err
		}
	}
	return nil
}

// parse parses a type expression of the scenario; params are generic
// parameters in scope besides the scenario's own.
func (d *declarer) parse(src string, tok token.Token, params []string) (typesystem.Type, error) {
	var failure error
	resolve := func(name string, args []typesystem.Type) (typesystem.Type, bool) {
		if contains(params, name) || contains(d.generics, name) {
			if len(args) > 0 && failure == nil {
				failure = d.errorf(tok, "type parameter %s takes no arguments", name)
			}
			return typesystem.TParam{Name: name}, true
		}
		if n, ok := d.arity[name]; ok {
			if len(args) != n && failure == nil {
				failure = d.errorf(tok, "type %s takes %d type argument(s), got %d", name, n, len(args))
			}
			con := typesystem.TCon{Name: name, Local: true}
			if len(args) == 0 {
				return con, true
			}
			return typesystem.TApp{Constructor: con, Args: args}, true
		}
		if t, ok := d.st.ResolveType(name); ok && len(args) == 0 {
			return t, true
		}
		if strings.Contains(name, "::") {
			return nil, false
		}
		if failure == nil {
			failure = d.errorf(tok, "unknown type %s", name)
		}
		return typesystem.TError{}, true
	}

	t, err := typesystem.ParseType(src, resolve)
	if err != nil {
		return nil, d.errorf(tok, "%v", err)
	}
	if failure != nil {
		return nil, failure
	}
	return t, nil
}

func (d *declarer) parseAll(srcs []string, tok token.Token, params []string) ([]typesystem.Type, error) {
	var out []typesystem.Type
	for _, src := range srcs {
		t, err := d.parse(src, tok, params)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// selfType is the declared type applied to its own parameters.
func selfType(t scenario.TypeDecl) typesystem.Type {
	con := typesystem.TCon{Name: t.Name, Local: true}
	if len(t.Params) == 0 {
		return con
	}
	args := make([]typesystem.Type, len(t.Params))
	for i, p := range t.Params {
		args[i] = typesystem.TParam{Name: p}
	}
	return typesystem.TApp{Constructor: con, Args: args}
}

func (d *declarer) typeFacts(t scenario.TypeDecl) error {
	self := selfType(t)
	if t.Copy {
		if err := d.st.RegisterCopy(self, t.Params, d.file); err != nil {
			return d.errorf(t.Token, "%v", err)
		}
	}
	if t.Deref != "" {
		target, err := d.parse(t.Deref, t.Token, t.Params)
		if err != nil {
			return err
		}
		if err := d.st.RegisterDeref(self, target, t.Params, d.file); err != nil {
			return d.errorf(t.Token, "%v", err)
		}
	}
	return nil
}

func (d *declarer) function(fn scenario.FunctionDecl) error {
	if d.defined(fn.Name) {
		return d.errorf(fn.Token, "%s is already defined", fn.Name)
	}
	params, err := d.parseAll(fn.Params, fn.Token, nil)
	if err != nil {
		return err
	}
	ret := typesystem.Unit()
	if fn.Returns != "" {
		if ret, err = d.parse(fn.Returns, fn.Token, nil); err != nil {
			return err
		}
	}
	d.st.DefineFunction(fn.Name, params, ret, !fn.Extern, d.file)
	return nil
}

func (d *declarer) variable(v scenario.VariableDecl) error {
	if d.defined(v.Name) {
		return d.errorf(v.Token, "%s is already defined", v.Name)
	}
	var t typesystem.Type
	if v.Type == InferredType {
		t = d.checker.Inference().FreshVar(fmt.Sprintf("binding `%s`", v.Name))
	} else {
		var err error
		if t, err = d.parse(v.Type, v.Token, nil); err != nil {
			return err
		}
	}
	if v.Mutable {
		d.st.DefineMutable(v.Name, t, d.file)
	} else {
		d.st.Define(v.Name, t, d.file)
	}
	return nil
}

func (d *declarer) impl(decl scenario.ImplDecl) error {
	def, ok := d.st.GetTrait(decl.Trait)
	if !ok {
		return d.errorf(decl.Token, "unknown trait %s", decl.Trait)
	}
	impl := &symbols.Impl{Trait: decl.Trait, Generics: decl.Generics, Origin: d.file}

	var err error
	if impl.Self, err = d.parse(decl.Self, decl.Token, decl.Generics); err != nil {
		return err
	}
	if impl.Args, err = d.parseAll(decl.Args, decl.Token, decl.Generics); err != nil {
		return err
	}
	if len(impl.Args) == 0 && takesRhs(def) {
		// Rhs = Self
		impl.Args = []typesystem.Type{impl.Self}
	}
	if decl.Output != "" {
		if impl.Output, err = d.parse(decl.Output, decl.Token, decl.Generics); err != nil {
			return err
		}
	} else if hasAssocOutput(def) {
		return d.errorf(decl.Token, "impl of %s for %s needs an output", decl.Trait, decl.Self)
	}

	for _, b := range decl.Bounds {
		bdef, ok := d.st.GetTrait(b.Trait)
		if !ok {
			return d.errorf(decl.Token, "unknown trait %s in bound", b.Trait)
		}
		bound := symbols.Bound{Trait: b.Trait}
		if bound.Self, err = d.parse(b.Self, decl.Token, decl.Generics); err != nil {
			return err
		}
		if bound.Args, err = d.parseAll(b.Args, decl.Token, decl.Generics); err != nil {
			return err
		}
		if len(bound.Args) == 0 && takesRhs(bdef) {
			bound.Args = []typesystem.Type{bound.Self}
		}
		impl.Bounds = append(impl.Bounds, bound)
	}

	if err := d.st.RegisterImplementation(impl); err != nil {
		return d.errorf(decl.Token, "%v", err)
	}
	return nil
}

// defined reports a name already bound in the scenario's own scope.
func (d *declarer) defined(name string) bool {
	_, scope, ok := d.st.FindWithScope(name)
	return ok && scope == d.st
}

func takesRhs(def *symbols.TraitDef) bool {
	for _, m := range def.Methods {
		if !m.Unary {
			return true
		}
	}
	return false
}

func hasAssocOutput(def *symbols.TraitDef) bool {
	for _, m := range def.Methods {
		if m.Output == config.OutputAssoc || m.Output == config.OutputRefAssoc {
			return true
		}
	}
	return false
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
