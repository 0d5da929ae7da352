package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed langitems.yaml
var defaultLangItems []byte

// PassMode describes how a trait method takes one of its operands.
type PassMode string

const (
	PassByValue  PassMode = "value"
	PassByRef    PassMode = "ref"
	PassByMutRef PassMode = "mut_ref"
)

// OutputKind describes the declared output of an operator method.
type OutputKind string

const (
	// OutputAssoc is the trait's associated Output type.
	OutputAssoc OutputKind = "assoc"
	// OutputBool is a plain bool (comparison traits).
	OutputBool OutputKind = "bool"
	// OutputUnit is () (compound assignment traits).
	OutputUnit OutputKind = "unit"
	// OutputRefAssoc is a reference to the associated Target type (Deref).
	OutputRefAssoc OutputKind = "ref_assoc"
)

// LangItems is the operator lang-item table: which trait and method
// implement each overloadable operator.
type LangItems struct {
	Operators []LangItem `yaml:"operators"`

	index map[LangItemKey]int
}

// LangItem binds one operator form to a trait method.
type LangItem struct {
	// Op is the operator symbol without the trailing "=" of compound forms.
	Op string `yaml:"op"`

	// Assign marks the compound-assignment form (`+=` for Op "+").
	Assign bool `yaml:"assign,omitempty"`

	// Unary marks prefix operators (`-x`, `!x`, `*x`).
	Unary bool `yaml:"unary,omitempty"`

	// Method is the trait method name (e.g. "add_assign").
	Method string `yaml:"method"`

	// Trait is the full trait path (e.g. "std::ops::AddAssign").
	Trait string `yaml:"trait"`

	// Receiver is how the method takes the left operand. Defaults to value.
	Receiver PassMode `yaml:"receiver,omitempty"`

	// Arg is how the method takes the right operand. Defaults to value.
	Arg PassMode `yaml:"arg,omitempty"`

	// Output is the declared result of the method. Defaults to assoc.
	Output OutputKind `yaml:"output,omitempty"`
}

// LangItemKey identifies an operator form in the table.
type LangItemKey struct {
	Op     string
	Assign bool
	Unary  bool
}

// Key returns the lookup key of the entry.
func (li LangItem) Key() LangItemKey {
	return LangItemKey{Op: li.Op, Assign: li.Assign, Unary: li.Unary}
}

var binarySymbols = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"^": true, "&": true, "|": true, "<<": true, ">>": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

var comparisonSymbols = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

var unarySymbols = map[string]bool{"-": true, "!": true, "*": true}

// DefaultLangItems parses the embedded table. The embedded table is part of
// the binary, so a failure here is a build defect.
func DefaultLangItems() *LangItems {
	items, err := ParseLangItems(defaultLangItems, "langitems.yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded lang items: %v", err))
	}
	return items
}

// LoadLangItems reads and parses a lang-item table file.
func LoadLangItems(path string) (*LangItems, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lang items %s: %w", path, err)
	}
	return ParseLangItems(data, path)
}

// ParseLangItems parses lang-item YAML content from bytes.
// The path argument is used only for error messages.
func ParseLangItems(data []byte, path string) (*LangItems, error) {
	var items LangItems
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	items.setDefaults()
	if err := items.validate(path); err != nil {
		return nil, err
	}
	return &items, nil
}

func (l *LangItems) setDefaults() {
	for i := range l.Operators {
		op := &l.Operators[i]
		if op.Receiver == "" {
			op.Receiver = PassByValue
		}
		if op.Arg == "" {
			op.Arg = PassByValue
		}
		if op.Output == "" {
			op.Output = OutputAssoc
		}
	}
}

// validate checks the table for semantic errors and builds the index.
func (l *LangItems) validate(path string) error {
	if len(l.Operators) == 0 {
		return fmt.Errorf("%s: no operators defined", path)
	}
	l.index = make(map[LangItemKey]int, len(l.Operators))

	for i, op := range l.Operators {
		switch {
		case op.Op == "&&" || op.Op == "||":
			return fmt.Errorf("%s: operators[%d]: %s is not overloadable", path, i, op.Op)
		case op.Unary && op.Assign:
			return fmt.Errorf("%s: operators[%d]: unary operator %s cannot be an assignment", path, i, op.Op)
		case op.Unary && !unarySymbols[op.Op]:
			return fmt.Errorf("%s: operators[%d]: unknown unary operator %q", path, i, op.Op)
		case !op.Unary && !binarySymbols[op.Op]:
			return fmt.Errorf("%s: operators[%d]: unknown binary operator %q", path, i, op.Op)
		case op.Assign && comparisonSymbols[op.Op]:
			return fmt.Errorf("%s: operators[%d]: impossible assignment operation %s=", path, i, op.Op)
		case op.Method == "":
			return fmt.Errorf("%s: operators[%d]: method is required", path, i)
		case op.Trait == "":
			return fmt.Errorf("%s: operators[%d]: trait is required", path, i)
		}
		if !validPassMode(op.Receiver) || !validPassMode(op.Arg) {
			return fmt.Errorf("%s: operators[%d]: invalid pass mode (receiver %q, arg %q)", path, i, op.Receiver, op.Arg)
		}
		switch op.Output {
		case OutputAssoc, OutputBool, OutputUnit, OutputRefAssoc:
		default:
			return fmt.Errorf("%s: operators[%d]: invalid output %q", path, i, op.Output)
		}

		key := op.Key()
		if prev, dup := l.index[key]; dup {
			return fmt.Errorf("%s: operators[%d]: duplicates operators[%d] (%s)", path, i, prev, op.Op)
		}
		l.index[key] = i
	}
	return nil
}

func validPassMode(m PassMode) bool {
	return m == PassByValue || m == PassByRef || m == PassByMutRef
}

// Lookup returns the entry for an operator form.
func (l *LangItems) Lookup(op string, assign, unary bool) (LangItem, bool) {
	i, ok := l.index[LangItemKey{Op: op, Assign: assign, Unary: unary}]
	if !ok {
		return LangItem{}, false
	}
	return l.Operators[i], true
}

// TraitMethods groups the table by trait path, in trait path order.
// Traits such as PartialEq carry several methods.
func (l *LangItems) TraitMethods() map[string][]LangItem {
	byTrait := make(map[string][]LangItem)
	for _, op := range l.Operators {
		byTrait[op.Trait] = append(byTrait[op.Trait], op)
	}
	return byTrait
}

// TraitPaths returns the distinct trait paths, sorted.
func (l *LangItems) TraitPaths() []string {
	var paths []string
	for path := range l.TraitMethods() {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
