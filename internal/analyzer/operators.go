package analyzer

import (
	"fmt"
	"strings"
)

// BinOpKind is a binary operator as written in the source.
type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
	Rem
	And
	Or
	BitXor
	BitAnd
	BitOr
	Shl
	Shr
	Eq
	Lt
	Le
	Ne
	Ge
	Gt
)

var binOpSymbols = [...]string{
	Add:    "+",
	Sub:    "-",
	Mul:    "*",
	Div:    "/",
	Rem:    "%",
	And:    "&&",
	Or:     "||",
	BitXor: "^",
	BitAnd: "&",
	BitOr:  "|",
	Shl:    "<<",
	Shr:    ">>",
	Eq:     "==",
	Lt:     "<",
	Le:     "<=",
	Ne:     "!=",
	Ge:     ">=",
	Gt:     ">",
}

func (op BinOpKind) String() string {
	if op < 0 || int(op) >= len(binOpSymbols) {
		return fmt.Sprintf("BinOpKind(%d)", int(op))
	}
	return binOpSymbols[op]
}

// IsShortCircuit reports whether op is && or ||.
func (op BinOpKind) IsShortCircuit() bool { return op == And || op == Or }

func (op BinOpKind) IsComparison() bool {
	switch op {
	case Eq, Lt, Le, Ne, Ge, Gt:
		return true
	}
	return false
}

// IsByValue reports whether the operator's trait method takes its operands
// by value. Comparison methods take both operands by reference.
func (op BinOpKind) IsByValue() bool { return !op.IsComparison() }

// ParseBinOp maps a source symbol to its operator.
func ParseBinOp(symbol string) (BinOpKind, bool) {
	for i, s := range binOpSymbols {
		if s == symbol {
			return BinOpKind(i), true
		}
	}
	return 0, false
}

// ParseAssignOp maps a compound assignment symbol such as "+=" or "<<=" to
// the underlying operator. Comparisons and short-circuit operators have no
// compound form.
func ParseAssignOp(symbol string) (BinOpKind, bool) {
	base, ok := strings.CutSuffix(symbol, "=")
	if !ok {
		return 0, false
	}
	op, ok := ParseBinOp(base)
	if !ok || op.IsComparison() || op.IsShortCircuit() {
		return 0, false
	}
	return op, true
}

// UnOpKind is a prefix operator.
type UnOpKind int

const (
	Deref UnOpKind = iota
	Not
	Neg
)

func (op UnOpKind) String() string {
	switch op {
	case Deref:
		return "*"
	case Not:
		return "!"
	case Neg:
		return "-"
	}
	return fmt.Sprintf("UnOpKind(%d)", int(op))
}

func ParseUnOp(symbol string) (UnOpKind, bool) {
	switch symbol {
	case "*":
		return Deref, true
	case "!":
		return Not, true
	case "-":
		return Neg, true
	}
	return 0, false
}

// AssignMode distinguishes `a + b` from `a += b`.
type AssignMode int

const (
	Plain AssignMode = iota
	CompoundAssign
)

func (m AssignMode) String() string {
	if m == CompoundAssign {
		return "compound"
	}
	return "plain"
}

// OperatorKind is either Binary(kind, mode) or Unary(kind).
type OperatorKind struct {
	unary bool
	bin   BinOpKind
	mode  AssignMode
	un    UnOpKind
}

func BinaryOp(kind BinOpKind, mode AssignMode) OperatorKind {
	return OperatorKind{bin: kind, mode: mode}
}

func UnaryOp(kind UnOpKind) OperatorKind {
	return OperatorKind{unary: true, un: kind}
}

func (k OperatorKind) IsUnary() bool { return k.unary }

// Binary returns the binary operator and its assignment mode. ok is false
// for unary operators.
func (k OperatorKind) Binary() (op BinOpKind, mode AssignMode, ok bool) {
	return k.bin, k.mode, !k.unary
}

// Unary returns the prefix operator. ok is false for binary operators.
func (k OperatorKind) Unary() (op UnOpKind, ok bool) {
	return k.un, k.unary
}

// IsAssign reports the compound-assignment form.
func (k OperatorKind) IsAssign() bool { return !k.unary && k.mode == CompoundAssign }

// Symbol is the operator symbol without the "=" of compound forms.
func (k OperatorKind) Symbol() string {
	if k.unary {
		return k.un.String()
	}
	return k.bin.String()
}

func (k OperatorKind) String() string {
	if k.IsAssign() {
		return k.bin.String() + "="
	}
	return k.Symbol()
}

// Category summarizes how a binary operator behaves on builtin types.
type Category int

const (
	// && and ||: never overloadable
	ShortCircuit Category = iota
	// << and >>: the right operand may be any integer type
	Shift
	// + - * / %: equal operand types, result of the same type
	Arithmetic
	// & | ^: as Arithmetic, also defined on bool
	Bitwise
	// == != < <= > >=: equal operand types, bool result
	Comparison
)

func (c Category) String() string {
	switch c {
	case ShortCircuit:
		return "short-circuit"
	case Shift:
		return "shift"
	case Arithmetic:
		return "arithmetic"
	case Bitwise:
		return "bitwise"
	case Comparison:
		return "comparison"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// CategoryOf classifies a binary operator.
func CategoryOf(op BinOpKind) Category {
	switch op {
	case Shl, Shr:
		return Shift
	case Add, Sub, Mul, Div, Rem:
		return Arithmetic
	case BitXor, BitAnd, BitOr:
		return Bitwise
	case Eq, Ne, Lt, Le, Ge, Gt:
		return Comparison
	default:
		return ShortCircuit
	}
}
