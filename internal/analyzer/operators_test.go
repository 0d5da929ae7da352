package analyzer

import (
	"testing"

	"github.com/funvibe/opcheck/internal/typesystem"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		op   BinOpKind
		want Category
	}{
		{And, ShortCircuit},
		{Or, ShortCircuit},
		{Shl, Shift},
		{Shr, Shift},
		{Add, Arithmetic},
		{Rem, Arithmetic},
		{BitXor, Bitwise},
		{BitOr, Bitwise},
		{Eq, Comparison},
		{Ge, Comparison},
	}
	for _, tt := range tests {
		if got := CategoryOf(tt.op); got != tt.want {
			t.Errorf("CategoryOf(%s) = %s, want %s", tt.op, got, tt.want)
		}
	}
}

func TestParseOperators(t *testing.T) {
	for i, sym := range binOpSymbols {
		op, ok := ParseBinOp(sym)
		if !ok || op != BinOpKind(i) {
			t.Errorf("ParseBinOp(%q) = %v, %v", sym, op, ok)
		}
	}

	if op, ok := ParseAssignOp("<<="); !ok || op != Shl {
		t.Errorf("ParseAssignOp(<<=) = %v, %v", op, ok)
	}
	for _, sym := range []string{"<=", "==", "&&=", "+"} {
		if _, ok := ParseAssignOp(sym); ok {
			t.Errorf("ParseAssignOp(%q) must fail", sym)
		}
	}

	if !Eq.IsComparison() || Eq.IsByValue() || !Add.IsByValue() {
		t.Errorf("by-value classification mismatch")
	}
	if got := BinaryOp(Add, CompoundAssign).String(); got != "+=" {
		t.Errorf("String() = %q", got)
	}
	if got := UnaryOp(Neg).String(); got != "-" {
		t.Errorf("String() = %q", got)
	}
}

func TestIsBuiltinIntegralAdd(t *testing.T) {
	for _, ty := range typesystem.IntTypes() {
		if !IsBuiltinBinop(ty, ty, Add) {
			t.Errorf("%s + %s must be builtin", ty, ty)
		}
	}
}

func TestIsBuiltinBinop(t *testing.T) {
	i32, u8, f32 := typesystem.Int("i32"), typesystem.Int("u8"), typesystem.Float("f32")
	b, c := typesystem.Bool(), typesystem.Char()
	meters := typesystem.TCon{Name: "Meters", Local: true}
	simd := typesystem.TSimd{Elem: f32, Lanes: 4}
	fn := typesystem.TFnDef{Name: "f", ReturnType: i32}

	tests := []struct {
		name     string
		lhs, rhs typesystem.Type
		op       BinOpKind
		want     bool
	}{
		{"int and float", i32, f32, Add, false},
		{"float and float", f32, f32, Mul, true},
		{"bool arithmetic", b, b, Add, false},
		{"bool bitwise", b, b, BitAnd, true},
		{"float bitwise", f32, f32, BitXor, true},
		{"mixed int shift", u8, i32, Shl, true},
		{"float shift", f32, i32, Shl, false},
		{"char comparison", c, c, Lt, true},
		{"fn item comparison", fn, fn, Eq, true},
		{"nominal comparison", meters, meters, Eq, false},
		{"nominal arithmetic", meters, meters, Add, false},
		{"simd comparison", simd, simd, Eq, false},
		{"error left", typesystem.TError{}, meters, Add, true},
		{"error right", meters, typesystem.TError{}, Eq, true},
		{"single reference", typesystem.Ref(f32), f32, Add, true},
		{"double reference", typesystem.Ref(typesystem.Ref(f32)), f32, Add, false},
		{"mutable reference", typesystem.MutRef(f32), f32, Add, false},
		{"short circuit", meters, meters, And, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBuiltinBinop(tt.lhs, tt.rhs, tt.op); got != tt.want {
				t.Errorf("IsBuiltinBinop(%s, %s, %s) = %v, want %v", tt.lhs, tt.rhs, tt.op, got, tt.want)
			}
		})
	}
}
