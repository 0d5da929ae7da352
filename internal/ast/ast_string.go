package ast

import (
	"strings"
)

// String methods render nodes as they were written. Grouping comes only
// from ParenExpression nodes; use prettyprinter for precedence-aware output.

func (i *Identifier) String() string { return i.Value }

func (il *IntegerLiteral) String() string { return il.Value + il.Suffix }

func (fl *FloatLiteral) String() string { return fl.Value + fl.Suffix }

func (b *BooleanLiteral) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func (sl *StringLiteral) String() string { return "\"" + sl.Value + "\"" }

func (cl *CharLiteral) String() string { return "'" + string(cl.Value) + "'" }

func (tl *TupleLiteral) String() string {
	var out strings.Builder
	out.WriteString("(")
	for i, el := range tl.Elements {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(el.String())
	}
	if len(tl.Elements) == 1 {
		out.WriteString(",")
	}
	out.WriteString(")")
	return out.String()
}

func (pe *PanicExpression) String() string { return "panic!()" }

func (ie *InfixExpression) String() string {
	return ie.Left.String() + " " + ie.Operator + " " + ie.Right.String()
}

func (ae *AssignOpExpression) String() string {
	return ae.Left.String() + " " + ae.Operator + " " + ae.Right.String()
}

func (pe *PrefixExpression) String() string { return pe.Operator + pe.Right.String() }

func (re *ReferenceExpression) String() string {
	if re.Mutable {
		return "&mut " + re.Value.String()
	}
	return "&" + re.Value.String()
}

func (ce *CallExpression) String() string {
	args := make([]string, len(ce.Arguments))
	for i, a := range ce.Arguments {
		args[i] = a.String()
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

func (pe *ParenExpression) String() string { return "(" + pe.Inner.String() + ")" }
