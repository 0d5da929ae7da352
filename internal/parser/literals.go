package parser

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/token"
	"github.com/funvibe/opcheck/internal/typesystem"
)

// literalSuffixes lists the primitive suffixes, longest first so that
// `1i128` is not read as `1i12` + `8`.
var literalSuffixes = func() []string {
	var out []string
	out = append(out, config.SignedIntTypeNames...)
	out = append(out, config.UnsignedIntTypeNames...)
	out = append(out, config.FloatTypeNames...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}()

type LiteralKind int

const (
	AnyLiteral LiteralKind = iota
	IntLiteral
	FloatLiteral
)

// ParseNumber builds an integer or float literal from lexeme, which may
// carry a type suffix. Unless kind says otherwise, a float suffix or a
// fractional part makes a float literal. Errors are reported at tok.
func ParseNumber(tok token.Token, lexeme string, kind LiteralKind) (ast.Expression, *Error) {
	fail := func(msg string) (ast.Expression, *Error) {
		return nil, &Error{Token: tok, Msg: msg}
	}

	value, suffix := lexeme, ""
	for _, s := range literalSuffixes {
		if len(lexeme) > len(s) && strings.HasSuffix(lexeme, s) {
			value, suffix = strings.TrimSuffix(lexeme, s), s
			break
		}
	}
	digits := strings.ReplaceAll(value, "_", "")
	radix := len(digits) > 1 && digits[0] == '0' && strings.ContainsRune("xob", rune(digits[1]))
	if radix && typesystem.IsFloat(typesystem.Float(suffix)) {
		// 0x1f32 is a hex integer
		value, suffix = lexeme, ""
		digits = strings.ReplaceAll(value, "_", "")
	}
	if !radix {
		i := strings.IndexFunc(digits, func(r rune) bool { return unicode.IsLetter(r) && r != 'e' && r != 'E' })
		switch {
		case i == 0:
			return fail("invalid number literal " + strconv.Quote(lexeme))
		case i > 0:
			return fail("invalid suffix `" + digits[i:] + "` for number literal")
		}
	}

	float := kind == FloatLiteral
	if kind == AnyLiteral {
		float = !radix && (strings.ContainsAny(digits, ".eE") || typesystem.IsFloat(typesystem.Float(suffix)))
	}
	tok.Lexeme = lexeme

	if float {
		if suffix != "" && !typesystem.IsFloat(typesystem.Float(suffix)) {
			return fail("invalid suffix `" + suffix + "` for float literal")
		}
		if _, err := strconv.ParseFloat(digits, 64); err != nil || radix {
			return fail("invalid float literal " + strconv.Quote(lexeme))
		}
		tok.Type = token.FLOAT
		return &ast.FloatLiteral{Token: tok, Value: value, Suffix: suffix}, nil
	}
	if suffix != "" && !typesystem.IsIntegral(typesystem.Int(suffix)) {
		return fail("invalid suffix `" + suffix + "` for integer literal")
	}
	if _, err := strconv.ParseUint(digits, 0, 64); err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return fail("invalid integer literal " + strconv.Quote(lexeme))
		}
	}
	tok.Type = token.INT
	return &ast.IntegerLiteral{Token: tok, Value: value, Suffix: suffix}, nil
}
