package lexer

import (
	"testing"

	"github.com/funvibe/opcheck/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `s += &mut x<<1u32 == 'c' "a\"b" panic!() (a, b) != !f && g &&= 2.5e-3f32 1usize-2`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.IDENT, "s"},
		{token.ASSIGN_OPERATOR, "+="},
		{token.AMPERSAND, "&"},
		{token.MUT, "mut"},
		{token.IDENT, "x"},
		{token.OPERATOR, "<<"},
		{token.INT, "1u32"},
		{token.OPERATOR, "=="},
		{token.CHAR, "c"},
		{token.STRING, `a"b`},
		{token.PANIC, "panic!"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.OPERATOR, "!="},
		{token.PREFIX, "!"},
		{token.IDENT, "f"},
		{token.OPERATOR, "&&"},
		{token.IDENT, "g"},
		{token.ASSIGN_OPERATOR, "&&="},
		{token.INT, "2.5e-3f32"},
		{token.INT, "1usize"},
		{token.OPERATOR, "-"},
		{token.INT, "2"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)", i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestPositions(t *testing.T) {
	l := NewAt("a +\n  *b", 10, 5)
	want := [][2]int{{10, 5}, {10, 7}, {11, 3}, {11, 4}, {11, 5}}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Line != w[0] || tok.Column != w[1] {
			t.Errorf("token %d (%q) at %s, want %d:%d", i, tok.Lexeme, tok.Pos(), w[0], w[1])
		}
	}
}

func TestIllegal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`a = b`, "plain assignment `=` is not an operator expression"},
		{`"open`, "unterminated double quote string"},
		{`'ab'`, "invalid char literal"},
		{`a # b`, `unknown start of token: '#'`},
	}
	for _, tt := range tests {
		l := New(tt.input)
		var got string
		for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
			if tok.Type == token.ILLEGAL {
				got = tok.Lexeme
				break
			}
		}
		if got != tt.want {
			t.Errorf("%q: illegal token %q, want %q", tt.input, got, tt.want)
		}
	}
}
