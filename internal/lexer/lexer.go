package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/opcheck/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	return NewAt(input, 1, 1)
}

// NewAt creates a lexer whose first character is at line:column, for
// expressions embedded in a larger file.
func NewAt(input string, line, column int) *Lexer {
	l := &Lexer{input: input, line: line, column: column - 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// operators, longest first
var operators = []string{
	"<<=", ">>=", "&&=", "||=",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "^=", "&=", "|=",
	"+", "-", "*", "/", "%", "^", "&", "|", "<", ">", "!", "=",
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()
	line, col := l.line, l.column

	switch {
	case l.ch == 0:
		return token.New(token.EOF, "", line, col)
	case l.ch == '(':
		l.readChar()
		return token.New(token.LPAREN, "(", line, col)
	case l.ch == ')':
		l.readChar()
		return token.New(token.RPAREN, ")", line, col)
	case l.ch == ',':
		l.readChar()
		return token.New(token.COMMA, ",", line, col)
	case l.ch == '"':
		s, ok := l.readString()
		if !ok {
			return token.New(token.ILLEGAL, "unterminated double quote string", line, col)
		}
		return token.New(token.STRING, s, line, col)
	case l.ch == '\'':
		s, ok := l.readCharLiteral()
		if !ok {
			return token.New(token.ILLEGAL, "invalid char literal", line, col)
		}
		return token.New(token.CHAR, s, line, col)
	case isDigit(l.ch):
		return token.New(token.INT, l.readNumber(), line, col)
	case isLetter(l.ch):
		ident := l.readIdentifier()
		tt := determineIdentifierType(ident)
		if tt == token.PANIC {
			if l.ch != '!' {
				return token.New(token.IDENT, ident, line, col)
			}
			l.readChar()
			ident += "!"
		}
		return token.New(tt, ident, line, col)
	}

	rest := l.input[l.position:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.readChar()
			}
			if op == "=" {
				return token.New(token.ILLEGAL, "plain assignment `=` is not an operator expression", line, col)
			}
			return token.New(operatorType(op), op, line, col)
		}
	}
	ch := l.ch
	l.readChar()
	return token.New(token.ILLEGAL, fmt.Sprintf("unknown start of token: %q", ch), line, col)
}

func operatorType(op string) token.TokenType {
	switch op {
	case "!":
		return token.PREFIX
	case "&":
		return token.AMPERSAND
	case "==", "!=", "<=", ">=":
		return token.OPERATOR
	}
	if strings.HasSuffix(op, "=") {
		return token.ASSIGN_OPERATOR
	}
	return token.OPERATOR
}

// IsKeyword reports whether ident is reserved in expressions.
func IsKeyword(ident string) bool {
	return determineIdentifierType(ident) != token.IDENT
}

func determineIdentifierType(ident string) token.TokenType {
	switch ident {
	case "true":
		return token.TRUE
	case "false":
		return token.FALSE
	case "mut":
		return token.MUT
	case "panic":
		return token.PANIC
	}
	return token.IDENT
}

// readString reads a double-quoted string and returns its unescaped value.
func (l *Lexer) readString() (string, bool) {
	var sb strings.Builder
	l.readChar() // opening quote
	for l.ch != '"' {
		if l.ch == 0 {
			return "", false
		}
		if l.ch == '\\' {
			l.readChar()
			r, ok := unescape(l.ch)
			if !ok {
				return "", false
			}
			sb.WriteRune(r)
		} else {
			sb.WriteRune(l.ch)
		}
		l.readChar()
	}
	l.readChar() // closing quote
	return sb.String(), true
}

func (l *Lexer) readCharLiteral() (string, bool) {
	l.readChar() // opening quote
	r := l.ch
	if r == 0 || r == '\'' {
		return "", false
	}
	if r == '\\' {
		l.readChar()
		var ok bool
		if r, ok = unescape(l.ch); !ok {
			return "", false
		}
	}
	l.readChar()
	if l.ch != '\'' {
		return "", false
	}
	l.readChar()
	return string(r), true
}

func unescape(ch rune) (rune, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '\'', '"':
		return ch, true
	}
	return 0, false
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a numeric literal with any suffix, e.g. `1_000u64`,
// `0x1f`, `2.5e-3f32`. The literal is validated by the parser.
func (l *Lexer) readNumber() string {
	position := l.position
	radix := l.ch == '0' && strings.ContainsRune("xXoObB", l.peekChar())
	var prev rune
	for {
		switch {
		case isLetter(l.ch) || isDigit(l.ch):
			// a sign only belongs to an exponent written right after a digit
			exponent := !radix && (l.ch == 'e' || l.ch == 'E') && isDigit(prev)
			prev = l.ch
			l.readChar()
			if exponent && (l.ch == '+' || l.ch == '-') && isDigit(l.peekChar()) {
				prev = l.ch
				l.readChar()
			}
		case l.ch == '.' && !radix && isDigit(l.peekChar()):
			prev = l.ch
			l.readChar()
		default:
			return l.input[position:l.position]
		}
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}
