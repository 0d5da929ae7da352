package typesystem

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/funvibe/opcheck/internal/config"
)

// NameResolver maps a type name (with its parsed arguments) to a type.
// It returns false for names it does not know.
type NameResolver func(name string, args []Type) (Type, bool)

// ParseType parses a type expression such as `&mut Vec<i32>`,
// `(i32, &str)`, `[u8; 4]`, `fn(i32) -> bool` or `simd<f32, 4>`.
// Names that are neither primitives nor known to resolve become local
// nominal types.
func ParseType(src string, resolve NameResolver) (Type, error) {
	p := &typeParser{src: src, resolve: resolve}
	p.nextToken()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.cur != "" {
		return nil, fmt.Errorf("type %q: unexpected %q", src, p.cur)
	}
	return t, nil
}

// MustParseType is ParseType for literals known to be valid.
func MustParseType(src string) Type {
	t, err := ParseType(src, nil)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src     string
	pos     int
	cur     string
	resolve NameResolver
}

// nextToken scans the next token: an identifier or path, a number, `->`,
// `{error}`, `{integer}`, `{float}`, or a single punctuation rune.
func (p *typeParser) nextToken() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.cur = ""
		return
	}
	start := p.pos
	c := rune(p.src[p.pos])
	switch {
	case unicode.IsLetter(c) || c == '_':
		for p.pos < len(p.src) {
			r := rune(p.src[p.pos])
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
				p.pos++
			} else if strings.HasPrefix(p.src[p.pos:], "::") {
				p.pos += 2
			} else {
				break
			}
		}
	case unicode.IsDigit(c):
		for p.pos < len(p.src) && unicode.IsDigit(rune(p.src[p.pos])) {
			p.pos++
		}
	case strings.HasPrefix(p.src[p.pos:], "->"):
		p.pos += 2
	case c == '{':
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			p.pos = len(p.src)
		} else {
			p.pos += end + 1
		}
	default:
		p.pos++
	}
	p.cur = p.src[start:p.pos]
}

func (p *typeParser) expect(tok string) error {
	if p.cur != tok {
		return fmt.Errorf("type %q: expected %q, found %q", p.src, tok, p.cur)
	}
	p.nextToken()
	return nil
}

func (p *typeParser) parseType() (Type, error) {
	switch p.cur {
	case "":
		return nil, fmt.Errorf("type %q: unexpected end", p.src)
	case "&":
		p.nextToken()
		mutable := false
		if p.cur == "mut" {
			mutable = true
			p.nextToken()
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return TRef{Elem: elem, Mutable: mutable}, nil
	case "(":
		return p.parseTuple()
	case "[":
		return p.parseArray()
	case config.NeverTypeName:
		p.nextToken()
		return TNever{}, nil
	case config.ErrorTypeName:
		p.nextToken()
		return TError{}, nil
	case "{integer}":
		p.nextToken()
		return TVar{Name: "?int", Lit: IntLit}, nil
	case "{float}":
		p.nextToken()
		return TVar{Name: "?float", Lit: FloatLit}, nil
	case "fn":
		return p.parseFunc()
	}
	return p.parseNamed()
}

func (p *typeParser) parseTuple() (Type, error) {
	p.nextToken() // consume '('
	var elems []Type
	trailingComma := false
	for p.cur != ")" {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		trailingComma = false
		if p.cur == "," {
			trailingComma = true
			p.nextToken()
		} else if p.cur != ")" {
			return nil, fmt.Errorf("type %q: expected \",\" or \")\", found %q", p.src, p.cur)
		}
	}
	p.nextToken() // consume ')'
	// (T) is a parenthesized type, (T,) a one-tuple
	if len(elems) == 1 && !trailingComma {
		return elems[0], nil
	}
	return TTuple{Elements: elems}, nil
}

func (p *typeParser) parseArray() (Type, error) {
	p.nextToken() // consume '['
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(p.cur)
	if err != nil {
		return nil, fmt.Errorf("type %q: invalid array length %q", p.src, p.cur)
	}
	p.nextToken()
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return TArray{Elem: elem, Len: n}, nil
}

func (p *typeParser) parseFunc() (Type, error) {
	p.nextToken() // consume 'fn'
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var params []Type
	for p.cur != ")" {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, t)
		if p.cur == "," {
			p.nextToken()
		} else if p.cur != ")" {
			return nil, fmt.Errorf("type %q: expected \",\" or \")\", found %q", p.src, p.cur)
		}
	}
	p.nextToken() // consume ')'
	ret := Unit()
	if p.cur == "->" {
		p.nextToken()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ret = t
	}
	return TFunc{Params: params, ReturnType: ret}, nil
}

func (p *typeParser) parseNamed() (Type, error) {
	name := p.cur
	if r := rune(name[0]); !unicode.IsLetter(r) && r != '_' {
		return nil, fmt.Errorf("type %q: unexpected %q", p.src, name)
	}
	p.nextToken()

	var args []Type
	if p.cur == "<" {
		p.nextToken()
		for p.cur != ">" {
			var arg Type
			if n, err := strconv.Atoi(p.cur); err == nil {
				// const argument (simd lane count)
				arg = TCon{Name: strconv.Itoa(n)}
				p.nextToken()
			} else {
				t, err := p.parseType()
				if err != nil {
					return nil, err
				}
				arg = t
			}
			args = append(args, arg)
			if p.cur == "," {
				p.nextToken()
			} else if p.cur != ">" {
				return nil, fmt.Errorf("type %q: expected \",\" or \">\", found %q", p.src, p.cur)
			}
		}
		p.nextToken() // consume '>'
	}

	if name == "simd" {
		return parseSimd(p.src, args)
	}
	if p.resolve != nil {
		if t, ok := p.resolve(name, args); ok {
			return t, nil
		}
	}
	if len(args) == 0 {
		if t, ok := primitive(name); ok {
			return t, nil
		}
	}

	con := TCon{Name: name, Local: true}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		con = TCon{Name: name[i+2:], Module: name[:i]}
	}
	if len(args) == 0 {
		return con, nil
	}
	return TApp{Constructor: con, Args: args}, nil
}

func parseSimd(src string, args []Type) (Type, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("type %q: simd takes an element type and a lane count", src)
	}
	lanes, err := strconv.Atoi(args[1].String())
	if err != nil || !IsScalar(args[0]) {
		return nil, fmt.Errorf("type %q: invalid simd vector", src)
	}
	return TSimd{Elem: args[0], Lanes: lanes}, nil
}

func primitive(name string) (Type, bool) {
	switch {
	case signedInts[name] || unsignedInts[name] || floats[name] ||
		name == config.BoolTypeName || name == config.CharTypeName || name == config.StrTypeName:
		return TCon{Name: name}, true
	case name == config.StringTypeName:
		return String(), true
	}
	return nil, false
}
