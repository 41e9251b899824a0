/*
literal.go - Restricted parser for Python-literal value strings

PURPOSE:
  Business attribute values in the dataset are strings holding Python
  literals rather than JSON: "True", "u'free'", "{'garage': False}".
  ParseLiteral decodes exactly that literal subset - dicts, lists,
  strings, numbers, True/False/None - and nothing else. There is no
  expression evaluation of any kind.

FORMATTING:
  FormatLiteral renders a decoded value back to the string form Python's
  str() would produce ("True", "None", "1.5"), so the stored attribute
  values match the dataset's original text.
*/
package record

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ParseLiteral decodes a Python literal: a dict, list, tuple, quoted
// string, number, True, False or None. Anything else is an error.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{input: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing data at offset %d in literal %q", p.pos, s)
	}
	return v, nil
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {
		p.pos++
	}
}

func (p *literalParser) parseValue() (any, error) {
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of literal %q", p.input)
	}
	switch c := p.input[p.pos]; {
	case c == '{':
		return p.parseDict()
	case c == '[':
		return p.parseSeq(']')
	case c == '(':
		return p.parseSeq(')')
	case c == '\'' || c == '"':
		return p.parseString()
	case c == 'u' && p.pos+1 < len(p.input) && (p.input[p.pos+1] == '\'' || p.input[p.pos+1] == '"'):
		p.pos++ // unicode prefix carries no meaning here
		return p.parseString()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

func (p *literalParser) parseDict() (map[string]any, error) {
	p.pos++ // '{'
	out := map[string]any{}
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '}' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		ks, ok := key.(string)
		if !ok {
			ks = FormatLiteral(key)
		}
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[ks] = val
		p.skipSpace()
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			p.pos++
			continue
		}
		if err := p.expect('}'); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *literalParser) parseSeq(closer byte) ([]any, error) {
	p.pos++ // opening bracket
	var out []any
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == closer {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.skipSpace()
		if p.pos < len(p.input) && p.input[p.pos] == ',' {
			p.pos++
			p.skipSpace()
			// trailing comma before the closer is legal Python
			if p.pos < len(p.input) && p.input[p.pos] == closer {
				p.pos++
				return out, nil
			}
			continue
		}
		if err := p.expect(closer); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *literalParser) parseString() (string, error) {
	quote := p.input[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return "", fmt.Errorf("unterminated escape in literal %q", p.input)
			}
			switch e := p.input[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string in literal %q", p.input)
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos
	for p.pos < len(p.input) && strings.ContainsRune("+-.0123456789eE", rune(p.input[p.pos])) {
		p.pos++
	}
	tok := p.input[start:p.pos]
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("bad number %q in literal", tok)
	}
	return f, nil
}

func (p *literalParser) parseKeyword() (any, error) {
	start := p.pos
	for p.pos < len(p.input) && isIdent(p.input[p.pos]) {
		p.pos++
	}
	switch tok := p.input[start:p.pos]; tok {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	default:
		return nil, fmt.Errorf("not a literal: %q", p.input)
	}
}

func (p *literalParser) expect(c byte) error {
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("expected %q at offset %d in literal %q", string(c), p.pos, p.input)
	}
	p.pos++
	return nil
}

func isIdent(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// FormatLiteral renders a decoded literal the way Python's str() would,
// so values written to the database match the dataset's own spelling.
func FormatLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// str(2.0) is "2.0", not "2"
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatFloat(t, 'f', 1, 64)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "'%s': %s", k, reprLiteral(t[k]))
		}
		b.WriteByte('}')
		return b.String()
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(reprLiteral(e))
		}
		b.WriteByte(']')
		return b.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// reprLiteral is FormatLiteral for values nested inside a container,
// where strings keep their quotes (Python repr vs str).
func reprLiteral(v any) string {
	if s, ok := v.(string); ok {
		return "'" + s + "'"
	}
	return FormatLiteral(v)
}
