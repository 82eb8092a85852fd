package value

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Format renders v on a single line in the config literal grammar.
func Format(v Value) string {
	var sb strings.Builder
	p := printer{sb: &sb}
	p.value(v, 0)
	return sb.String()
}

// FormatIndent renders v across multiple lines, indenting nested messages
// and maps with indent.
func FormatIndent(v Value, indent string) string {
	var sb strings.Builder
	p := printer{sb: &sb, indent: indent}
	p.value(v, 0)
	return sb.String()
}

// FormatConfig renders m as a complete config document: the qualified type
// name followed by the message body.
func FormatConfig(m *Message) string {
	return m.desc.QualifiedName() + " " + FormatIndent(m, "  ") + "\n"
}

// Quote renders s as a double-quoted string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			sb.WriteString(`\"`)
		case r == '\\':
			sb.WriteString(`\\`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\b':
			sb.WriteString(`\b`)
		case r == '\f':
			sb.WriteString(`\f`)
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&sb, `\u%04x`, s[i])
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	sb.WriteByte('"')
	return sb.String()
}

// FormatDouble renders a float so that it reads back as the same value.
func FormatDouble(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type printer struct {
	sb     *strings.Builder
	indent string
}

func (p *printer) pretty() bool { return p.indent != "" }

func (p *printer) newline(depth int) {
	p.sb.WriteByte('\n')
	for i := 0; i < depth; i++ {
		p.sb.WriteString(p.indent)
	}
}

func (p *printer) value(v Value, depth int) {
	switch x := v.(type) {
	case nil:
		p.sb.WriteString("undefined")
	case Bool:
		p.sb.WriteString(strconv.FormatBool(bool(x)))
	case Byte, I16, I32, I64:
		n, _ := Int(x)
		p.sb.WriteString(strconv.FormatInt(n, 10))
	case Double:
		p.sb.WriteString(FormatDouble(float64(x)))
	case String:
		p.sb.WriteString(Quote(string(x)))
	case Binary:
		p.sb.WriteString("b64(")
		p.sb.WriteString(base64.StdEncoding.EncodeToString(x))
		p.sb.WriteByte(')')
	case Enum:
		p.sb.WriteString(x.Name)
	case *Message:
		p.message(x, depth)
	case *List:
		p.items(x.items, depth)
	case *Set:
		p.items(x.items, depth)
	case *Map:
		p.mapping(x, depth)
	}
}

func (p *printer) message(m *Message, depth int) {
	fields := m.PresentFields()
	if len(fields) == 0 {
		p.sb.WriteString("{}")
		return
	}
	p.sb.WriteByte('{')
	for i, f := range fields {
		if p.pretty() {
			p.newline(depth + 1)
		} else if i > 0 {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString(f.Name)
		p.sb.WriteString(" = ")
		p.value(m.values[f.ID], depth+1)
	}
	if p.pretty() {
		p.newline(depth)
	}
	p.sb.WriteByte('}')
}

func (p *printer) mapping(m *Map, depth int) {
	if m.Len() == 0 {
		p.sb.WriteString("{}")
		return
	}
	p.sb.WriteByte('{')
	for i := range m.keys {
		if p.pretty() {
			p.newline(depth + 1)
		} else if i > 0 {
			p.sb.WriteString(", ")
		}
		p.value(m.keys[i], depth+1)
		p.sb.WriteString(": ")
		p.value(m.vals[i], depth+1)
	}
	if p.pretty() {
		p.newline(depth)
	}
	p.sb.WriteByte('}')
}

func (p *printer) items(items []Value, depth int) {
	if len(items) == 0 {
		p.sb.WriteString("[]")
		return
	}
	multiline := p.pretty() && hasNested(items)
	p.sb.WriteByte('[')
	for i, it := range items {
		if multiline {
			p.newline(depth + 1)
		} else if i > 0 {
			p.sb.WriteString(", ")
		}
		p.value(it, depth+1)
		if multiline {
			p.sb.WriteByte(',')
		}
	}
	if multiline {
		p.newline(depth)
	}
	p.sb.WriteByte(']')
}

func hasNested(items []Value) bool {
	for _, it := range items {
		switch it.(type) {
		case *Message, *Map:
			return true
		}
	}
	return false
}
