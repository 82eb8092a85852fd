// Package lexer splits config text into tokens.
//
// Tokens are identifiers (optionally dot-qualified), string literals,
// numbers and single-character symbols. Every token remembers its byte
// offset, line and column so that parse errors can point at the source.
package lexer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Symbols with special meaning in the config grammar.
const (
	MessageStart    byte = '{'
	MessageEnd      byte = '}'
	KeyValueSep     byte = ':'
	FieldValueSep   byte = '='
	ParamsStart     byte = '('
	ParamsEnd       byte = ')'
	ListStart       byte = '['
	ListEnd         byte = ']'
	LineSep1        byte = ','
	LineSep2        byte = ';'
	DefineReference byte = '&'
	ShellComment    byte = '#'
)

// Identifier separator inside qualified names and reference paths.
const IdentifierSep = "."

// Binary literal function names.
const (
	B64 = "b64"
	Hex = "hex"
)

const symbols = "{}:=()<>,;[]&/%$@^"

var (
	identifierRe = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`)
	qualifiedRe  = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*\.[_a-zA-Z][_a-zA-Z0-9]*$`)
	doubleQualRe = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*(\.[_a-zA-Z][_a-zA-Z0-9]*){2}$`)
	referenceRe  = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*(\.[_a-zA-Z][_a-zA-Z0-9]*)*$`)
	integerRe    = regexp.MustCompile(`^-?(0|[1-9][0-9]*|0[0-7]+|0[xX][0-9a-fA-F]+)$`)
	realRe       = regexp.MustCompile(`^-?(([0-9]*\.[0-9]+|[0-9]+\.[0-9]*)([eE][+-]?[0-9]+)?|[0-9]+[eE][+-]?[0-9]+)$`)
)

// Token is a lexical unit of config text.
type Token struct {
	// Text is the raw token text. String literals include their quotes.
	Text string
	// Offset is the byte offset of the first character.
	Offset int
	// Line is the 1-based line number.
	Line int
	// Col is the 1-based byte column on the line.
	Col int
}

// String returns the raw text.
func (t *Token) String() string { return t.Text }

// End returns the offset just past the token.
func (t *Token) End() int { return t.Offset + len(t.Text) }

// IsSymbol reports whether the token is the given single symbol.
func (t *Token) IsSymbol(c byte) bool {
	return len(t.Text) == 1 && t.Text[0] == c && strings.IndexByte(symbols, c) >= 0
}

// IsIdentifier matches a bare name.
func (t *Token) IsIdentifier() bool { return identifierRe.MatchString(t.Text) }

// IsQualifiedIdentifier matches "package.Name".
func (t *Token) IsQualifiedIdentifier() bool { return qualifiedRe.MatchString(t.Text) }

// IsDoubleQualifiedIdentifier matches "package.Enum.VALUE".
func (t *Token) IsDoubleQualifiedIdentifier() bool { return doubleQualRe.MatchString(t.Text) }

// IsReferenceIdentifier matches "name" or "name.field.field".
func (t *Token) IsReferenceIdentifier() bool { return referenceRe.MatchString(t.Text) }

// IsInteger matches decimal, octal (0 prefix) and hex (0x prefix) integers.
func (t *Token) IsInteger() bool { return integerRe.MatchString(t.Text) }

// IsReal matches a floating point number with a fraction or exponent.
func (t *Token) IsReal() bool { return realRe.MatchString(t.Text) }

// IsStringLiteral matches a single or double quoted string.
func (t *Token) IsStringLiteral() bool {
	n := len(t.Text)
	return n >= 2 && (t.Text[0] == '"' || t.Text[0] == '\'') && t.Text[n-1] == t.Text[0]
}

// ParseInteger parses an integer token honoring 0x and 0 prefixes.
func (t *Token) ParseInteger() (int64, error) {
	if !t.IsInteger() {
		return 0, fmt.Errorf("not an integer: %q", t.Text)
	}
	n, err := strconv.ParseInt(t.Text, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("integer out of range: %q", t.Text)
	}
	return n, nil
}

// ParseDouble parses an integer or real token as a float.
func (t *Token) ParseDouble() (float64, error) {
	if t.IsInteger() {
		n, err := t.ParseInteger()
		return float64(n), err
	}
	f, err := strconv.ParseFloat(t.Text, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", t.Text)
	}
	return f, nil
}

// DecodeLiteral returns the content of a string literal with escapes
// resolved. In strict mode invalid escapes and unescaped control characters
// are errors; otherwise they decode as '?'.
func (t *Token) DecodeLiteral(strict bool) (string, error) {
	if !t.IsStringLiteral() {
		return "", fmt.Errorf("not a string literal: %s", t.Text)
	}
	s := t.Text[1 : len(t.Text)-1]
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			if (c < 0x20 || c == 0x7f) && c != '\t' {
				if strict {
					return "", fmt.Errorf("unescaped non-printable char in literal: %q", c)
				}
				sb.WriteByte('?')
				continue
			}
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			if strict {
				return "", fmt.Errorf("invalid escaped char: '\\'")
			}
			sb.WriteByte('?')
			continue
		}
		i++
		switch e := s[i]; e {
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '"', '\'', '\\', '/':
			sb.WriteByte(e)
		case 'u':
			r, n, ok := decodeUnicode(s[i+1:])
			if !ok {
				if strict {
					return "", fmt.Errorf("invalid unicode escape in literal: %s", t.Text)
				}
				sb.WriteByte('?')
				continue
			}
			sb.WriteRune(r)
			i += n
		case '0', '1', '2', '3':
			if i+2 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) {
				v := (e-'0')<<6 | (s[i+1]-'0')<<3 | (s[i+2] - '0')
				sb.WriteByte(v)
				i += 2
				continue
			}
			if strict {
				return "", fmt.Errorf("invalid octal escape in literal: %s", t.Text)
			}
			sb.WriteByte('?')
		default:
			if strict {
				return "", fmt.Errorf("invalid escaped char: '\\%c'", e)
			}
			sb.WriteByte('?')
		}
	}
	return sb.String(), nil
}

// decodeUnicode reads XXXX (and a following \uXXXX low surrogate) from s.
func decodeUnicode(s string) (rune, int, bool) {
	if len(s) < 4 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	r := rune(v)
	if r >= 0xd800 && r < 0xdc00 && len(s) >= 10 && s[4] == '\\' && s[5] == 'u' {
		lo, err := strconv.ParseUint(s[6:10], 16, 16)
		if err == nil && lo >= 0xdc00 && lo < 0xe000 {
			return (r-0xd800)<<10 | (rune(lo) - 0xdc00) + 0x10000, 10, true
		}
	}
	if !utf8.ValidRune(r) {
		return utf8.RuneError, 4, true
	}
	return r, 4, true
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
