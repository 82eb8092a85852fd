package lexer

import (
	"fmt"
	"strings"
)

// Tokenizer reads tokens from an in-memory source with one token of
// lookahead.
type Tokenizer struct {
	file      string
	src       []byte
	pos       int // next byte to read
	line      int // line of src[pos]
	lineStart int // offset where the current line starts
	peeked    *Token
	lastEnd   int
}

// New creates a tokenizer. The file name is only used in diagnostics.
func New(file string, src []byte) *Tokenizer {
	return &Tokenizer{
		file: file,
		src:  src,
		line: 1,
	}
}

// File returns the file name used in diagnostics.
func (t *Tokenizer) File() string { return t.file }

// Offset returns the byte offset just past the last consumed token.
func (t *Tokenizer) Offset() int { return t.lastEnd }

// Line returns the current line number.
func (t *Tokenizer) Line() int { return t.line }

// HasNext reports whether another token is available.
func (t *Tokenizer) HasNext() (bool, error) {
	tok, err := t.Peek()
	return tok != nil, err
}

// Peek returns the next token without consuming it, or nil at end of input.
func (t *Tokenizer) Peek() (*Token, error) {
	if t.peeked == nil {
		tok, err := t.scan()
		if err != nil {
			return nil, err
		}
		t.peeked = tok
	}
	return t.peeked, nil
}

// PeekExpect is Peek that fails at end of input.
func (t *Tokenizer) PeekExpect(expected string) (*Token, error) {
	tok, err := t.Peek()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, t.eof("Expected %s, got end of file", expected)
	}
	return tok, nil
}

// Next consumes the next token, or returns nil at end of input.
func (t *Tokenizer) Next() (*Token, error) {
	tok, err := t.Peek()
	if err != nil || tok == nil {
		return tok, err
	}
	t.peeked = nil
	t.lastEnd = tok.End()
	return tok, nil
}

// Expect consumes the next token and fails at end of input.
func (t *Tokenizer) Expect(expected string) (*Token, error) {
	if _, err := t.PeekExpect(expected); err != nil {
		return nil, err
	}
	return t.Next()
}

// ExpectSymbol consumes the next token if it is one of symbols and returns
// the matched symbol.
func (t *Tokenizer) ExpectSymbol(expected string, syms ...byte) (byte, error) {
	quoted := make([]string, len(syms))
	for i, s := range syms {
		quoted[i] = string(s)
	}
	list := strings.Join(quoted, "', '")

	tok, err := t.Peek()
	if err != nil {
		return 0, err
	}
	if tok == nil {
		return 0, t.eof("Expected %s, one of ['%s'], got end of file", expected, list)
	}
	for _, s := range syms {
		if tok.IsSymbol(s) {
			_, _ = t.Next()
			return s, nil
		}
	}
	return 0, t.Failure(tok, "Expected %s, one of ['%s'], but found '%s'", expected, list, tok.Text)
}

// ExpectIdentifier consumes a bare identifier.
func (t *Tokenizer) ExpectIdentifier(expected string) (*Token, error) {
	return t.expectMatching(expected, (*Token).IsIdentifier)
}

// ExpectLiteral consumes a string literal.
func (t *Tokenizer) ExpectLiteral(expected string) (*Token, error) {
	return t.expectMatching(expected, (*Token).IsStringLiteral)
}

func (t *Tokenizer) expectMatching(expected string, ok func(*Token) bool) (*Token, error) {
	tok, err := t.PeekExpect(expected)
	if err != nil {
		return nil, err
	}
	if !ok(tok) {
		return nil, t.Failure(tok, "Expected %s, but got '%s'", expected, tok.Text)
	}
	return t.Next()
}

// ReadBinary reads raw text up to the end symbol, which is consumed. It is
// used for the content of b64(...) and hex(...) after the opening symbol.
// Whitespace inside the content is an error.
func (t *Tokenizer) ReadBinary(end byte) (string, error) {
	if t.peeked != nil {
		t.rewind(t.peeked)
	}
	start, startLine, startCol := t.pos, t.line, t.pos-t.lineStart+1
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c == end {
			out := string(t.src[start:t.pos])
			t.advance()
			t.lastEnd = t.pos
			return out, nil
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			return "", t.FailureAt(startLine, startCol, t.pos-start+1, "Illegal char '%s' in binary", escapeByte(c))
		}
		t.advance()
	}
	return "", t.FailureAt(startLine, startCol, t.pos-start, "unexpected end of stream in binary")
}

// Failure creates an error pointing at tok.
func (t *Tokenizer) Failure(tok *Token, format string, args ...any) *Error {
	return t.FailureAt(tok.Line, tok.Col, len(tok.Text), format, args...)
}

// FailureAt creates an error pointing at an explicit position.
func (t *Tokenizer) FailureAt(line, col, length int, format string, args ...any) *Error {
	return &Error{
		File:     t.file,
		Line:     line,
		Column:   col,
		Length:   length,
		LineText: t.LineText(line),
		Message:  fmt.Sprintf(format, args...),
	}
}

// LineText returns the text of the given 1-based line without the line
// break.
func (t *Tokenizer) LineText(line int) string {
	if line < 1 {
		return ""
	}
	start := 0
	for n := 1; n < line; n++ {
		i := indexByte(t.src[start:], '\n')
		if i < 0 {
			return ""
		}
		start += i + 1
	}
	end := indexByte(t.src[start:], '\n')
	if end < 0 {
		end = len(t.src) - start
	}
	return strings.TrimRight(string(t.src[start:start+end]), "\r")
}

func (t *Tokenizer) eof(format string, args ...any) *Error {
	line := t.line
	return t.FailureAt(line, t.pos-t.lineStart+1, 1, format, args...)
}

// rewind moves the read position back to the start of tok.
func (t *Tokenizer) rewind(tok *Token) {
	t.pos = tok.Offset
	t.line = tok.Line
	t.lineStart = tok.Offset - (tok.Col - 1)
	t.peeked = nil
}

func (t *Tokenizer) advance() {
	if t.src[t.pos] == '\n' {
		t.line++
		t.lineStart = t.pos + 1
	}
	t.pos++
}

func (t *Tokenizer) scan() (*Token, error) {
	// Skip whitespace and comments.
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			t.advance()
			continue
		}
		if c == ShellComment {
			for t.pos < len(t.src) && t.src[t.pos] != '\n' {
				t.advance()
			}
			continue
		}
		break
	}
	if t.pos >= len(t.src) {
		return nil, nil
	}

	c := t.src[t.pos]
	switch {
	case strings.IndexByte(symbols, c) >= 0:
		tok := t.token(t.pos, 1)
		t.advance()
		return tok, nil
	case c == '"' || c == '\'':
		return t.scanString(c)
	case c == '-' || c == '.' || isDigit(c):
		return t.scanNumber()
	case c == '_' || isLetter(c):
		return t.scanIdentifier()
	}
	return nil, t.FailureAt(t.line, t.pos-t.lineStart+1, 1, "Unknown token initiator '%s'", escapeByte(c))
}

func (t *Tokenizer) token(start, length int) *Token {
	return &Token{
		Text:   string(t.src[start : start+length]),
		Offset: start,
		Line:   t.line,
		Col:    start - t.lineStart + 1,
	}
}

func (t *Tokenizer) scanString(quote byte) (*Token, error) {
	start, col := t.pos, t.pos-t.lineStart+1
	t.advance()
	escaped := false
	for {
		if t.pos >= len(t.src) {
			return nil, t.FailureAt(t.line, col, t.pos-start, "Unexpected end of stream in literal")
		}
		c := t.src[t.pos]
		if c == '\n' || c == '\r' {
			return nil, t.FailureAt(t.line, col, t.pos-start, "Unexpected line break in literal")
		}
		if c < 0x20 && c != '\t' || c == 0x7f {
			return nil, t.FailureAt(t.line, col, t.pos-start+1, "Unescaped non-printable char in literal: '%s'", escapeByte(c))
		}
		t.advance()
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			return t.token(start, t.pos-start), nil
		}
	}
}

func (t *Tokenizer) scanNumber() (*Token, error) {
	start, col := t.pos, t.pos-t.lineStart+1
	digits := 0

	if t.src[t.pos] == '-' {
		t.advance()
		if t.pos >= len(t.src) {
			return nil, t.FailureAt(t.line, col, 1, "Unexpected end of stream after negative indicator")
		}
		if c := t.src[t.pos]; c != '.' && !isDigit(c) {
			return nil, t.FailureAt(t.line, col, 1, "No decimal after negative indicator")
		}
	}

	if t.peekIs('0') && t.pos+1 < len(t.src) && (t.src[t.pos+1] == 'x' || t.src[t.pos+1] == 'X') {
		t.advance()
		t.advance()
		for t.pos < len(t.src) && isHex(t.src[t.pos]) {
			t.advance()
			digits++
		}
		if digits == 0 {
			return nil, t.FailureAt(t.line, col, t.pos-start, "Missing hexadecimal digits")
		}
		return t.endNumber(start, col)
	}

	for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
		t.advance()
		digits++
	}
	if t.peekIs('.') {
		t.advance()
		for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
			t.advance()
			digits++
		}
	}
	if digits == 0 {
		return nil, t.FailureAt(t.line, col, t.pos-start, "Invalid number: '%s'", string(t.src[start:t.pos]))
	}
	if t.peekIs('e') || t.peekIs('E') {
		t.advance()
		if t.peekIs('+') || t.peekIs('-') {
			t.advance()
		}
		exp := 0
		for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
			t.advance()
			exp++
		}
		if exp == 0 {
			return nil, t.FailureAt(t.line, col, t.pos-start+1, "Missing exponent value")
		}
	}
	return t.endNumber(start, col)
}

// endNumber checks that a number is followed by whitespace, end of input
// or a symbol that may follow a value.
func (t *Tokenizer) endNumber(start, col int) (*Token, error) {
	if t.pos < len(t.src) {
		switch c := t.src[t.pos]; c {
		case ' ', '\t', '\r', '\n', KeyValueSep, MessageEnd, ListEnd, ParamsEnd, LineSep1, LineSep2, ShellComment:
		default:
			return nil, t.FailureAt(t.line, col, t.pos-start+1, "Invalid termination of number: '%s'", string(t.src[start:t.pos+1]))
		}
	}
	return &Token{
		Text:   string(t.src[start:t.pos]),
		Offset: start,
		Line:   t.line,
		Col:    col,
	}, nil
}

func (t *Tokenizer) scanIdentifier() (*Token, error) {
	start, col := t.pos, t.pos-t.lineStart+1
	t.advance()
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c == '.' {
			t.advance()
			if t.pos >= len(t.src) {
				return nil, t.FailureAt(t.line, col, t.pos-start, "Identifier with trailing '.'")
			}
			next := t.src[t.pos]
			switch {
			case next == '.':
				return nil, t.FailureAt(t.line, col, t.pos-start+1, "Identifier with double '.'")
			case isDigit(next):
				return nil, t.FailureAt(t.line, col, t.pos-start+1, "Identifier part starting with digit '%c'", next)
			case next != '_' && !isLetter(next):
				return nil, t.FailureAt(t.line, col, t.pos-start, "Identifier with trailing '.'")
			}
			continue
		}
		if c == '_' || isLetter(c) || isDigit(c) {
			t.advance()
			continue
		}
		break
	}
	return &Token{
		Text:   string(t.src[start:t.pos]),
		Offset: start,
		Line:   t.line,
		Col:    col,
	}, nil
}

func (t *Tokenizer) peekIs(c byte) bool {
	return t.pos < len(t.src) && t.src[t.pos] == c
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isHex(c byte) bool    { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func escapeByte(c byte) string {
	if c < 0x20 || c >= 0x7f {
		return fmt.Sprintf("\\x%02x", c)
	}
	return string(c)
}
