package lexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, src string) []string {
	t.Helper()
	tz := New("test.cfg", []byte(src))
	var out []string
	for {
		tok, err := tz.Next()
		require.NoError(t, err)
		if tok == nil {
			return out
		}
		out = append(out, tok.Text)
	}
}

func TestTokenizer_Tokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"empty", "", nil},
		{"comment only", "# nothing here\n", nil},
		{"message", `app.Config { port = 8080 }`, []string{"app.Config", "{", "port", "=", "8080", "}"}},
		{"include", `include "base.cfg" as base;`, []string{"include", `"base.cfg"`, "as", "base", ";"}},
		{"numbers", "[1, -2, 0x1F, 017, 1.5, -.5, 1e10, 2.5E-3]",
			[]string{"[", "1", ",", "-2", ",", "0x1F", ",", "017", ",", "1.5", ",", "-.5", ",", "1e10", ",", "2.5E-3", "]"}},
		{"map", `{"a": 1; 'b': 2}`, []string{"{", `"a"`, ":", "1", ";", `'b'`, ":", "2", "}"}},
		{"reference", "a = &x b = base.db.host", []string{"a", "=", "&", "x", "b", "=", "base.db.host"}},
		{"comment after number", "n = 5# trailing", []string{"n", "=", "5"}},
		{"escaped quote", `s = "a\"b"`, []string{"s", "=", `"a\"b"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tokens(t, tt.src))
		})
	}
}

func TestTokenizer_Positions(t *testing.T) {
	tz := New("test.cfg", []byte("a {\n  bb = 12\n}"))

	tok, err := tz.Next()
	require.NoError(t, err)
	require.Equal(t, 1, tok.Line)
	require.Equal(t, 1, tok.Col)

	_, err = tz.Next() // {
	require.NoError(t, err)

	tok, err = tz.Next()
	require.NoError(t, err)
	require.Equal(t, "bb", tok.Text)
	require.Equal(t, 2, tok.Line)
	require.Equal(t, 3, tok.Col)
	require.Equal(t, 6, tok.Offset)
	require.Equal(t, 8, tz.Offset())
}

func TestTokenizer_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated", `"abc`, "Unexpected end of stream in literal"},
		{"line break", "\"ab\ncd\"", "Unexpected line break in literal"},
		{"bad initiator", "a = !", "Unknown token initiator '!'"},
		{"bad number end", "n = 12ab", "Invalid termination of number: '12a'"},
		{"missing exponent", "n = 1e", "Missing exponent value"},
		{"double dot", "a..b", "Identifier with double '.'"},
		{"trailing dot", "a.b. ", "Identifier with trailing '.'"},
		{"digit part", "a.1b", "Identifier part starting with digit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tz := New("test.cfg", []byte(tt.src))
			var err error
			for err == nil {
				var tok *Token
				tok, err = tz.Next()
				if tok == nil && err == nil {
					t.Fatalf("expected error %q", tt.want)
				}
			}
			var lerr *Error
			require.True(t, errors.As(err, &lerr))
			require.Contains(t, lerr.Message, tt.want)
			require.Equal(t, "test.cfg", lerr.File)
		})
	}
}

func TestTokenizer_Expect(t *testing.T) {
	tz := New("test.cfg", []byte(`name = "x"`))

	tok, err := tz.ExpectIdentifier("field name")
	require.NoError(t, err)
	require.Equal(t, "name", tok.Text)

	sym, err := tz.ExpectSymbol("field value sep", FieldValueSep, MessageStart)
	require.NoError(t, err)
	require.Equal(t, FieldValueSep, sym)

	_, err = tz.ExpectIdentifier("value")
	require.Error(t, err)
	require.Contains(t, err.Error(), `Expected value, but got '"x"'`)

	tok, err = tz.ExpectLiteral("value")
	require.NoError(t, err)
	require.Equal(t, `"x"`, tok.Text)

	_, err = tz.Expect("anything")
	require.EqualError(t, err, "Error in test.cfg on line 1, pos 11: Expected anything, got end of file\nname = \"x\"\n----------^")
}

func TestTokenizer_ExpectSymbolMismatch(t *testing.T) {
	tz := New("a.cfg", []byte("x"))
	_, err := tz.ExpectSymbol("message start", MessageStart, FieldValueSep)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected message start, one of ['{', '='], but found 'x'")
}

func TestTokenizer_ReadBinary(t *testing.T) {
	tz := New("test.cfg", []byte("b64(AAEC+/==) hex(0a0B)"))

	tok, err := tz.Next()
	require.NoError(t, err)
	require.Equal(t, B64, tok.Text)
	_, err = tz.ExpectSymbol("binary start", ParamsStart)
	require.NoError(t, err)

	// A peeked token inside the content is discarded.
	_, err = tz.Peek()
	require.NoError(t, err)

	content, err := tz.ReadBinary(ParamsEnd)
	require.NoError(t, err)
	require.Equal(t, "AAEC+/==", content)

	tok, err = tz.Next()
	require.NoError(t, err)
	require.Equal(t, Hex, tok.Text)
	_, err = tz.ExpectSymbol("binary start", ParamsStart)
	require.NoError(t, err)
	content, err = tz.ReadBinary(ParamsEnd)
	require.NoError(t, err)
	require.Equal(t, "0a0B", content)

	ok, err := tz.HasNext()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTokenizer_ReadBinaryRejectsSpace(t *testing.T) {
	tz := New("test.cfg", []byte("(AA EC)"))
	_, err := tz.ExpectSymbol("binary start", ParamsStart)
	require.NoError(t, err)
	_, err = tz.ReadBinary(ParamsEnd)
	require.Error(t, err)
}

func TestTokenizer_LineText(t *testing.T) {
	tz := New("", []byte("one\r\ntwo\nthree"))
	require.Equal(t, "one", tz.LineText(1))
	require.Equal(t, "two", tz.LineText(2))
	require.Equal(t, "three", tz.LineText(3))
	require.Equal(t, "", tz.LineText(4))
}

func TestError_Format(t *testing.T) {
	err := &Error{File: "a.cfg", Line: 2, Column: 3, Length: 2, LineText: "  xx = 1", Message: "bad"}
	require.Equal(t, "Error in a.cfg on line 2, pos 3: bad\n  xx = 1\n--^^", err.Error())

	plain := Errorf("Included file %q not found.", "b.cfg").InFile("a.cfg")
	require.Equal(t, `Error in a.cfg: Included file "b.cfg" not found.`, plain.Error())

	sentinel := errors.New("category")
	require.True(t, errors.Is(plain.Wrap(sentinel), sentinel))
}
