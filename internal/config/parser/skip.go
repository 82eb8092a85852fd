package parser

import (
	"github.com/dshills/typedconf/internal/config/lexer"
)

// The consume functions advance the tokenizer past a value without a type
// to parse it against. They accept exactly what the typed grammar accepts,
// so that skipping an unknown field ends where parsing a known field would.

// consumeValue skips the value starting at tok.
func (s *state) consumeValue(tok *lexer.Token) error {
	switch {
	case tok.Text == wordUndefined:
		return nil
	case tok.Text == lexer.B64 || tok.Text == lexer.Hex:
		if ok, err := s.peekSymbol(lexer.ParamsStart); err != nil || !ok {
			return err
		}
		_, _ = s.tz.Next()
		_, err := s.tz.ReadBinary(lexer.ParamsEnd)
		return err
	case tok.IsSymbol(lexer.DefineReference):
		if _, err := s.referenceToken(tok); err != nil {
			return err
		}
		return s.consumeExtension()
	case tok.IsReferenceIdentifier():
		return s.consumeExtension()
	case tok.IsSymbol(lexer.MessageStart):
		return s.consumeBlock()
	case tok.IsSymbol(lexer.ListStart):
		return s.consumeList()
	case tok.IsStringLiteral(), tok.IsInteger(), tok.IsReal():
		return nil
	}
	return s.tz.Failure(tok, "Unexpected token '%s', expected value", tok.Text)
}

// consumeExtension skips an optional "{ ... }" after a reference.
func (s *state) consumeExtension() error {
	ok, err := s.peekSymbol(lexer.MessageStart)
	if err != nil || !ok {
		return err
	}
	_, _ = s.tz.Next()
	return s.consumeMessage()
}

// consumeBlock skips a message or map body after '{'. The separator after
// the first token tells them apart.
func (s *state) consumeBlock() error {
	first, err := s.tz.Expect("map key, field or end")
	if err != nil {
		return err
	}
	if first.IsSymbol(lexer.MessageEnd) {
		return nil
	}
	isMap, err := s.peekSymbol(lexer.KeyValueSep)
	if err != nil {
		return err
	}
	if isMap {
		return s.consumeMap(first)
	}
	if !first.IsIdentifier() {
		return s.tz.Failure(first, "Invalid field name: %s", first.Text)
	}
	if err := s.consumeField(); err != nil {
		return err
	}
	return s.consumeMessage()
}

// consumeMessage skips fields up to and including '}'.
func (s *state) consumeMessage() error {
	for {
		tok, err := s.tz.Expect("field or message end")
		if err != nil {
			return err
		}
		if tok.IsSymbol(lexer.MessageEnd) {
			return nil
		}
		if !tok.IsIdentifier() {
			return s.tz.Failure(tok, "Invalid field name: %s", tok.Text)
		}
		if err := s.consumeField(); err != nil {
			return err
		}
	}
}

// consumeField skips a field after its name.
func (s *state) consumeField() error {
	sym, err := s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.MessageStart, lexer.DefineReference)
	if err != nil {
		return err
	}
	if sym == lexer.DefineReference {
		if _, err := s.tz.ExpectIdentifier("reference name"); err != nil {
			return err
		}
		if sym, err = s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.MessageStart); err != nil {
			return err
		}
	}
	if sym == lexer.MessageStart {
		err = s.consumeMessage()
	} else {
		var tok *lexer.Token
		if tok, err = s.tz.Expect("field value"); err != nil {
			return err
		}
		err = s.consumeValue(tok)
	}
	if err != nil {
		return err
	}
	return s.skipLineSep()
}

// consumeMap skips map entries starting with an already read key, up to
// and including '}'.
func (s *state) consumeMap(key *lexer.Token) error {
	for {
		if err := s.consumeValue(key); err != nil {
			return err
		}
		if _, err := s.tz.ExpectSymbol("map key value sep", lexer.KeyValueSep); err != nil {
			return err
		}
		val, err := s.tz.Expect("map value")
		if err != nil {
			return err
		}
		if err := s.consumeValue(val); err != nil {
			return err
		}
		if err := s.skipLineSep(); err != nil {
			return err
		}
		if key, err = s.tz.Expect("map key or end"); err != nil {
			return err
		}
		if key.IsSymbol(lexer.MessageEnd) {
			return nil
		}
	}
}

// consumeList skips list items up to and including ']'.
func (s *state) consumeList() error {
	for {
		tok, err := s.tz.Expect("list item or end")
		if err != nil {
			return err
		}
		if tok.IsSymbol(lexer.ListEnd) {
			return nil
		}
		if err := s.consumeValue(tok); err != nil {
			return err
		}
		sym, err := s.tz.ExpectSymbol("list separator or end", lexer.LineSep1, lexer.ListEnd)
		if err != nil {
			return err
		}
		if sym == lexer.ListEnd {
			return nil
		}
	}
}

// consumeTypedBody skips "{ ... }" or ": ref { ... }" after an unknown
// type name in a def.
func (s *state) consumeTypedBody() error {
	sym, err := s.tz.ExpectSymbol("message start or inherits", lexer.MessageStart, lexer.KeyValueSep)
	if err != nil {
		return err
	}
	if sym == lexer.KeyValueSep {
		if _, err := s.tz.Expect("inherits reference"); err != nil {
			return err
		}
		if _, err := s.tz.ExpectSymbol("message start", lexer.MessageStart); err != nil {
			return err
		}
	}
	return s.consumeMessage()
}
