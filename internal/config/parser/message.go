package parser

import (
	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/lexer"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// parseMessage parses fields into b up to and including the closing '}'.
func (s *state) parseMessage(b *value.Builder) error {
	desc := b.Descriptor()
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

		f := desc.FieldByName(tok.Text)
		if f == nil {
			if s.strict {
				return s.tz.Failure(tok, "No such field %s in %s", tok.Text, desc.QualifiedName()).Wrap(ErrUnknownField)
			}
			err = s.skipField()
		} else {
			err = s.parseField(b, f, tok)
		}
		if err != nil {
			return err
		}
		if err := s.skipLineSep(); err != nil {
			return err
		}
	}
}

// parseField parses the separator and value of a declared field.
func (s *state) parseField(b *value.Builder, f *schema.Field, name *lexer.Token) error {
	switch f.Type.Kind() {
	case schema.KindMessage:
		return s.parseMessageField(b, f, name)
	case schema.KindMap:
		return s.parseMapField(b, f, name)
	}
	return s.parseValueField(b, f)
}

// bindRef parses the name after '&' and declares it.
func (s *state) bindRef() (*lexer.Token, error) {
	ref, err := s.tz.ExpectIdentifier("reference name")
	if err != nil {
		return nil, err
	}
	if err := s.env.declare(ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// finishRef defines a bound reference as the field's final value.
func (s *state) finishRef(ref *lexer.Token, b *value.Builder, f *schema.Field) {
	if ref == nil {
		return
	}
	v, _ := b.Get(f.ID)
	s.env.define(ref.Text, v)
}

// skipField consumes the value of an unknown field in lenient mode.
func (s *state) skipField() error {
	sym, err := s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.MessageStart, lexer.DefineReference)
	if err != nil {
		return err
	}
	var ref *lexer.Token
	if sym == lexer.DefineReference {
		if ref, err = s.bindRef(); err != nil {
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
	if ref != nil {
		s.env.define(ref.Text, nil)
	}
	return err
}

// parseMessageField handles a message typed field:
//
//	field = { ... }        replace
//	field = ref            replace with a reference
//	field = ref { ... }    replace, starting from a reference
//	field = undefined      clear
//	field { ... }          extend the current value
//	field & name ...       any of the above, binding the result to name
func (s *state) parseMessageField(b *value.Builder, f *schema.Field, name *lexer.Token) error {
	md := f.Type.(*schema.MessageDescriptor)

	sym, err := s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.MessageStart, lexer.DefineReference)
	if err != nil {
		return err
	}
	var ref *lexer.Token
	if sym == lexer.DefineReference {
		if ref, err = s.bindRef(); err != nil {
			return err
		}
		if sym, err = s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.MessageStart); err != nil {
			return err
		}
	}

	if sym == lexer.MessageStart {
		if !b.Has(f.ID) {
			def, err := convert.Default(f)
			if err != nil {
				return s.tz.Failure(name, "%v", err)
			}
			if def != nil {
				if err := b.Set(f.ID, def); err != nil {
					return s.tz.Failure(name, "%v", err)
				}
			}
		}
		mut, err := b.Mutator(f.ID)
		if err != nil {
			return err
		}
		if err := s.parseMessage(mut); err != nil {
			return err
		}
		s.finishRef(ref, b, f)
		return nil
	}

	tok, err := s.tz.Expect("field value")
	if err != nil {
		return err
	}
	switch {
	case tok.Text == wordUndefined:
		b.Clear(f.ID)
	case tok.IsSymbol(lexer.MessageStart):
		nb := value.NewBuilder(md)
		if err := s.parseMessage(nb); err != nil {
			return err
		}
		_ = b.Set(f.ID, nb.Build())
	default:
		refTok, err := s.referenceToken(tok)
		if err != nil {
			return err
		}
		if refTok == nil {
			return s.tz.Failure(tok, "Expected message start, but got '%s'", tok.Text)
		}
		base, err := s.resolve(refTok, md)
		if err != nil {
			return err
		}
		extend, err := s.peekSymbol(lexer.MessageStart)
		if err != nil {
			return err
		}
		if base == nil {
			if s.strict {
				return s.tz.Failure(refTok, "Unknown reference %s", refTok.Text).Wrap(ErrReference)
			}
			if extend {
				return s.tz.Failure(refTok, "Inherit from unknown reference %s", refTok.Text).Wrap(ErrReference)
			}
			b.Clear(f.ID)
			break
		}
		if !extend {
			_ = b.Set(f.ID, base)
			break
		}
		_, _ = s.tz.Next()
		nb := base.(*value.Message).Mutate()
		if err := s.parseMessage(nb); err != nil {
			return err
		}
		_ = b.Set(f.ID, nb.Build())
	}
	s.finishRef(ref, b, f)
	return nil
}

// parseMapField handles a map typed field. Like message fields, '=' replaces
// the map, optionally seeded from a reference, and '{' adds to the current
// entries.
func (s *state) parseMapField(b *value.Builder, f *schema.Field, name *lexer.Token) error {
	md := f.Type.(*schema.MapDescriptor)

	sym, err := s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.MessageStart, lexer.DefineReference)
	if err != nil {
		return err
	}
	var ref *lexer.Token
	if sym == lexer.DefineReference {
		if ref, err = s.bindRef(); err != nil {
			return err
		}
		if sym, err = s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.MessageStart); err != nil {
			return err
		}
	}

	mb := value.NewMapBuilder()
	if sym == lexer.MessageStart {
		cur, ok := b.Get(f.ID)
		if !ok {
			if cur, err = convert.Default(f); err != nil {
				return s.tz.Failure(name, "%v", err)
			}
		}
		if m, ok := cur.(*value.Map); ok {
			mb.PutAll(m)
		}
	} else {
		tok, err := s.tz.Expect("map value")
		if err != nil {
			return err
		}
		if tok.Text == wordUndefined {
			b.Clear(f.ID)
			s.finishRef(ref, b, f)
			return nil
		}
		if !tok.IsSymbol(lexer.MessageStart) {
			refTok, err := s.referenceToken(tok)
			if err != nil {
				return err
			}
			if refTok == nil {
				return s.tz.Failure(tok, "Expected map start, but got '%s'", tok.Text)
			}
			base, err := s.resolve(refTok, md)
			if err != nil {
				return err
			}
			extend, err := s.peekSymbol(lexer.MessageStart)
			if err != nil {
				return err
			}
			if !extend {
				_ = b.Set(f.ID, base)
				s.finishRef(ref, b, f)
				return nil
			}
			_, _ = s.tz.Next()
			if m, ok := base.(*value.Map); ok {
				mb.PutAll(m)
			}
		}
	}

	if err := s.parseMapValue(mb, md); err != nil {
		return err
	}
	_ = b.Set(f.ID, mb.Build())
	s.finishRef(ref, b, f)
	return nil
}

// parseValueField handles every other field kind: '=' followed by a value
// or undefined.
func (s *state) parseValueField(b *value.Builder, f *schema.Field) error {
	sym, err := s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep, lexer.DefineReference)
	if err != nil {
		return err
	}
	var ref *lexer.Token
	if sym == lexer.DefineReference {
		if ref, err = s.bindRef(); err != nil {
			return err
		}
		if _, err = s.tz.ExpectSymbol("field value sep", lexer.FieldValueSep); err != nil {
			return err
		}
	}

	tok, err := s.tz.Expect("field value")
	if err != nil {
		return err
	}
	if tok.Text == wordUndefined {
		b.Clear(f.ID)
	} else {
		v, err := s.parseFieldValue(tok, f.Type, false)
		if err != nil {
			return err
		}
		if v != nil {
			if err := b.Set(f.ID, v); err != nil {
				return s.tz.Failure(tok, "%v", err)
			}
		}
	}
	s.finishRef(ref, b, f)
	return nil
}
