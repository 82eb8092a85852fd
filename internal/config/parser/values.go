package parser

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math"
	"strings"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/lexer"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// parseFieldValue parses the value starting at tok as type d. It is the one
// dispatcher over descriptor kinds used for fields, list items, map entries
// and standalone literals. requireEnum makes unknown enum values fatal even
// in lenient mode; otherwise they yield nil.
func (s *state) parseFieldValue(tok *lexer.Token, d schema.Descriptor, requireEnum bool) (value.Value, error) {
	switch d.Kind() {
	case schema.KindBool:
		switch tok.Text {
		case wordTrue:
			return value.Bool(true), nil
		case wordFalse:
			return value.Bool(false), nil
		}
		if s.literal && (tok.IsIdentifier() || tok.IsInteger()) {
			if b, ok := convert.ParseBool(tok.Text); ok {
				return value.Bool(b), nil
			}
		}
	case schema.KindByte, schema.KindI16, schema.KindI32, schema.KindI64:
		if tok.IsInteger() {
			return s.parseInteger(tok, d.Kind())
		}
	case schema.KindDouble:
		if tok.IsInteger() || tok.IsReal() {
			f, err := tok.ParseDouble()
			if err != nil {
				return nil, s.tz.Failure(tok, "Invalid double value: %s", tok.Text)
			}
			return value.Double(f), nil
		}
	case schema.KindString:
		if tok.IsStringLiteral() {
			str, err := tok.DecodeLiteral(s.strict)
			if err != nil {
				return nil, s.tz.Failure(tok, "%v", err)
			}
			return value.String(str), nil
		}
	case schema.KindBinary:
		if tok.Text == lexer.B64 || tok.Text == lexer.Hex {
			return s.parseBinary(tok)
		}
	case schema.KindEnum:
		return s.parseEnum(tok, d.(*schema.EnumDescriptor), requireEnum)
	case schema.KindMessage:
		if tok.IsSymbol(lexer.MessageStart) {
			b := value.NewBuilder(d.(*schema.MessageDescriptor))
			if err := s.parseMessage(b); err != nil {
				return nil, err
			}
			return b.Build(), nil
		}
	case schema.KindMap:
		if tok.IsSymbol(lexer.MessageStart) {
			mb := value.NewMapBuilder()
			if err := s.parseMapValue(mb, d.(*schema.MapDescriptor)); err != nil {
				return nil, err
			}
			return mb.Build(), nil
		}
	case schema.KindList:
		if tok.IsSymbol(lexer.ListStart) {
			items, err := s.parseItems(d.(*schema.ListDescriptor).Item, requireEnum)
			if err != nil {
				return nil, err
			}
			return value.NewList(items...), nil
		}
	case schema.KindSet:
		if tok.IsSymbol(lexer.ListStart) {
			items, err := s.parseItems(d.(*schema.SetDescriptor).Item, requireEnum)
			if err != nil {
				return nil, err
			}
			return value.NewSet(items...), nil
		}
	}

	ref, err := s.referenceToken(tok)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		if md, ok := d.(*schema.MessageDescriptor); ok {
			return s.resolveExtended(ref, md)
		}
		return s.resolve(ref, d)
	}
	if d.Kind().IsPrimitive() {
		return nil, s.tz.Failure(tok, "Invalid %s value: %s", d.QualifiedName(), tok.Text)
	}
	return nil, s.tz.Failure(tok, "Unhandled value \"%s\" for type %s", tok.Text, d.QualifiedName())
}

func (s *state) parseInteger(tok *lexer.Token, k schema.Kind) (value.Value, error) {
	n, err := tok.ParseInteger()
	if err == nil {
		err = convert.CheckRange(k, n)
	}
	if err != nil {
		return nil, s.tz.Failure(tok, "Value '%s' is out of range for %s", tok.Text, k).Wrap(convert.ErrOutOfRange)
	}
	return convert.Integer(k, n), nil
}

// parseEnum accepts a numeric id, a constant name or a reference.
func (s *state) parseEnum(tok *lexer.Token, ed *schema.EnumDescriptor, requireEnum bool) (value.Value, error) {
	var v value.Value
	switch {
	case tok.IsInteger():
		n, err := tok.ParseInteger()
		if err == nil && n >= math.MinInt32 && n <= math.MaxInt32 {
			if item, ok := ed.FindByID(int32(n)); ok {
				v = value.NewEnum(ed, item)
			}
		}
	case tok.IsIdentifier() && !isReserved(tok.Text):
		if item, ok := ed.FindByName(tok.Text); ok {
			v = value.NewEnum(ed, item)
			break
		}
		if !s.env.has(tok.Text) {
			break
		}
		fallthrough
	default:
		ref, err := s.referenceToken(tok)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			return nil, s.tz.Failure(tok, "Invalid %s value: %s", ed.QualifiedName(), tok.Text)
		}
		v, err = s.resolve(ref, ed)
		if err != nil {
			if !errors.Is(err, convert.ErrUnknownEnumValue) || s.strict || requireEnum {
				return nil, err
			}
			v = nil
		}
	}

	if v == nil && (s.strict || requireEnum) {
		if item, ok := ed.Suggest(tok.Text); ok {
			return nil, s.tz.Failure(tok, "No such enum value '%s' for %s, did you mean '%s'?", tok.Text, ed.QualifiedName(), item.Name)
		}
		return nil, s.tz.Failure(tok, "No such enum value '%s' for %s.", tok.Text, ed.QualifiedName())
	}
	return v, nil
}

// parseItems parses list or set items after '['. Items are separated by
// commas and a trailing comma is allowed.
func (s *state) parseItems(item schema.Descriptor, requireEnum bool) ([]value.Value, error) {
	var items []value.Value
	for {
		tok, err := s.tz.Expect("list item or end")
		if err != nil {
			return nil, err
		}
		if tok.IsSymbol(lexer.ListEnd) {
			return items, nil
		}
		v, err := s.parseFieldValue(tok, item, requireEnum)
		if err != nil {
			return nil, err
		}
		if v != nil {
			items = append(items, v)
		}
		sym, err := s.tz.ExpectSymbol("list separator or end", lexer.LineSep1, lexer.ListEnd)
		if err != nil {
			return nil, err
		}
		if sym == lexer.ListEnd {
			return items, nil
		}
	}
}

// parseMapValue parses map entries after '{' into mb. Entries are
// "key: value" with optional separators; "key: undefined" removes the key.
func (s *state) parseMapValue(mb *value.MapBuilder, md *schema.MapDescriptor) error {
	for {
		tok, err := s.tz.Expect("map key or end")
		if err != nil {
			return err
		}
		if tok.IsSymbol(lexer.MessageEnd) {
			return nil
		}
		key, err := s.parseFieldValue(tok, md.Key, true)
		if err != nil {
			return err
		}
		if key == nil {
			return s.tz.Failure(tok, "Invalid map key: %s", tok.Text)
		}
		if _, err := s.tz.ExpectSymbol("map key value sep", lexer.KeyValueSep); err != nil {
			return err
		}

		vt, err := s.tz.Expect("map value")
		if err != nil {
			return err
		}
		if vt.Text == wordUndefined {
			mb.Remove(key)
		} else {
			v, err := s.parseFieldValue(vt, md.Value, false)
			if err != nil {
				return err
			}
			mb.Put(key, v)
		}
		if err := s.skipLineSep(); err != nil {
			return err
		}
	}
}

func (s *state) parseBinary(tok *lexer.Token) (value.Value, error) {
	if _, err := s.tz.ExpectSymbol("binary data start", lexer.ParamsStart); err != nil {
		return nil, err
	}
	content, err := s.tz.ReadBinary(lexer.ParamsEnd)
	if err != nil {
		return nil, err
	}
	data, err := decodeBinary(tok.Text, content)
	if err != nil {
		return nil, s.tz.Failure(tok, "Invalid %s binary data: %v", tok.Text, err)
	}
	return value.Binary(data), nil
}

func decodeBinary(kind, content string) ([]byte, error) {
	if kind == lexer.Hex {
		return hex.DecodeString(content)
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		if data, err := enc.DecodeString(content); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("illegal base64 data")
}

// parseDefinitionValue parses the value of a def entry: a literal, an enum
// constant, a typed message or a reference.
func (s *state) parseDefinitionValue() (value.Value, error) {
	tok, err := s.tz.Expect("defined value")
	if err != nil {
		return nil, err
	}

	switch {
	case tok.IsReal():
		f, err := tok.ParseDouble()
		if err != nil {
			return nil, s.tz.Failure(tok, "Invalid double value: %s", tok.Text)
		}
		return value.Double(f), nil
	case tok.IsInteger():
		return s.parseInteger(tok, schema.KindI64)
	case tok.IsStringLiteral():
		str, err := tok.DecodeLiteral(s.strict)
		if err != nil {
			return nil, s.tz.Failure(tok, "%v", err)
		}
		return value.String(str), nil
	case strings.EqualFold(tok.Text, wordTrue):
		return value.Bool(true), nil
	case strings.EqualFold(tok.Text, wordFalse):
		return value.Bool(false), nil
	case tok.Text == lexer.B64 || tok.Text == lexer.Hex:
		return s.parseBinary(tok)
	case tok.IsSymbol(lexer.DefineReference):
		ref, err := s.referenceToken(tok)
		if err != nil {
			return nil, err
		}
		return s.resolveAny(ref)
	case tok.IsIdentifier() && !isReserved(tok.Text):
		return s.resolveAny(tok)
	case tok.IsReferenceIdentifier() && s.env.has(firstSegment(tok.Text)):
		return s.resolveAny(tok)
	case tok.IsDoubleQualifiedIdentifier():
		return s.parseEnumConstant(tok)
	case tok.IsQualifiedIdentifier():
		return s.parseTypedDefinition(tok)
	}
	return nil, s.tz.Failure(tok, "Invalid define value %s", tok.Text)
}

// parseEnumConstant parses "package.Enum.NAME".
func (s *state) parseEnumConstant(tok *lexer.Token) (value.Value, error) {
	i := strings.LastIndex(tok.Text, lexer.IdentifierSep)
	typeName, name := tok.Text[:i], tok.Text[i+1:]

	ed, err := s.p.reg.LookupEnum(typeName)
	if err != nil {
		if s.strict {
			return nil, s.tz.Failure(tok, "Unknown enum identifier: %s", typeName).Wrap(ErrUnknownType)
		}
		return nil, nil
	}
	item, ok := ed.FindByName(name)
	if !ok {
		if s.strict {
			return nil, s.tz.Failure(tok, "Unknown %s value: %s", typeName, name)
		}
		return nil, nil
	}
	return value.NewEnum(ed, item), nil
}

// parseTypedDefinition parses "package.Type { ... }" or
// "package.Type : ref { ... }".
func (s *state) parseTypedDefinition(tok *lexer.Token) (value.Value, error) {
	md, err := s.p.reg.LookupMessage(tok.Text)
	if err != nil {
		if s.strict {
			return nil, s.tz.Failure(tok, "Unknown declared type: %s", tok.Text).Wrap(ErrUnknownType)
		}
		return nil, s.consumeTypedBody()
	}

	b := value.NewBuilder(md)
	sym, err := s.tz.ExpectSymbol("message start or inherits", lexer.MessageStart, lexer.KeyValueSep)
	if err != nil {
		return nil, err
	}
	if sym == lexer.KeyValueSep {
		ref, err := s.tz.Expect("inherits reference")
		if err != nil {
			return nil, err
		}
		if !ref.IsReferenceIdentifier() || isReserved(ref.Text) {
			return nil, s.tz.Failure(ref, "Unexpected token %s, expected reference identifier", ref.Text)
		}
		base, err := s.resolveRequired(ref, md)
		if err != nil {
			return nil, err
		}
		if err := b.Merge(base.(*value.Message)); err != nil {
			return nil, s.tz.Failure(ref, "%v", err)
		}
		if _, err := s.tz.ExpectSymbol("message start", lexer.MessageStart); err != nil {
			return nil, err
		}
	}
	if err := s.parseMessage(b); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// referenceToken returns the reference named by tok, reading the name
// after a leading '&'. It returns nil if tok is not a reference.
func (s *state) referenceToken(tok *lexer.Token) (*lexer.Token, error) {
	if s.literal {
		return nil, nil
	}
	if tok.IsSymbol(lexer.DefineReference) {
		ref, err := s.tz.Expect("reference")
		if err != nil {
			return nil, err
		}
		if !ref.IsReferenceIdentifier() || isReserved(ref.Text) {
			return nil, s.tz.Failure(ref, "Unexpected token %s, expected reference identifier", ref.Text)
		}
		return ref, nil
	}
	if tok.IsReferenceIdentifier() && !isReserved(tok.Text) {
		return tok, nil
	}
	return nil, nil
}

func firstSegment(name string) string {
	first, _, _ := strings.Cut(name, lexer.IdentifierSep)
	return first
}

// resolveAny returns the raw value of a reference, navigating into record
// fields for "name.field.field".
func (s *state) resolveAny(tok *lexer.Token) (value.Value, error) {
	name, path, nested := strings.Cut(tok.Text, lexer.IdentifierSep)
	v, err := s.env.get(name, tok)
	if err != nil || !nested || v == nil {
		return v, err
	}
	msg, ok := v.(*value.Message)
	if !ok {
		return nil, s.tz.Failure(tok, "Reference %s is not a message, cannot read %s", name, path).Wrap(ErrReference)
	}
	out, err := convert.Lookup(msg, path)
	if err != nil {
		return nil, s.tz.Failure(tok, "%v", err).Wrap(ErrReference)
	}
	return out, nil
}

// resolve returns a reference coerced to d.
func (s *state) resolve(tok *lexer.Token, d schema.Descriptor) (value.Value, error) {
	v, err := s.resolveAny(tok)
	if err != nil || v == nil {
		return nil, err
	}
	out, err := convert.AsType(d, v)
	if err != nil {
		return nil, s.tz.Failure(tok, "%v", err).Wrap(err)
	}
	return out, nil
}

// resolveExtended resolves a message reference that may be followed by a
// block of fields to apply on top of it.
func (s *state) resolveExtended(ref *lexer.Token, md *schema.MessageDescriptor) (value.Value, error) {
	base, err := s.resolve(ref, md)
	if err != nil {
		return nil, err
	}
	extend, err := s.peekSymbol(lexer.MessageStart)
	if err != nil || !extend {
		return base, err
	}
	if base == nil {
		return nil, s.tz.Failure(ref, "Inherit from unknown reference %s", ref.Text).Wrap(ErrReference)
	}
	_, _ = s.tz.Next()
	b := base.(*value.Message).Mutate()
	if err := s.parseMessage(b); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// resolveRequired is resolve for references that must have a value.
func (s *state) resolveRequired(tok *lexer.Token, d schema.Descriptor) (value.Value, error) {
	v, err := s.resolve(tok, d)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, s.tz.Failure(tok, "Inheriting from null reference: %s", tok.Text).Wrap(ErrReference)
	}
	return v, nil
}
