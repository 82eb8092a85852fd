package override

import (
	"errors"
	"strings"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/parser"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

type undefined struct{}

// Undefined clears the field it is set for in ApplyValues. A nil value has
// the same effect.
var Undefined any = undefined{}

// ApplyValues returns base with the typed overrides applied. Values are
// converted to the field type with convert.AsType. The base record is not
// modified.
func ApplyValues(base *value.Message, o *Overrides[any], strict bool) (*value.Message, error) {
	return apply(base, o, strict, func(v any, d schema.Descriptor) (value.Value, error) {
		if v == nil || v == Undefined {
			return nil, nil
		}
		return convert.AsType(d, v)
	})
}

// ApplyStrings returns base with the text overrides applied. The text
// "undefined" clears the field. String fields take the text as is unless it
// is a quoted literal. Every other kind is parsed with the config value
// grammar: radix prefixes for integers, boolean words, b64(...) and
// hex(...) for binary, enum names or ids, and bracketed literals for
// containers and messages.
func ApplyStrings(base *value.Message, o *Overrides[string], strict bool) (*value.Message, error) {
	return apply(base, o, strict, func(text string, d schema.Descriptor) (value.Value, error) {
		if text == UndefinedText {
			return nil, nil
		}
		return parseText(text, d, strict)
	})
}

// apply resolves each key and converts its value before touching the
// builder, so a skipped override leaves the record unchanged. A nil value
// clears the field without creating unset intermediates.
func apply[T any](base *value.Message, o *Overrides[T], strict bool, conv func(T, schema.Descriptor) (value.Value, error)) (*value.Message, error) {
	b := base.Mutate()
	for _, key := range o.Keys() {
		chain, err := resolve(base.Descriptor(), key, strict)
		if err != nil {
			return nil, &Error{Key: key, Err: err}
		}
		if chain == nil {
			continue
		}
		leaf := chain[len(chain)-1]

		raw, _ := o.Get(key)
		v, err := conv(raw, leaf.Type)
		if err != nil {
			if skippable(err, strict) {
				continue
			}
			return nil, &Error{Key: key, Err: err}
		}

		tb, err := descend(b, chain, v != nil)
		if err != nil {
			return nil, &Error{Key: key, Err: err}
		}
		if tb == nil {
			continue
		}
		if v == nil {
			tb.Clear(leaf.ID)
			continue
		}
		if err := tb.Set(leaf.ID, v); err != nil {
			return nil, &Error{Key: key, Err: err}
		}
	}
	return b.Build(), nil
}

func parseText(text string, d schema.Descriptor, strict bool) (value.Value, error) {
	if d.Kind() == schema.KindString && !isQuoted(text) {
		return value.String(text), nil
	}
	return parser.ParseValue(text, d, strict)
}

func isQuoted(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, `"`) || strings.HasPrefix(t, "'")
}

func skippable(err error, strict bool) bool {
	return !strict && errors.Is(err, convert.ErrOutOfRange)
}
