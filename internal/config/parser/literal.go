package parser

import (
	"github.com/dshills/typedconf/internal/config/lexer"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// ParseValue parses text as one value of type d using the config value
// grammar. References are not available. Booleans additionally accept the
// word forms 1, t, y, yes, 0, f, n and no in any case, and unknown enum
// values are always errors. The whole text must be consumed.
func ParseValue(text string, d schema.Descriptor, strict bool) (value.Value, error) {
	tz := lexer.New("", []byte(text))
	s := &state{
		tz:      tz,
		env:     newEnvironment(tz),
		strict:  strict,
		literal: true,
	}

	tok, err := tz.Expect(d.QualifiedName() + " value")
	if err != nil {
		return nil, err
	}
	v, err := s.parseFieldValue(tok, d, true)
	if err != nil {
		return nil, err
	}
	if extra, err := tz.Peek(); err != nil || extra != nil {
		if err != nil {
			return nil, err
		}
		return nil, tz.Failure(extra, "Garbage after %s value: '%s'", d.QualifiedName(), extra.Text)
	}
	return v, nil
}
