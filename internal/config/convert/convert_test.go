package convert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

var level = schema.NewEnum("test", "Level",
	schema.EnumItem{Name: "LOW", ID: 1},
	schema.EnumItem{Name: "HIGH", ID: 2},
)

func TestAsType_Primitives(t *testing.T) {
	tests := []struct {
		name string
		desc schema.Descriptor
		in   any
		want value.Value
	}{
		{"bool from bool", schema.Bool, true, value.Bool(true)},
		{"bool from yes", schema.Bool, value.String("Yes"), value.Bool(true)},
		{"bool from f", schema.Bool, "f", value.Bool(false)},
		{"bool from int", schema.Bool, value.I32(0), value.Bool(false)},
		{"byte from int", schema.Byte, 127, value.Byte(127)},
		{"i16 from bool", schema.I16, value.Bool(true), value.I16(1)},
		{"i32 from whole double", schema.I32, value.Double(42), value.I32(42)},
		{"i64 from hex string", schema.I64, "0x10", value.I64(16)},
		{"i32 from enum", schema.I32, value.NewEnum(level, schema.EnumItem{Name: "HIGH", ID: 2}), value.I32(2)},
		{"double from int", schema.Double, value.I64(3), value.Double(3)},
		{"double from string", schema.Double, "2.5", value.Double(2.5)},
		{"string from int", schema.String, value.I32(7), value.String("7")},
		{"string from enum", schema.String, value.NewEnum(level, schema.EnumItem{Name: "LOW", ID: 1}), value.String("LOW")},
		{"string from double", schema.String, 1.0, value.String("1.0")},
		{"binary", schema.Binary, []byte{1, 2}, value.Binary{1, 2}},
		{"enum by name", level, "HIGH", value.NewEnum(level, schema.EnumItem{Name: "HIGH", ID: 2})},
		{"enum by id", level, value.I32(1), value.NewEnum(level, schema.EnumItem{Name: "LOW", ID: 1})},
		{"nil", schema.I32, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsType(tt.desc, tt.in)
			require.NoError(t, err)
			require.True(t, value.Equal(tt.want, got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestAsType_Errors(t *testing.T) {
	tests := []struct {
		name     string
		desc     schema.Descriptor
		in       any
		category error
		message  string
	}{
		{"byte overflow", schema.Byte, 128, ErrOutOfRange, "byte value out of bounds: 128 > 127"},
		{"i16 underflow", schema.I16, value.I64(-40000), ErrOutOfRange, "i16 value out of bounds: -40000 < -32768"},
		{"fraction", schema.I32, value.Double(1.5), ErrIncompatible, "Truncating integer decimals from 1.5"},
		{"real to bool", schema.Bool, value.Double(1), ErrIncompatible, "Unable to convert real value to boolean"},
		{"bad bool word", schema.Bool, "maybe", ErrIncompatible, `Unable to parse the string "maybe" to boolean`},
		{"binary from string", schema.Binary, "AAA", ErrIncompatible, "Unable to convert string to binary"},
		{"unknown enum", level, "MEDIUM", ErrUnknownEnumValue, "Unknown test.Level value: MEDIUM"},
		{"list from scalar", schema.ListOf(schema.I32), value.I32(1), ErrIncompatible, "Unable to convert i32 to list<i32>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AsType(tt.desc, tt.in)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.category), "got %v", err)
			require.EqualError(t, err, tt.message)
		})
	}
}

func TestAsType_Message(t *testing.T) {
	inner := schema.NewStructBuilder("test", "Inner").
		Optional(1, "name", schema.String).
		Optional(2, "count", schema.I32).
		Build()
	other := schema.NewStructBuilder("test", "Other").Build()

	m, err := AsType(inner, map[string]any{"name": "x", "count": 3})
	require.NoError(t, err)
	msg := m.(*value.Message)
	v, ok := msg.GetByName("count")
	require.True(t, ok)
	require.Equal(t, value.I32(3), v)

	same, err := AsType(inner, msg)
	require.NoError(t, err)
	require.Same(t, msg, same)

	_, err = AsType(other, msg)
	require.EqualError(t, err, "Message type mismatch: test.Inner is not compatible with test.Other")
}

func TestAsType_Collections(t *testing.T) {
	l, err := AsType(schema.ListOf(schema.I16), []any{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, "[1, 2, 3]", value.Format(l))

	s, err := AsType(schema.SetOf(schema.String), value.NewList(value.String("a"), value.String("a")))
	require.NoError(t, err)
	require.Equal(t, 1, s.(*value.Set).Len())

	m, err := AsType(schema.MapOf(schema.String, schema.I64), map[string]any{"a": 1})
	require.NoError(t, err)
	got, ok := m.(*value.Map).Get(value.String("a"))
	require.True(t, ok)
	require.Equal(t, value.I64(1), got)

	_, err = AsType(schema.ListOf(schema.Byte), []any{1, 300})
	require.True(t, errors.Is(err, ErrOutOfRange))
}
