package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	fx := newFixture()
	low, _ := fx.level.FindByName("LOW")
	high, _ := fx.level.FindByName("HIGH")

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil", nil, nil, true},
		{"nil vs value", nil, I32(1), false},
		{"typed nil", (*Message)(nil), nil, true},
		{"bool", Bool(true), Bool(true), true},
		{"kind differs", I32(1), I64(1), false},
		{"binary", Binary("ab"), Binary("ab"), true},
		{"binary differs", Binary("ab"), Binary("ba"), false},
		{"enum", NewEnum(fx.level, low), NewEnum(fx.level, low), true},
		{"enum differs", NewEnum(fx.level, low), NewEnum(fx.level, high), false},
		{"list order", NewList(I32(1), I32(2)), NewList(I32(2), I32(1)), false},
		{"set order", NewSet(I16(1), I16(2)), NewSet(I16(2), I16(1)), true},
		{"map order",
			NewMap(Entry{String("a"), I64(1)}, Entry{String("b"), I64(2)}),
			NewMap(Entry{String("b"), I64(2)}, Entry{String("a"), I64(1)}),
			true},
		{"map value",
			NewMap(Entry{String("a"), I64(1)}),
			NewMap(Entry{String("a"), I64(2)}),
			false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestMessage_Equal(t *testing.T) {
	fx := newFixture()

	build := func(n int32) *Message {
		b := NewBuilder(fx.outer)
		in, _ := b.Mutator(2)
		require.NoError(t, in.Set(2, I32(n)))
		return b.Build()
	}

	require.True(t, build(1).Equal(build(1)))
	require.False(t, build(1).Equal(build(2)))
	require.False(t, build(1).Equal(Empty(fx.outer)))
}

func TestSet_Dedup(t *testing.T) {
	s := NewSet(I16(1), I16(1), nil, I16(2))
	require.Equal(t, 2, s.Len())
	require.True(t, s.Has(I16(2)))
	require.False(t, s.Has(I32(2)))
}

func TestMapBuilder(t *testing.T) {
	b := NewMapBuilder()
	b.Put(String("a"), I64(1)).Put(String("b"), I64(2)).Put(String("a"), I64(3))
	b.Remove(String("b"))
	b.Put(String("c"), I64(4))

	m := b.Build()
	require.Equal(t, 2, m.Len())
	v, ok := m.Get(String("a"))
	require.True(t, ok)
	require.Equal(t, I64(3), v)
	require.Equal(t, `{"a": 3, "c": 4}`, m.String())

	// Builder stays usable without affecting built maps.
	b.Remove(String("a"))
	require.Equal(t, 2, m.Len())
	require.Equal(t, 1, b.Len())
}

func TestFits(t *testing.T) {
	fx := newFixture()
	low, _ := fx.level.FindByName("LOW")

	require.NoError(t, Fits(fx.outer.FieldByName("level").Type, NewEnum(fx.level, low)))
	require.NoError(t, Fits(fx.outer.FieldByName("limits").Type, NewMap(Entry{String("a"), I64(1)})))
	require.Error(t, Fits(fx.outer.FieldByName("limits").Type, NewMap(Entry{String("a"), I32(1)})))
	require.Error(t, Fits(fx.outer.FieldByName("ids").Type, NewSet(I32(1))))
}
