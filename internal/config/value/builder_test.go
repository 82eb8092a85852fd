package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/typedconf/internal/config/schema"
)

func TestBuilder_SetClearBuild(t *testing.T) {
	fx := newFixture()
	b := NewBuilder(fx.outer)

	require.NoError(t, b.Set(1, Bool(true)))
	require.NoError(t, b.SetByName("tags", NewList(String("a"), String("b"))))
	require.True(t, b.Has(1))

	m := b.Build()
	require.True(t, m.Has(1))
	require.Equal(t, 2, m.Len())

	b.Clear(1)
	require.False(t, b.Has(1))
	require.True(t, m.Has(1), "built message must not change")

	require.NoError(t, b.Set(3, nil))
	require.False(t, b.Has(3))
}

func TestBuilder_SetRejectsWrongKind(t *testing.T) {
	fx := newFixture()
	b := NewBuilder(fx.outer)

	err := b.Set(1, I32(1))
	require.True(t, errors.Is(err, ErrKindMismatch), "got %v", err)

	err = b.Set(3, NewList(I32(1)))
	require.True(t, errors.Is(err, ErrKindMismatch), "got %v", err)

	err = b.Set(99, Bool(true))
	require.True(t, errors.Is(err, schema.ErrNoSuchField), "got %v", err)

	other := schema.NewStructBuilder("test", "Other").Build()
	err = b.Set(2, Empty(other))
	require.True(t, errors.Is(err, ErrKindMismatch), "got %v", err)
}

func TestBuilder_Mutator(t *testing.T) {
	fx := newFixture()
	b := NewBuilder(fx.outer)

	inner, err := b.Mutator(2)
	require.NoError(t, err)
	require.NoError(t, inner.Set(1, String("x")))

	// Same slot is returned while attached.
	again, err := b.Mutator(2)
	require.NoError(t, err)
	require.Same(t, inner, again)
	require.NoError(t, again.Set(2, I32(3)))

	m := b.Build()
	got, ok := m.Get(2)
	require.True(t, ok)
	require.Equal(t, `{name = "x", count = 3}`, got.String())

	// Mutator on an existing value starts from it.
	b2 := m.Mutate()
	in2, err := b2.Mutator(2)
	require.NoError(t, err)
	require.NoError(t, in2.Set(2, I32(4)))
	require.Equal(t, `{name = "x", count = 4}`, mustGet(t, b2.Build(), 2).String())
	require.Equal(t, `{name = "x", count = 3}`, mustGet(t, m, 2).String())

	_, err = b.Mutator(1)
	require.True(t, errors.Is(err, schema.ErrNotMessageField))
}

func TestBuilder_Merge(t *testing.T) {
	fx := newFixture()

	base := NewBuilder(fx.outer)
	require.NoError(t, base.Set(1, Bool(true)))
	in, _ := base.Mutator(2)
	require.NoError(t, in.Set(1, String("base")))
	require.NoError(t, in.Set(2, I32(1)))

	patch := NewBuilder(fx.outer)
	require.NoError(t, patch.Set(1, Bool(false)))
	pin, _ := patch.Mutator(2)
	require.NoError(t, pin.Set(2, I32(7)))

	require.NoError(t, base.Merge(patch.Build()))
	m := base.Build()

	require.Equal(t, Bool(false), mustGet(t, m, 1))
	require.Equal(t, `{name = "base", count = 7}`, mustGet(t, m, 2).String())

	other := schema.NewStructBuilder("test", "Other").Build()
	err := base.Merge(Empty(other))
	require.True(t, errors.Is(err, ErrDescriptorMismatch))
}

func TestBuilder_Union(t *testing.T) {
	fx := newFixture()
	b := NewBuilder(fx.choice)

	require.NoError(t, b.Set(1, I64(5)))
	require.NoError(t, b.Set(2, String("five")))
	m := b.Build()
	require.False(t, m.Has(1))
	require.True(t, m.Has(2))

	_, err := b.Mutator(3)
	require.NoError(t, err)
	require.False(t, b.Has(2))
	require.True(t, b.Has(3))
}

func TestMessage_Validate(t *testing.T) {
	fx := newFixture()

	b := NewBuilder(fx.outer)
	in, _ := b.Mutator(2)
	require.NoError(t, in.Set(2, I32(1)))
	err := b.Build().Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "inner.name: required field is missing")

	require.NoError(t, in.Set(1, String("ok")))
	require.NoError(t, b.Build().Validate())

	require.Error(t, Empty(fx.choice).Validate())
}

func mustGet(t *testing.T, m *Message, id int) Value {
	t.Helper()
	v, ok := m.Get(id)
	require.True(t, ok, "field %d not set", id)
	return v
}
