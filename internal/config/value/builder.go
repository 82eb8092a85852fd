package value

import (
	"fmt"

	"github.com/dshills/typedconf/internal/config/schema"
)

// Builder is the mutable staging form of a Message.
//
// Nested message fields may be edited in place through Mutator. The
// returned builder is owned by its parent: it stays attached to the field
// slot until the slot is overwritten by Set, Clear or Merge, and its state is
// folded into the parent by Build.
type Builder struct {
	desc   *schema.MessageDescriptor
	values map[int]Value
	slots  map[int]*Builder
}

// NewBuilder creates an empty builder for desc.
func NewBuilder(desc *schema.MessageDescriptor) *Builder {
	return &Builder{
		desc:   desc,
		values: make(map[int]Value),
		slots:  make(map[int]*Builder),
	}
}

// Descriptor returns the message type being built.
func (b *Builder) Descriptor() *schema.MessageDescriptor { return b.desc }

// Set stores v in field id. A nil value clears the field. Setting a union
// field clears every other field.
func (b *Builder) Set(id int, v Value) error {
	f := b.desc.FieldByID(id)
	if f == nil {
		return fmt.Errorf("%w: id %d in %s", schema.ErrNoSuchField, id, b.desc.QualifiedName())
	}
	if isNil(v) {
		b.Clear(id)
		return nil
	}
	if err := Fits(f.Type, v); err != nil {
		return fmt.Errorf("field %s in %s: %w", f.Name, b.desc.QualifiedName(), err)
	}
	if b.desc.IsUnion() {
		b.reset()
	}
	delete(b.slots, id)
	b.values[id] = v
	return nil
}

// SetByName stores v in the named field.
func (b *Builder) SetByName(name string, v Value) error {
	f := b.desc.FieldByName(name)
	if f == nil {
		return fmt.Errorf("%w: %s in %s", schema.ErrNoSuchField, name, b.desc.QualifiedName())
	}
	return b.Set(f.ID, v)
}

// Clear removes field id.
func (b *Builder) Clear(id int) {
	delete(b.values, id)
	delete(b.slots, id)
}

// Has reports whether field id is present.
func (b *Builder) Has(id int) bool {
	if _, ok := b.slots[id]; ok {
		return true
	}
	_, ok := b.values[id]
	return ok
}

// Get returns the current value of field id.
func (b *Builder) Get(id int) (Value, bool) {
	if s, ok := b.slots[id]; ok {
		return s.Build(), true
	}
	v, ok := b.values[id]
	return v, ok
}

// Mutator returns a builder for the message field id, creating the nested
// message from its current value, or empty if unset. The field counts as
// present from then on.
func (b *Builder) Mutator(id int) (*Builder, error) {
	f := b.desc.FieldByID(id)
	if f == nil {
		return nil, fmt.Errorf("%w: id %d in %s", schema.ErrNoSuchField, id, b.desc.QualifiedName())
	}
	md, ok := f.Type.(*schema.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", schema.ErrNotMessageField, f.Name, b.desc.QualifiedName())
	}
	if s, ok := b.slots[id]; ok {
		return s, nil
	}

	var s *Builder
	if cur, ok := b.values[id].(*Message); ok {
		s = cur.Mutate()
	} else {
		s = NewBuilder(md)
	}
	if b.desc.IsUnion() {
		b.reset()
	}
	delete(b.values, id)
	b.slots[id] = s
	return s, nil
}

// Merge copies every present field of m into the builder. Message fields
// present on both sides are merged recursively; all other fields are
// overwritten.
func (b *Builder) Merge(m *Message) error {
	if m == nil {
		return nil
	}
	if !schema.Same(b.desc, m.desc) {
		return fmt.Errorf("%w: cannot merge %s into %s", ErrDescriptorMismatch,
			m.desc.QualifiedName(), b.desc.QualifiedName())
	}
	for _, f := range m.PresentFields() {
		v := m.values[f.ID]
		if sub, ok := v.(*Message); ok && b.Has(f.ID) {
			nested, err := b.Mutator(f.ID)
			if err != nil {
				return err
			}
			if err := nested.Merge(sub); err != nil {
				return err
			}
			continue
		}
		if err := b.Set(f.ID, v); err != nil {
			return err
		}
	}
	return nil
}

// Build returns an immutable message with the staged fields.
func (b *Builder) Build() *Message {
	m := &Message{
		desc:   b.desc,
		values: make(map[int]Value, len(b.values)+len(b.slots)),
	}
	for id, v := range b.values {
		m.values[id] = v
	}
	for id, s := range b.slots {
		m.values[id] = s.Build()
	}
	return m
}

func (b *Builder) reset() {
	clear(b.values)
	clear(b.slots)
}
