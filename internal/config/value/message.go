package value

import (
	"github.com/dshills/typedconf/internal/config/schema"
)

// Message is an immutable struct or union record.
type Message struct {
	desc   *schema.MessageDescriptor
	values map[int]Value
}

// Empty returns a message with no fields set.
func Empty(desc *schema.MessageDescriptor) *Message {
	return &Message{desc: desc, values: map[int]Value{}}
}

// Kind implements Value.
func (*Message) Kind() schema.Kind { return schema.KindMessage }

// String renders the message in compact literal syntax.
func (m *Message) String() string { return Format(m) }

func (*Message) sealed() {}

// Descriptor returns the message type.
func (m *Message) Descriptor() *schema.MessageDescriptor { return m.desc }

// Has reports whether field id is present.
func (m *Message) Has(id int) bool {
	_, ok := m.values[id]
	return ok
}

// Get returns the value of field id if present.
func (m *Message) Get(id int) (Value, bool) {
	v, ok := m.values[id]
	return v, ok
}

// GetByName returns the value of the named field if present.
func (m *Message) GetByName(name string) (Value, bool) {
	f := m.desc.FieldByName(name)
	if f == nil {
		return nil, false
	}
	return m.Get(f.ID)
}

// Len returns the number of present fields.
func (m *Message) Len() int { return len(m.values) }

// PresentFields returns the present fields in declaration order.
func (m *Message) PresentFields() []*schema.Field {
	var out []*schema.Field
	for _, f := range m.desc.Fields() {
		if _, ok := m.values[f.ID]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Mutate returns a builder seeded with this message's fields.
func (m *Message) Mutate() *Builder {
	b := NewBuilder(m.desc)
	for id, v := range m.values {
		b.values[id] = v
	}
	return b
}

// Equal reports whether both messages have the same type and fields.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if !schema.Same(m.desc, other.desc) || len(m.values) != len(other.values) {
		return false
	}
	for id, v := range m.values {
		o, ok := other.values[id]
		if !ok || !Equal(v, o) {
			return false
		}
	}
	return true
}

// Validate checks required fields, recursing into present message fields.
// Unions must have exactly one field set.
func (m *Message) Validate() error {
	return m.validate().AsError()
}

func (m *Message) validate() *schema.ValidationErrors {
	errs := &schema.ValidationErrors{}
	if m.desc.IsUnion() && len(m.values) != 1 {
		errs.Add("", "union "+m.desc.QualifiedName()+" must have exactly one field set")
	}
	for _, f := range m.desc.Fields() {
		v, ok := m.values[f.ID]
		if !ok {
			if f.Requirement == schema.Required && !m.desc.IsUnion() {
				errs.Errors = append(errs.Errors, schema.NewRequiredError(f.Name))
			}
			continue
		}
		if sub, ok := v.(*Message); ok {
			errs.Merge(f.Name, sub.validate())
		}
	}
	return errs
}
