package convert

import (
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// Lookup reads a dotted field path from m. Unset fields along the path read
// as their default value; an unset intermediate record behaves as an empty
// one. Path errors are *schema.PathError values.
func Lookup(m *value.Message, path string) (value.Value, error) {
	fields, err := m.Descriptor().FieldPath(schema.SplitPath(path))
	if err != nil {
		return nil, err
	}

	cur := m
	for i, f := range fields {
		v, ok := cur.Get(f.ID)
		if !ok {
			if v, err = Default(f); err != nil {
				return nil, err
			}
		}
		if i == len(fields)-1 {
			return v, nil
		}
		next, ok := v.(*value.Message)
		if !ok || next == nil {
			next = value.Empty(f.Type.(*schema.MessageDescriptor))
		}
		cur = next
	}
	return nil, nil
}
