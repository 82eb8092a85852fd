// Package override applies dotted-path overrides to built records.
//
// An override key names a field path from the root record, such as
// "db.pool.size". Every segment but the last must be a message field; the
// last segment is the field to set or clear. Two engines share the path
// navigation: ApplyValues takes values that are already typed, and
// ApplyStrings parses raw text with the config value grammar.
//
// Policy for incomplete paths:
//
//   - Setting a leaf below an unset message field creates the intermediate
//     message.
//   - Clearing a leaf below an unset message field is a no-op.
//   - A segment that names no field, or an intermediate that is not a
//     message field, fails in strict mode and is skipped otherwise.
//   - An out of range number fails in strict mode and is skipped otherwise.
//   - A malformed value always fails.
package override

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/typedconf/internal/config/lexer"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// UndefinedText is the override text that clears a field.
const UndefinedText = "undefined"

// Overrides is an ordered mapping from field path to override value.
// Iteration follows insertion order; putting an existing key replaces its
// value and keeps its position.
type Overrides[V any] struct {
	keys   []string
	values map[string]V
}

// New creates an empty override set.
func New[V any]() *Overrides[V] {
	return &Overrides[V]{values: make(map[string]V)}
}

// FromMap creates an override set from m with keys in sorted order.
func FromMap[V any](m map[string]V) *Overrides[V] {
	o := New[V]()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.Put(k, m[k])
	}
	return o
}

// Put sets the override for key.
func (o *Overrides[V]) Put(key string, v V) *Overrides[V] {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// PutAll copies every override of other, in order.
func (o *Overrides[V]) PutAll(other *Overrides[V]) *Overrides[V] {
	if other == nil {
		return o
	}
	for _, k := range other.keys {
		o.Put(k, other.values[k])
	}
	return o
}

// Get returns the override for key.
func (o *Overrides[V]) Get(key string) (V, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Overrides[V]) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of overrides.
func (o *Overrides[V]) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// ParseAssignments reads "path=value" pairs such as those given on a
// command line. The value is everything after the first '='.
func ParseAssignments(pairs []string) (*Overrides[string], error) {
	o := New[string]()
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid override %q, expected path=value", p)
		}
		o.Put(key, val)
	}
	return o, nil
}

// Error describes a failed override.
type Error struct {
	// Key is the override path.
	Key string
	// Err is the cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()
	var le *lexer.Error
	if errors.As(e.Err, &le) {
		msg = le.Message
	}
	return fmt.Sprintf("%s [%s]", msg, e.Key)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

type pathError struct {
	msg string
	err error
}

func (e *pathError) Error() string { return e.msg }
func (e *pathError) Unwrap() error { return e.err }

// resolve maps key to its chain of fields using descriptors only. A nil
// chain with a nil error means the override is skipped.
func resolve(desc *schema.MessageDescriptor, key string, strict bool) ([]*schema.Field, error) {
	segments := schema.SplitPath(key)
	chain := make([]*schema.Field, 0, len(segments))
	for i, name := range segments {
		f := desc.FieldByName(name)
		if f == nil {
			if strict {
				return nil, &pathError{
					msg: fmt.Sprintf("No such field %s in %s", name, desc.QualifiedName()),
					err: schema.ErrNoSuchField,
				}
			}
			return nil, nil
		}
		chain = append(chain, f)
		if i == len(segments)-1 {
			break
		}
		next, ok := f.Type.(*schema.MessageDescriptor)
		if !ok {
			if strict {
				return nil, &pathError{
					msg: fmt.Sprintf("'%s' is not a message field in %s", name, desc.QualifiedName()),
					err: schema.ErrNotMessageField,
				}
			}
			return nil, nil
		}
		desc = next
	}
	return chain, nil
}

// descend returns the builder that holds the last field of chain. Unset
// intermediate messages are created when create is set; otherwise an unset
// intermediate yields a nil builder.
func descend(root *value.Builder, chain []*schema.Field, create bool) (*value.Builder, error) {
	b := root
	for _, f := range chain[:len(chain)-1] {
		if !create && !b.Has(f.ID) {
			return nil, nil
		}
		next, err := b.Mutator(f.ID)
		if err != nil {
			return nil, err
		}
		b = next
	}
	return b, nil
}
