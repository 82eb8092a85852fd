// Package value is the in-memory model of schema-typed configuration.
//
// Value is a closed set of types mirroring the descriptor kinds: Bool, Byte,
// I16, I32, I64, Double, String, Binary, Enum, *Message, *List, *Set and
// *Map. Messages are immutable; a Builder stages changes and produces a new
// Message with Build.
package value

import (
	"bytes"
	"errors"

	"github.com/dshills/typedconf/internal/config/schema"
)

// ErrKindMismatch indicates a value does not fit the declared field type.
var ErrKindMismatch = errors.New("value kind mismatch")

// ErrDescriptorMismatch indicates a merge between different message types.
var ErrDescriptorMismatch = errors.New("message descriptor mismatch")

// Value is a schema-typed value.
type Value interface {
	// Kind returns the kind of the value.
	Kind() schema.Kind
	// String renders the value in config literal syntax.
	String() string

	sealed()
}

// Bool is a boolean value.
type Bool bool

// Byte is a signed 8-bit value.
type Byte int8

// I16 is a signed 16-bit value.
type I16 int16

// I32 is a signed 32-bit value.
type I32 int32

// I64 is a signed 64-bit value.
type I64 int64

// Double is a 64-bit float value.
type Double float64

// String is a string value.
type String string

// Binary is an opaque byte sequence.
type Binary []byte

func (Bool) Kind() schema.Kind   { return schema.KindBool }
func (Byte) Kind() schema.Kind   { return schema.KindByte }
func (I16) Kind() schema.Kind    { return schema.KindI16 }
func (I32) Kind() schema.Kind    { return schema.KindI32 }
func (I64) Kind() schema.Kind    { return schema.KindI64 }
func (Double) Kind() schema.Kind { return schema.KindDouble }
func (String) Kind() schema.Kind { return schema.KindString }
func (Binary) Kind() schema.Kind { return schema.KindBinary }

func (v Bool) String() string   { return Format(v) }
func (v Byte) String() string   { return Format(v) }
func (v I16) String() string    { return Format(v) }
func (v I32) String() string    { return Format(v) }
func (v I64) String() string    { return Format(v) }
func (v Double) String() string { return Format(v) }
func (v String) String() string { return Format(v) }
func (v Binary) String() string { return Format(v) }

func (Bool) sealed()   {}
func (Byte) sealed()   {}
func (I16) sealed()    {}
func (I32) sealed()    {}
func (I64) sealed()    {}
func (Double) sealed() {}
func (String) sealed() {}
func (Binary) sealed() {}

// Enum is a constant of a declared enum.
type Enum struct {
	Type *schema.EnumDescriptor
	Name string
	ID   int32
}

// NewEnum creates an enum value from a descriptor item.
func NewEnum(d *schema.EnumDescriptor, item schema.EnumItem) Enum {
	return Enum{Type: d, Name: item.Name, ID: item.ID}
}

// Kind implements Value.
func (Enum) Kind() schema.Kind { return schema.KindEnum }

// String renders the enum constant name.
func (v Enum) String() string { return v.Name }

func (Enum) sealed() {}

// Int returns the integer value of an integer-kind value.
func Int(v Value) (int64, bool) {
	switch x := v.(type) {
	case Byte:
		return int64(x), true
	case I16:
		return int64(x), true
	case I32:
		return int64(x), true
	case I64:
		return int64(x), true
	}
	return 0, false
}

// Equal reports whether two values are equal. Lists compare in order; sets
// and maps compare regardless of order; messages compare field by field.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Binary:
		return bytes.Equal(x, b.(Binary))
	case Enum:
		y := b.(Enum)
		return x.ID == y.ID && x.Name == y.Name && schema.Same(x.Type, y.Type)
	case *Message:
		return x.Equal(b.(*Message))
	case *List:
		y := b.(*List)
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Set:
		y := b.(*Set)
		if x.Len() != y.Len() {
			return false
		}
		for _, it := range x.items {
			if !y.Has(it) {
				return false
			}
		}
		return true
	case *Map:
		y := b.(*Map)
		if x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			other, ok := y.Get(k)
			if !ok || !Equal(x.vals[i], other) {
				return false
			}
		}
		return true
	}
	return a == b
}

// isNil treats typed nil pointers as absent values.
func isNil(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *Message:
		return x == nil
	case *List:
		return x == nil
	case *Set:
		return x == nil
	case *Map:
		return x == nil
	}
	return false
}

// Fits reports whether v may be stored in a field of type d.
func Fits(d schema.Descriptor, v Value) error {
	if v == nil || d == nil {
		return nil
	}
	if v.Kind() != d.Kind() {
		return kindError(d, v)
	}

	switch x := v.(type) {
	case Enum:
		if !schema.Same(d, x.Type) {
			return kindError(d, v)
		}
	case *Message:
		if !schema.Same(d, x.desc) {
			return kindError(d, v)
		}
	case *List:
		item := d.(*schema.ListDescriptor).Item
		for _, it := range x.items {
			if err := Fits(item, it); err != nil {
				return err
			}
		}
	case *Set:
		item := d.(*schema.SetDescriptor).Item
		for _, it := range x.items {
			if err := Fits(item, it); err != nil {
				return err
			}
		}
	case *Map:
		md := d.(*schema.MapDescriptor)
		for i := range x.keys {
			if err := Fits(md.Key, x.keys[i]); err != nil {
				return err
			}
			if err := Fits(md.Value, x.vals[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// TypeName names the type of a value for diagnostics.
func TypeName(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case Enum:
		return x.Type.QualifiedName()
	case *Message:
		return x.desc.QualifiedName()
	}
	return v.Kind().String()
}

func kindError(d schema.Descriptor, v Value) error {
	return &KindError{Expected: d.QualifiedName(), Actual: TypeName(v)}
}

// KindError is returned when a value does not match a descriptor.
type KindError struct {
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *KindError) Error() string {
	return "expected " + e.Expected + ", got " + e.Actual
}

// Is implements error matching for KindError.
func (e *KindError) Is(target error) bool {
	return target == ErrKindMismatch
}
