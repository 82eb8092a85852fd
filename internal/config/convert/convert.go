// Package convert coerces values to a declared type.
//
// AsType is the single kind dispatcher shared by reference resolution in the
// parser, the typed override engine and default value materialisation. It
// accepts Values as well as plain Go values (bool, integers, floats, string,
// []byte, []any, map[string]any) as produced by schema documents.
package convert

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// Error categories. Conversion failures are *Error values wrapping one of
// these.
var (
	// ErrOutOfRange indicates a number does not fit the target kind.
	ErrOutOfRange = errors.New("value out of range")

	// ErrIncompatible indicates the source cannot represent the target kind.
	ErrIncompatible = errors.New("incompatible value")

	// ErrUnknownEnumValue indicates no enum constant matches.
	ErrUnknownEnumValue = errors.New("unknown enum value")
)

// Error describes a failed conversion.
type Error struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the error category.
func (e *Error) Unwrap() error { return e.Err }

func fail(category error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Err: category}
}

// AsType converts v to a value of type d. A nil input yields a nil value.
func AsType(d schema.Descriptor, v any) (value.Value, error) {
	if v == nil {
		return nil, nil
	}
	if vv, ok := v.(value.Value); ok && isAbsent(vv) {
		return nil, nil
	}

	switch d.Kind() {
	case schema.KindBool:
		return asBool(v)
	case schema.KindByte, schema.KindI16, schema.KindI32, schema.KindI64:
		return asInteger(d.Kind(), v)
	case schema.KindDouble:
		return asDouble(v)
	case schema.KindString:
		return asString(v)
	case schema.KindBinary:
		return asBinary(v)
	case schema.KindEnum:
		return asEnum(d.(*schema.EnumDescriptor), v)
	case schema.KindMessage:
		return asMessage(d.(*schema.MessageDescriptor), v)
	case schema.KindList:
		items, err := asItems(d.(*schema.ListDescriptor).Item, v, d)
		if err != nil {
			return nil, err
		}
		return value.NewList(items...), nil
	case schema.KindSet:
		items, err := asItems(d.(*schema.SetDescriptor).Item, v, d)
		if err != nil {
			return nil, err
		}
		return value.NewSet(items...), nil
	case schema.KindMap:
		return asMap(d.(*schema.MapDescriptor), v)
	}
	return nil, incompatible(v, d)
}

// Default returns the default value of f coerced to its type, or nil.
func Default(f *schema.Field) (value.Value, error) {
	if f.Default == nil {
		return nil, nil
	}
	v, err := AsType(f.Type, f.Default)
	if err != nil {
		return nil, fmt.Errorf("default of field %s: %w", f.Name, err)
	}
	return v, nil
}

func isAbsent(v value.Value) bool {
	switch x := v.(type) {
	case *value.Message:
		return x == nil
	case *value.List:
		return x == nil
	case *value.Set:
		return x == nil
	case *value.Map:
		return x == nil
	}
	return false
}

func typeName(v any) string {
	if vv, ok := v.(value.Value); ok {
		return value.TypeName(vv)
	}
	return fmt.Sprintf("%T", v)
}

func incompatible(v any, d schema.Descriptor) *Error {
	return fail(ErrIncompatible, "Unable to convert %s to %s", typeName(v), d.QualifiedName())
}

// number classifies numeric inputs. isReal is set for floating point
// sources.
func number(v any) (i int64, f float64, isReal, ok bool) {
	switch x := v.(type) {
	case value.Byte, value.I16, value.I32, value.I64:
		n, _ := value.Int(x.(value.Value))
		return n, float64(n), false, true
	case value.Double:
		return 0, float64(x), true, true
	case int:
		return int64(x), float64(x), false, true
	case int8:
		return int64(x), float64(x), false, true
	case int16:
		return int64(x), float64(x), false, true
	case int32:
		return int64(x), float64(x), false, true
	case int64:
		return x, float64(x), false, true
	case uint8:
		return int64(x), float64(x), false, true
	case uint16:
		return int64(x), float64(x), false, true
	case uint32:
		return int64(x), float64(x), false, true
	case uint64:
		if x > math.MaxInt64 {
			return 0, float64(x), true, true
		}
		return int64(x), float64(x), false, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, float64(x), true, true
		}
		return int64(x), float64(x), false, true
	case float32:
		return 0, float64(x), true, true
	case float64:
		return 0, x, true, true
	}
	return 0, 0, false, false
}

func stringOf(v any) (string, bool) {
	switch x := v.(type) {
	case value.String:
		return string(x), true
	case string:
		return x, true
	}
	return "", false
}

// ParseBool parses the boolean word forms accepted when coercing strings:
// 1, t, true, y, yes and 0, f, false, n, no, ignoring case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes":
		return true, true
	case "0", "f", "false", "n", "no":
		return false, true
	}
	return false, false
}

func asBool(v any) (value.Value, error) {
	switch x := v.(type) {
	case value.Bool:
		return x, nil
	case bool:
		return value.Bool(x), nil
	}
	if s, ok := stringOf(v); ok {
		b, ok := ParseBool(s)
		if !ok {
			return nil, fail(ErrIncompatible, "Unable to parse the string %q to boolean", s)
		}
		return value.Bool(b), nil
	}
	if i, _, isReal, ok := number(v); ok {
		if isReal {
			return nil, fail(ErrIncompatible, "Unable to convert real value to boolean")
		}
		return value.Bool(i != 0), nil
	}
	return nil, incompatible(v, schema.Bool)
}

// CheckRange verifies that n fits integer kind k.
func CheckRange(k schema.Kind, n int64) error {
	lo, hi := k.IntRange()
	if n < lo {
		return fail(ErrOutOfRange, "%s value out of bounds: %d < %d", k, n, lo)
	}
	if n > hi {
		return fail(ErrOutOfRange, "%s value out of bounds: %d > %d", k, n, hi)
	}
	return nil
}

// Integer wraps n as a value of integer kind k. The caller checks range.
func Integer(k schema.Kind, n int64) value.Value {
	switch k {
	case schema.KindByte:
		return value.Byte(n)
	case schema.KindI16:
		return value.I16(n)
	case schema.KindI32:
		return value.I32(n)
	default:
		return value.I64(n)
	}
}

func asInteger(k schema.Kind, v any) (value.Value, error) {
	var n int64
	switch x := v.(type) {
	case value.Bool:
		if x {
			n = 1
		}
	case bool:
		if x {
			n = 1
		}
	case value.Enum:
		n = int64(x.ID)
	default:
		if s, ok := stringOf(v); ok {
			parsed, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
			if err != nil {
				return nil, fail(ErrIncompatible, "Unable to parse the string %q to %s", s, k)
			}
			n = parsed
			break
		}
		i, f, isReal, ok := number(v)
		if !ok {
			return nil, incompatible(v, primitive(k))
		}
		if isReal {
			if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, fail(ErrIncompatible, "Truncating integer decimals from %s", value.FormatDouble(f))
			}
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return nil, fail(ErrOutOfRange, "%s value out of bounds: %s", k, value.FormatDouble(f))
			}
			i = int64(f)
		}
		n = i
	}
	if err := CheckRange(k, n); err != nil {
		return nil, err
	}
	return Integer(k, n), nil
}

func primitive(k schema.Kind) schema.Descriptor {
	switch k {
	case schema.KindByte:
		return schema.Byte
	case schema.KindI16:
		return schema.I16
	case schema.KindI32:
		return schema.I32
	}
	return schema.I64
}

func asDouble(v any) (value.Value, error) {
	if s, ok := stringOf(v); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fail(ErrIncompatible, "Unable to parse the string %q to double", s)
		}
		return value.Double(f), nil
	}
	if _, f, _, ok := number(v); ok {
		return value.Double(f), nil
	}
	return nil, incompatible(v, schema.Double)
}

func asString(v any) (value.Value, error) {
	switch x := v.(type) {
	case value.String:
		return x, nil
	case string:
		return value.String(x), nil
	case value.Bool:
		return value.String(strconv.FormatBool(bool(x))), nil
	case bool:
		return value.String(strconv.FormatBool(x)), nil
	case value.Enum:
		return value.String(x.Name), nil
	case value.Double:
		return value.String(value.FormatDouble(float64(x))), nil
	}
	if i, f, isReal, ok := number(v); ok {
		if isReal {
			return value.String(value.FormatDouble(f)), nil
		}
		return value.String(strconv.FormatInt(i, 10)), nil
	}
	return nil, incompatible(v, schema.String)
}

func asBinary(v any) (value.Value, error) {
	switch x := v.(type) {
	case value.Binary:
		return x, nil
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return value.Binary(out), nil
	}
	return nil, incompatible(v, schema.Binary)
}

func asEnum(d *schema.EnumDescriptor, v any) (value.Value, error) {
	var (
		item  schema.EnumItem
		found bool
		desc  string
	)
	switch x := v.(type) {
	case value.Enum:
		if schema.Same(d, x.Type) {
			return x, nil
		}
		item, found = d.FindByName(x.Name)
		desc = x.Name
	default:
		if s, ok := stringOf(v); ok {
			item, found = d.FindByName(s)
			desc = s
			break
		}
		i, _, isReal, ok := number(v)
		if !ok || isReal {
			return nil, incompatible(v, d)
		}
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			item, found = d.FindByID(int32(i))
		}
		desc = strconv.FormatInt(i, 10)
	}
	if !found {
		return nil, fail(ErrUnknownEnumValue, "Unknown %s value: %s", d.QualifiedName(), desc)
	}
	return value.NewEnum(d, item), nil
}

func asMessage(d *schema.MessageDescriptor, v any) (value.Value, error) {
	switch x := v.(type) {
	case *value.Message:
		if !schema.Same(d, x.Descriptor()) {
			return nil, fail(ErrIncompatible, "Message type mismatch: %s is not compatible with %s",
				x.Descriptor().QualifiedName(), d.QualifiedName())
		}
		return x, nil
	case map[string]any:
		b := value.NewBuilder(d)
		for name, raw := range x {
			f := d.FieldByName(name)
			if f == nil {
				return nil, fail(ErrIncompatible, "Message %s has no field named %s", d.QualifiedName(), name)
			}
			fv, err := AsType(f.Type, raw)
			if err != nil {
				return nil, err
			}
			if err := b.Set(f.ID, fv); err != nil {
				return nil, err
			}
		}
		return b.Build(), nil
	}
	return nil, incompatible(v, d)
}

func asItems(item schema.Descriptor, v any, d schema.Descriptor) ([]value.Value, error) {
	var raw []any
	switch x := v.(type) {
	case *value.List:
		for _, it := range x.Items() {
			raw = append(raw, it)
		}
	case *value.Set:
		for _, it := range x.Items() {
			raw = append(raw, it)
		}
	case []any:
		raw = x
	case []string:
		for _, s := range x {
			raw = append(raw, s)
		}
	default:
		return nil, incompatible(v, d)
	}

	out := make([]value.Value, 0, len(raw))
	for _, r := range raw {
		it, err := AsType(item, r)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func asMap(d *schema.MapDescriptor, v any) (value.Value, error) {
	b := value.NewMapBuilder()
	switch x := v.(type) {
	case *value.Map:
		for _, e := range x.Entries() {
			if err := putEntry(b, d, e.Key, e.Value); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for k, raw := range x {
			if err := putEntry(b, d, k, raw); err != nil {
				return nil, err
			}
		}
	default:
		return nil, incompatible(v, d)
	}
	return b.Build(), nil
}

func putEntry(b *value.MapBuilder, d *schema.MapDescriptor, k, v any) error {
	key, err := AsType(d.Key, k)
	if err != nil {
		return err
	}
	val, err := AsType(d.Value, v)
	if err != nil {
		return err
	}
	b.Put(key, val)
	return nil
}
