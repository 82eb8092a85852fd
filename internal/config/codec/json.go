// Package codec reads and writes already-built records as JSON.
//
// Messages are JSON objects keyed by field name; numeric field ids are
// accepted as keys when decoding. Enums are written by name and read by
// name or id, binary values are standard base64 strings, and maps are
// objects whose keys are the textual form of the map key.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// ErrInvalidJSON indicates the input is not well-formed JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Error reports a value that could not be decoded.
type Error struct {
	// Path is the dotted location of the value.
	Path string
	// Err is the cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// DecodeJSON reads a record of type desc. Unknown fields fail in strict mode
// and are ignored otherwise; null values leave the field unset.
func DecodeJSON(desc *schema.MessageDescriptor, data []byte, strict bool) (*value.Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	d := decoder{strict: strict}
	return d.message(desc, gjson.ParseBytes(data), "")
}

type decoder struct {
	strict bool
}

func (d decoder) message(desc *schema.MessageDescriptor, r gjson.Result, path string) (*value.Message, error) {
	if !r.IsObject() {
		return nil, &Error{Path: path, Err: fmt.Errorf("expected object for %s, got %s", desc.QualifiedName(), r.Type)}
	}

	b := value.NewBuilder(desc)
	var err error
	r.ForEach(func(key, val gjson.Result) bool {
		f := fieldFor(desc, key.String())
		if f == nil {
			if d.strict {
				err = &Error{Path: join(path, key.String()), Err: fmt.Errorf("%w: %s in %s",
					schema.ErrNoSuchField, key.String(), desc.QualifiedName())}
				return false
			}
			return true
		}

		var v value.Value
		v, err = d.value(f.Type, val, join(path, f.Name))
		if err != nil {
			return false
		}
		if err = b.Set(f.ID, v); err != nil {
			err = &Error{Path: join(path, f.Name), Err: err}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func fieldFor(desc *schema.MessageDescriptor, key string) *schema.Field {
	if f := desc.FieldByName(key); f != nil {
		return f
	}
	if id, err := strconv.Atoi(key); err == nil {
		return desc.FieldByID(id)
	}
	return nil
}

func (d decoder) value(desc schema.Descriptor, r gjson.Result, path string) (value.Value, error) {
	if r.Type == gjson.Null {
		return nil, nil
	}

	switch t := desc.(type) {
	case *schema.MessageDescriptor:
		return d.message(t, r, path)
	case *schema.ListDescriptor:
		items, err := d.items(t.Item, r, path)
		if err != nil {
			return nil, err
		}
		return value.NewList(items...), nil
	case *schema.SetDescriptor:
		items, err := d.items(t.Item, r, path)
		if err != nil {
			return nil, err
		}
		return value.NewSet(items...), nil
	case *schema.MapDescriptor:
		return d.mapping(t, r, path)
	}

	if desc.Kind() == schema.KindBinary {
		if r.Type != gjson.String {
			return nil, &Error{Path: path, Err: fmt.Errorf("expected base64 string, got %s", r.Type)}
		}
		data, err := base64.StdEncoding.DecodeString(r.Str)
		if err != nil {
			return nil, &Error{Path: path, Err: err}
		}
		return value.Binary(data), nil
	}

	raw, err := scalar(r)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	v, err := convert.AsType(desc, raw)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return v, nil
}

// scalar returns the Go value of a JSON scalar, keeping integers exact.
func scalar(r gjson.Result) (any, error) {
	switch r.Type {
	case gjson.True, gjson.False:
		return r.Bool(), nil
	case gjson.String:
		return r.Str, nil
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return n, nil
			}
		}
		return r.Float(), nil
	}
	return nil, fmt.Errorf("unexpected JSON %s", r.Type)
}

func (d decoder) items(item schema.Descriptor, r gjson.Result, path string) ([]value.Value, error) {
	if !r.IsArray() {
		return nil, &Error{Path: path, Err: fmt.Errorf("expected array, got %s", r.Type)}
	}
	var out []value.Value
	for i, it := range r.Array() {
		v, err := d.value(item, it, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func (d decoder) mapping(desc *schema.MapDescriptor, r gjson.Result, path string) (value.Value, error) {
	if !r.IsObject() {
		return nil, &Error{Path: path, Err: fmt.Errorf("expected object, got %s", r.Type)}
	}
	b := value.NewMapBuilder()
	var err error
	r.ForEach(func(key, val gjson.Result) bool {
		entry := fmt.Sprintf("%s[%s]", path, key.String())
		var k, v value.Value
		if k, err = mapKeyValue(desc.Key, key.String()); err != nil {
			err = &Error{Path: entry, Err: err}
			return false
		}
		if v, err = d.value(desc.Value, val, entry); err != nil {
			return false
		}
		if v != nil {
			b.Put(k, v)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// mapKeyValue parses an object key. Enum keys may be a name or a numeric id.
func mapKeyValue(desc schema.Descriptor, key string) (value.Value, error) {
	if ed, ok := desc.(*schema.EnumDescriptor); ok {
		if _, found := ed.FindByName(key); !found {
			if id, err := strconv.ParseInt(key, 10, 64); err == nil {
				return convert.AsType(ed, id)
			}
		}
	}
	return convert.AsType(desc, key)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + schema.PathSeparator + name
}

// EncodeJSON writes m as compact JSON, or indented JSON when indent is set.
func EncodeJSON(m *value.Message, indent bool) ([]byte, error) {
	out, err := encodeMessage(m)
	if err != nil {
		return nil, err
	}
	if indent {
		return pretty.PrettyOptions(out, &pretty.Options{Width: 80, Indent: "  "}), nil
	}
	return out, nil
}

func encodeMessage(m *value.Message) ([]byte, error) {
	out := []byte("{}")
	for _, f := range m.PresentFields() {
		v, _ := m.Get(f.ID)
		raw, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if out, err = sjson.SetRawBytes(out, f.Name, raw); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeValue(v value.Value) ([]byte, error) {
	switch x := v.(type) {
	case value.Bool:
		return strconv.AppendBool(nil, bool(x)), nil
	case value.Byte, value.I16, value.I32, value.I64:
		n, _ := value.Int(x)
		return strconv.AppendInt(nil, n, 10), nil
	case value.Double:
		f := float64(x)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("unsupported double value %v", f)
		}
		return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
	case value.String:
		return json.Marshal(string(x))
	case value.Binary:
		return json.Marshal(base64.StdEncoding.EncodeToString(x))
	case value.Enum:
		return json.Marshal(x.Name)
	case *value.Message:
		return encodeMessage(x)
	case *value.List:
		return encodeItems(x.Items())
	case *value.Set:
		return encodeItems(x.Items())
	case *value.Map:
		return encodeMap(x)
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func encodeItems(items []value.Value) ([]byte, error) {
	out := []byte{'['}
	for i, it := range items {
		if i > 0 {
			out = append(out, ',')
		}
		raw, err := encodeValue(it)
		if err != nil {
			return nil, err
		}
		out = append(out, raw...)
	}
	return append(out, ']'), nil
}

func encodeMap(m *value.Map) ([]byte, error) {
	out := []byte{'{'}
	for i, e := range m.Entries() {
		if i > 0 {
			out = append(out, ',')
		}
		key, err := json.Marshal(mapKey(e.Key))
		if err != nil {
			return nil, err
		}
		raw, err := encodeValue(e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, raw...)
	}
	return append(out, '}'), nil
}

// mapKey is the object key for a map key value.
func mapKey(k value.Value) string {
	switch x := k.(type) {
	case value.String:
		return string(x)
	case value.Enum:
		return x.Name
	case value.Binary:
		return base64.StdEncoding.EncodeToString(x)
	}
	return value.Format(k)
}
