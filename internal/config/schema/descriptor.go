// Package schema describes the types that configuration values are built
// against.
//
// A Descriptor identifies a type as a primitive kind, a declared enum, a
// declared struct or union, or a list, set or map of other descriptors.
// Declared types are collected in a Registry and looked up by their
// qualified name ("package.Name").
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Descriptor is the common interface of all type descriptors.
type Descriptor interface {
	// Kind returns the shape of the type.
	Kind() Kind
	// QualifiedName returns "package.Name" for declared types and the
	// type expression (e.g. "list<i32>") for everything else.
	QualifiedName() string
}

// Declared is a named type that can be registered in a Registry.
type Declared interface {
	Descriptor
	// Package returns the package the type is declared in.
	Package() string
	// Name returns the type name without package.
	Name() string
}

// Primitive describes a scalar type.
type Primitive struct {
	kind Kind
}

// Kind implements Descriptor.
func (p Primitive) Kind() Kind { return p.kind }

// QualifiedName implements Descriptor.
func (p Primitive) QualifiedName() string { return p.kind.String() }

// Primitive descriptors.
var (
	Bool   Descriptor = Primitive{KindBool}
	Byte   Descriptor = Primitive{KindByte}
	I16    Descriptor = Primitive{KindI16}
	I32    Descriptor = Primitive{KindI32}
	I64    Descriptor = Primitive{KindI64}
	Double Descriptor = Primitive{KindDouble}
	String Descriptor = Primitive{KindString}
	Binary Descriptor = Primitive{KindBinary}
)

// ListDescriptor describes list<Item>.
type ListDescriptor struct {
	Item Descriptor
}

// ListOf returns a list descriptor.
func ListOf(item Descriptor) *ListDescriptor { return &ListDescriptor{Item: item} }

// Kind implements Descriptor.
func (d *ListDescriptor) Kind() Kind { return KindList }

// QualifiedName implements Descriptor.
func (d *ListDescriptor) QualifiedName() string {
	return "list<" + d.Item.QualifiedName() + ">"
}

// SetDescriptor describes set<Item>.
type SetDescriptor struct {
	Item Descriptor
}

// SetOf returns a set descriptor.
func SetOf(item Descriptor) *SetDescriptor { return &SetDescriptor{Item: item} }

// Kind implements Descriptor.
func (d *SetDescriptor) Kind() Kind { return KindSet }

// QualifiedName implements Descriptor.
func (d *SetDescriptor) QualifiedName() string {
	return "set<" + d.Item.QualifiedName() + ">"
}

// MapDescriptor describes map<Key,Value>.
type MapDescriptor struct {
	Key   Descriptor
	Value Descriptor
}

// MapOf returns a map descriptor.
func MapOf(key, val Descriptor) *MapDescriptor { return &MapDescriptor{Key: key, Value: val} }

// Kind implements Descriptor.
func (d *MapDescriptor) Kind() Kind { return KindMap }

// QualifiedName implements Descriptor.
func (d *MapDescriptor) QualifiedName() string {
	return "map<" + d.Key.QualifiedName() + "," + d.Value.QualifiedName() + ">"
}

// EnumItem is one named constant of an enum.
type EnumItem struct {
	Name string
	ID   int32
}

// EnumDescriptor describes a declared enum.
type EnumDescriptor struct {
	pkg    string
	name   string
	items  []EnumItem
	byName map[string]int
	byID   map[int32]int
}

// NewEnum creates an enum descriptor. Items keep their declaration order.
func NewEnum(pkg, name string, items ...EnumItem) *EnumDescriptor {
	d := &EnumDescriptor{
		pkg:    pkg,
		name:   name,
		items:  make([]EnumItem, 0, len(items)),
		byName: make(map[string]int, len(items)),
		byID:   make(map[int32]int, len(items)),
	}
	for _, it := range items {
		d.byName[it.Name] = len(d.items)
		d.byID[it.ID] = len(d.items)
		d.items = append(d.items, it)
	}
	return d
}

// Kind implements Descriptor.
func (d *EnumDescriptor) Kind() Kind { return KindEnum }

// Package implements Declared.
func (d *EnumDescriptor) Package() string { return d.pkg }

// Name implements Declared.
func (d *EnumDescriptor) Name() string { return d.name }

// QualifiedName implements Descriptor.
func (d *EnumDescriptor) QualifiedName() string { return qualify(d.pkg, d.name) }

// Items returns the enum constants in declaration order.
func (d *EnumDescriptor) Items() []EnumItem {
	out := make([]EnumItem, len(d.items))
	copy(out, d.items)
	return out
}

// FindByName looks up a constant by its exact name.
func (d *EnumDescriptor) FindByName(name string) (EnumItem, bool) {
	i, ok := d.byName[name]
	if !ok {
		return EnumItem{}, false
	}
	return d.items[i], true
}

// FindByID looks up a constant by its numeric id.
func (d *EnumDescriptor) FindByID(id int32) (EnumItem, bool) {
	i, ok := d.byID[id]
	if !ok {
		return EnumItem{}, false
	}
	return d.items[i], true
}

// Suggest returns a constant whose name matches ignoring case.
func (d *EnumDescriptor) Suggest(name string) (EnumItem, bool) {
	for _, it := range d.items {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	return EnumItem{}, false
}

// Variant distinguishes structs from unions.
type Variant uint8

const (
	// VariantStruct allows any combination of fields to be set.
	VariantStruct Variant = iota
	// VariantUnion allows at most one field to be set.
	VariantUnion
)

// String returns the variant name.
func (v Variant) String() string {
	if v == VariantUnion {
		return "union"
	}
	return "struct"
}

// Requirement is the presence requirement of a field.
type Requirement uint8

const (
	// Optional fields may be absent.
	Optional Requirement = iota
	// Required fields must be present for the record to validate.
	Required
	// Default fields are optional but always read as their default.
	Default
)

// String returns the requirement name.
func (r Requirement) String() string {
	switch r {
	case Required:
		return "required"
	case Default:
		return "default"
	default:
		return "optional"
	}
}

// ParseRequirement parses a requirement name. The empty string is optional.
func ParseRequirement(s string) (Requirement, error) {
	switch strings.ToLower(s) {
	case "", "optional":
		return Optional, nil
	case "required":
		return Required, nil
	case "default":
		return Default, nil
	}
	return Optional, fmt.Errorf("unknown requirement %q", s)
}

// Field describes one field of a struct or union.
type Field struct {
	// ID is the numeric field id, unique within the message.
	ID int
	// Name is the field name used in config text and override paths.
	Name string
	// Requirement is the presence requirement.
	Requirement Requirement
	// Type is the value descriptor.
	Type Descriptor
	// Default is the raw default value, if any. It is coerced to Type
	// when read.
	Default any
}

// MessageDescriptor describes a declared struct or union.
type MessageDescriptor struct {
	pkg     string
	name    string
	variant Variant
	fields  []*Field
	byName  map[string]*Field
	byID    map[int]*Field
}

// NewMessage creates a message descriptor with no fields. Fields are added
// with AddField, which allows self-referencing and mutually recursive types.
func NewMessage(pkg, name string, variant Variant) *MessageDescriptor {
	return &MessageDescriptor{
		pkg:     pkg,
		name:    name,
		variant: variant,
		byName:  make(map[string]*Field),
		byID:    make(map[int]*Field),
	}
}

// AddField appends a field. Duplicate ids or names are rejected.
func (d *MessageDescriptor) AddField(f Field) error {
	if f.Type == nil {
		return fmt.Errorf("%w: field %s.%s has no type", ErrInvalidField, d.QualifiedName(), f.Name)
	}
	if _, ok := d.byName[f.Name]; ok {
		return fmt.Errorf("%w: duplicate field name %s in %s", ErrInvalidField, f.Name, d.QualifiedName())
	}
	if _, ok := d.byID[f.ID]; ok {
		return fmt.Errorf("%w: duplicate field id %d in %s", ErrInvalidField, f.ID, d.QualifiedName())
	}
	fp := &f
	d.fields = append(d.fields, fp)
	d.byName[f.Name] = fp
	d.byID[f.ID] = fp
	return nil
}

// Kind implements Descriptor.
func (d *MessageDescriptor) Kind() Kind { return KindMessage }

// Package implements Declared.
func (d *MessageDescriptor) Package() string { return d.pkg }

// Name implements Declared.
func (d *MessageDescriptor) Name() string { return d.name }

// QualifiedName implements Descriptor.
func (d *MessageDescriptor) QualifiedName() string { return qualify(d.pkg, d.name) }

// Variant returns whether the message is a struct or a union.
func (d *MessageDescriptor) Variant() Variant { return d.variant }

// IsUnion is a shorthand for Variant() == VariantUnion.
func (d *MessageDescriptor) IsUnion() bool { return d.variant == VariantUnion }

// Fields returns the fields in declaration order.
func (d *MessageDescriptor) Fields() []*Field {
	out := make([]*Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// FieldByName returns the named field or nil.
func (d *MessageDescriptor) FieldByName(name string) *Field {
	return d.byName[name]
}

// FieldByID returns the field with the given id or nil.
func (d *MessageDescriptor) FieldByID(id int) *Field {
	return d.byID[id]
}

// FieldIDs returns all field ids in ascending order.
func (d *MessageDescriptor) FieldIDs() []int {
	ids := make([]int, 0, len(d.byID))
	for id := range d.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Same reports whether two descriptors describe the same type. Declared
// types compare by qualified name, containers structurally.
func Same(a, b Descriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *ListDescriptor:
		return Same(x.Item, b.(*ListDescriptor).Item)
	case *SetDescriptor:
		return Same(x.Item, b.(*SetDescriptor).Item)
	case *MapDescriptor:
		y := b.(*MapDescriptor)
		return Same(x.Key, y.Key) && Same(x.Value, y.Value)
	}
	return a.QualifiedName() == b.QualifiedName()
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
