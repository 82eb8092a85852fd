package schema

import (
	"errors"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindBool, "bool"},
		{KindByte, "byte"},
		{KindI64, "i64"},
		{KindBinary, "binary"},
		{KindMessage, "message"},
		{KindMap, "map"},
		{Kind(0), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKind_IntRange(t *testing.T) {
	tests := []struct {
		kind   Kind
		lo, hi int64
	}{
		{KindByte, -128, 127},
		{KindI16, -32768, 32767},
		{KindI32, -2147483648, 2147483647},
	}

	for _, tt := range tests {
		lo, hi := tt.kind.IntRange()
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("%s.IntRange() = %d..%d, want %d..%d", tt.kind, lo, hi, tt.lo, tt.hi)
		}
	}
}

func TestEnumDescriptor_Find(t *testing.T) {
	e := NewEnum("app", "Level",
		EnumItem{Name: "LOW", ID: 1},
		EnumItem{Name: "HIGH", ID: 5},
	)

	if e.QualifiedName() != "app.Level" {
		t.Errorf("QualifiedName() = %q", e.QualifiedName())
	}
	if it, ok := e.FindByName("HIGH"); !ok || it.ID != 5 {
		t.Errorf("FindByName(HIGH) = %v, %v", it, ok)
	}
	if _, ok := e.FindByName("high"); ok {
		t.Error("FindByName is case sensitive")
	}
	if it, ok := e.FindByID(1); !ok || it.Name != "LOW" {
		t.Errorf("FindByID(1) = %v, %v", it, ok)
	}
	if it, ok := e.Suggest("high"); !ok || it.Name != "HIGH" {
		t.Errorf("Suggest(high) = %v, %v", it, ok)
	}
	if len(e.Items()) != 2 {
		t.Errorf("Items() = %v", e.Items())
	}
}

func TestMessageDescriptor_AddField(t *testing.T) {
	d := NewMessage("app", "Server", VariantStruct)

	if err := d.AddField(Field{ID: 1, Name: "port", Type: I32}); err != nil {
		t.Fatalf("AddField failed: %v", err)
	}
	if err := d.AddField(Field{ID: 1, Name: "other", Type: I32}); !errors.Is(err, ErrInvalidField) {
		t.Errorf("duplicate id err = %v", err)
	}
	if err := d.AddField(Field{ID: 2, Name: "port", Type: I32}); !errors.Is(err, ErrInvalidField) {
		t.Errorf("duplicate name err = %v", err)
	}
	if err := d.AddField(Field{ID: 3, Name: "untyped"}); !errors.Is(err, ErrInvalidField) {
		t.Errorf("missing type err = %v", err)
	}

	if d.FieldByName("port") == nil || d.FieldByID(1) == nil {
		t.Error("field lookup failed")
	}
	if d.FieldByName("missing") != nil {
		t.Error("FieldByName(missing) should be nil")
	}
}

func TestBuilder(t *testing.T) {
	b := NewStructBuilder("app", "Node")
	// Self reference through a list.
	node := b.Optional(1, "name", String).
		Optional(2, "children", ListOf(b.Descriptor())).
		WithDefault(3, "weight", Double, 1.5).
		Build()

	if node.Variant() != VariantStruct || node.IsUnion() {
		t.Error("expected struct variant")
	}
	children := node.FieldByName("children")
	if children.Type.(*ListDescriptor).Item != node {
		t.Error("expected recursive item type")
	}
	if w := node.FieldByName("weight"); w.Requirement != Default || w.Default != 1.5 {
		t.Errorf("weight field = %+v", w)
	}
	if ids := node.FieldIDs(); len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("FieldIDs() = %v", ids)
	}

	u := NewUnionBuilder("app", "Choice").Optional(1, "a", I32).Build()
	if !u.IsUnion() {
		t.Error("expected union variant")
	}

	if _, err := NewStructBuilder("app", "Bad").
		Optional(1, "a", I32).
		Optional(1, "b", I32).
		BuildE(); err == nil {
		t.Error("expected duplicate id error from BuildE")
	}
}

func TestSame(t *testing.T) {
	a := NewStructBuilder("app", "A").Build()
	a2 := NewStructBuilder("app", "A").Build()
	b := NewStructBuilder("app", "B").Build()

	tests := []struct {
		name string
		x, y Descriptor
		want bool
	}{
		{"primitive", I32, I32, true},
		{"primitive mismatch", I32, I64, false},
		{"declared same name", a, a2, true},
		{"declared other", a, b, false},
		{"list", ListOf(a), ListOf(a2), true},
		{"list vs set", ListOf(a), SetOf(a), false},
		{"map", MapOf(String, I32), MapOf(String, I32), true},
		{"map value", MapOf(String, I32), MapOf(String, I16), false},
		{"nil", nil, I32, false},
	}

	for _, tt := range tests {
		if got := Same(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: Same() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseRequirement(t *testing.T) {
	for in, want := range map[string]Requirement{
		"":         Optional,
		"optional": Optional,
		"Required": Required,
		"default":  Default,
	} {
		got, err := ParseRequirement(in)
		if err != nil || got != want {
			t.Errorf("ParseRequirement(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRequirement("sometimes"); err == nil {
		t.Error("expected error for unknown requirement")
	}
}
