package schema

import (
	"errors"
	"testing"
)

func TestMessageDescriptor_FieldPath(t *testing.T) {
	inner := NewStructBuilder("app", "Inner").
		Optional(1, "c", I32).
		Build()
	mid := NewStructBuilder("app", "Mid").
		Optional(1, "b", inner).
		Optional(2, "n", I32).
		Build()
	root := NewStructBuilder("app", "Root").
		Optional(1, "a", mid).
		Build()

	fields, err := root.FieldPath(SplitPath("a.b.c"))
	if err != nil {
		t.Fatalf("FieldPath(a.b.c) failed: %v", err)
	}
	if len(fields) != 3 || fields[2].Name != "c" {
		t.Errorf("FieldPath(a.b.c) = %v", fields)
	}

	tests := []struct {
		path    string
		want    error
		message string
	}{
		{"a.x.c", ErrNoSuchField, "Message app.Mid has no field named x"},
		{"a.n.c", ErrNotMessageField, "Field 'n' is not of message type in app.Mid"},
		{"z", ErrNoSuchField, "Message app.Root has no field named z"},
	}

	for _, tt := range tests {
		_, err := root.FieldPath(SplitPath(tt.path))
		if !errors.Is(err, tt.want) {
			t.Errorf("FieldPath(%s) err = %v, want %v", tt.path, err, tt.want)
			continue
		}
		if err.Error() != tt.message {
			t.Errorf("FieldPath(%s) message = %q, want %q", tt.path, err.Error(), tt.message)
		}
	}
}
