package registry

import (
	"errors"
	"testing"

	"github.com/dshills/typedconf/internal/config/schema"
)

func newLevel() *schema.EnumDescriptor {
	return schema.NewEnum("app", "Level",
		schema.EnumItem{Name: "LOW", ID: 1},
		schema.EnumItem{Name: "HIGH", ID: 2},
	)
}

func TestRegistry_Register(t *testing.T) {
	r := New()

	if err := r.Register(newLevel()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Duplicate should fail
	err := r.Register(newLevel())
	if !errors.Is(err, schema.ErrDuplicateType) {
		t.Errorf("Register duplicate err = %v, want ErrDuplicateType", err)
	}
}

func TestRegistry_MustRegister_Panics(t *testing.T) {
	r := New()
	r.MustRegister(newLevel())

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for duplicate MustRegister")
		}
	}()

	r.MustRegister(newLevel())
}

func TestRegistry_Lookup(t *testing.T) {
	r := New()
	db := schema.NewStructBuilder("app", "Database").
		Required(1, "host", schema.String).
		Build()
	r.MustRegister(newLevel(), db)

	if _, err := r.Lookup("app.Database"); err != nil {
		t.Errorf("Lookup(app.Database) failed: %v", err)
	}
	if _, err := r.Lookup("app.Nope"); !errors.Is(err, schema.ErrNoSuchType) {
		t.Errorf("Lookup(app.Nope) err = %v, want ErrNoSuchType", err)
	}
	if _, err := r.LookupMessage("app.Level"); !errors.Is(err, schema.ErrNotMessage) {
		t.Errorf("LookupMessage(enum) err = %v, want ErrNotMessage", err)
	}
	if _, err := r.LookupEnum("app.Database"); !errors.Is(err, schema.ErrNotEnum) {
		t.Errorf("LookupEnum(struct) err = %v, want ErrNotEnum", err)
	}
	if md, err := r.LookupMessage("app.Database"); err != nil || md != db {
		t.Errorf("LookupMessage(app.Database) = %v, %v", md, err)
	}
}

func TestRegistry_NamesAndPackages(t *testing.T) {
	r := New()
	r.MustRegister(
		newLevel(),
		schema.NewStructBuilder("app", "Database").Build(),
		schema.NewStructBuilder("net", "Endpoint").Build(),
	)

	names := r.Names()
	want := []string{"app.Database", "app.Level", "net.Endpoint"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if got := r.Packages(); len(got) != 2 || got[0] != "app" || got[1] != "net" {
		t.Errorf("Packages() = %v", got)
	}
	if got := r.Package("app"); len(got) != 2 || got[0].Name() != "Database" {
		t.Errorf("Package(app) = %v", got)
	}
	if !r.Has("net.Endpoint") || r.Has("net.Missing") {
		t.Error("Has() mismatch")
	}
}

func TestRegistry_ParseType(t *testing.T) {
	r := New()
	r.MustRegister(newLevel(), schema.NewStructBuilder("app", "Database").Build())

	tests := []struct {
		expr string
		pkg  string
		want string
	}{
		{"i32", "", "i32"},
		{"i8", "", "byte"},
		{"list<string>", "", "list<string>"},
		{"set<app.Level>", "", "set<app.Level>"},
		{"map<string, list<i64>>", "", "map<string,list<i64>>"},
		{"map<Level,Database>", "app", "map<app.Level,app.Database>"},
		{"Database", "app", "app.Database"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			d, err := r.ParseType(tt.expr, tt.pkg)
			if err != nil {
				t.Fatalf("ParseType(%q) failed: %v", tt.expr, err)
			}
			if got := d.QualifiedName(); got != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestRegistry_ParseType_Errors(t *testing.T) {
	r := New()

	tests := []struct {
		expr string
		want error
	}{
		{"", schema.ErrInvalidTypeExpr},
		{"list<i32", schema.ErrInvalidTypeExpr},
		{"map<i32>", schema.ErrInvalidTypeExpr},
		{"tuple<i32>", schema.ErrInvalidTypeExpr},
		{"app.Missing", schema.ErrNoSuchType},
		{"list<app.Missing>", schema.ErrNoSuchType},
	}

	for _, tt := range tests {
		if _, err := r.ParseType(tt.expr, ""); !errors.Is(err, tt.want) {
			t.Errorf("ParseType(%q) err = %v, want %v", tt.expr, err, tt.want)
		}
	}
}
