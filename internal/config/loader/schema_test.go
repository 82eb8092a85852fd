package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/registry"
	"github.com/dshills/typedconf/internal/config/schema"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

const appYAML = `
package: app
enums:
  - name: Level
    values: [{name: LOW, id: 1}, {name: HIGH, id: 2}]
structs:
  - name: Database
    variant: struct
    fields:
      - {id: 1, name: host, type: string, requirement: required}
      - {id: 2, name: port, type: i32, default: 5432}
      - {id: 3, name: tags, type: "map<string,list<i64>>"}
      - {id: 4, name: level, type: Level}
`

const svcTOML = `
package = "svc"

[[structs]]
name = "Server"

[[structs.fields]]
id = 1
name = "db"
type = "app.Database"

[[structs.fields]]
id = 2
name = "choice"
type = "Choice"

[[structs.fields]]
id = 3
name = "children"
type = "list<Server>"

[[structs]]
name = "Choice"
variant = "union"

[[structs.fields]]
id = 1
name = "text"
type = "string"

[[structs.fields]]
id = 2
name = "number"
type = "i64"
`

func TestSchemaLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/schema/app.yaml", appYAML)
	memfs.AddFile("/schema/svc.toml", svcTOML)

	reg := registry.New()
	// svc refers to app, and to types declared later in its own file.
	if err := NewSchemaLoader(memfs).Load(reg, "/schema/svc.toml", "/schema/app.yaml"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	db, err := reg.LookupMessage("app.Database")
	if err != nil {
		t.Fatalf("LookupMessage: %v", err)
	}

	tests := []struct {
		field string
		typ   string
		req   schema.Requirement
	}{
		{"host", "string", schema.Required},
		{"port", "i32", schema.Default},
		{"tags", "map<string,list<i64>>", schema.Optional},
		{"level", "app.Level", schema.Optional},
	}
	for _, tt := range tests {
		f := db.FieldByName(tt.field)
		if f == nil {
			t.Errorf("field %s missing", tt.field)
			continue
		}
		if got := f.Type.QualifiedName(); got != tt.typ {
			t.Errorf("%s type = %s, want %s", tt.field, got, tt.typ)
		}
		if f.Requirement != tt.req {
			t.Errorf("%s requirement = %v, want %v", tt.field, f.Requirement, tt.req)
		}
	}

	def, err := convert.Default(db.FieldByName("port"))
	if err != nil || def.String() != "5432" {
		t.Errorf("port default = %v, %v", def, err)
	}

	server, err := reg.LookupMessage("svc.Server")
	if err != nil {
		t.Fatalf("LookupMessage: %v", err)
	}
	if got := server.FieldByName("children").Type.QualifiedName(); got != "list<svc.Server>" {
		t.Errorf("children type = %s", got)
	}
	if !schema.Same(server.FieldByName("db").Type, db) {
		t.Error("db field should reference app.Database")
	}

	choice, err := reg.LookupMessage("svc.Choice")
	if err != nil {
		t.Fatalf("LookupMessage: %v", err)
	}
	if !choice.IsUnion() {
		t.Error("svc.Choice should be a union")
	}

	level, err := reg.LookupEnum("app.Level")
	if err != nil {
		t.Fatalf("LookupEnum: %v", err)
	}
	if item, ok := level.FindByID(2); !ok || item.Name != "HIGH" {
		t.Errorf("FindByID(2) = %v, %v", item, ok)
	}
}

func TestSchemaLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		target  error
		message string
	}{
		{
			name:    "unsupported format",
			file:    "/s.json",
			content: `{}`,
			target:  ErrUnsupportedFormat,
		},
		{
			name:    "unknown type",
			file:    "/s.yaml",
			content: "package: p\nstructs:\n  - name: A\n    fields:\n      - {id: 1, name: x, type: Missing}\n",
			target:  schema.ErrNoSuchType,
			message: "A.x",
		},
		{
			name:    "bad default",
			file:    "/s.yaml",
			content: "package: p\nstructs:\n  - name: A\n    fields:\n      - {id: 1, name: x, type: i32, default: abc}\n",
			target:  convert.ErrIncompatible,
			message: "default",
		},
		{
			name:    "duplicate field id",
			file:    "/s.yaml",
			content: "package: p\nstructs:\n  - name: A\n    fields:\n      - {id: 1, name: x, type: i32}\n      - {id: 1, name: y, type: i32}\n",
			target:  schema.ErrInvalidField,
		},
		{
			name:    "unknown key",
			file:    "/s.yaml",
			content: "package: p\nstructures: []\n",
			message: "structures",
		},
		{
			name:    "missing package",
			file:    "/s.toml",
			content: "[[enums]]\nname = \"E\"\n",
			message: "missing package",
		},
		{
			name:    "bad variant",
			file:    "/s.toml",
			content: "package = \"p\"\n[[structs]]\nname = \"A\"\nvariant = \"record\"\n",
			message: "unknown variant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memfs := NewMemFS()
			memfs.AddFile(tt.file, tt.content)

			err := NewSchemaLoader(memfs).Load(registry.New(), tt.file)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v does not wrap %v", err, tt.target)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err, tt.message)
			}
		})
	}
}

func TestSchemaLoader_DuplicateType(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.yaml", "package: p\nenums:\n  - name: E\n")
	memfs.AddFile("/b.toml", "package = \"p\"\n[[structs]]\nname = \"E\"\n")

	err := NewSchemaLoader(memfs).Load(registry.New(), "/a.yaml", "/b.toml")
	if !errors.Is(err, schema.ErrDuplicateType) {
		t.Fatalf("expected ErrDuplicateType, got %v", err)
	}
	if !strings.Contains(err.Error(), "/b.toml") {
		t.Errorf("error %q should name the document", err)
	}
}

func TestDecodeSchema_TOMLPosition(t *testing.T) {
	_, err := DecodeSchema("bad.toml", []byte("package = \"p\"\nenums = [\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Line == 0 {
		t.Errorf("expected a line number in %v", pe)
	}
	if !strings.HasPrefix(pe.Error(), "parse error in bad.toml at line") {
		t.Errorf("Error() = %q", pe.Error())
	}
}

func TestSchemaLoader_MissingFile(t *testing.T) {
	err := NewSchemaLoader(NewMemFS()).Load(registry.New(), "/nope.yaml")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
