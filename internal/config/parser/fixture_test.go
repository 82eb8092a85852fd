package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/registry"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

type fixture struct {
	reg    *registry.Registry
	level  *schema.EnumDescriptor
	db     *schema.MessageDescriptor
	server *schema.MessageDescriptor
	foo    *schema.MessageDescriptor
}

func newFixture() fixture {
	level := schema.NewEnum("test", "Level",
		schema.EnumItem{Name: "LOW", ID: 1},
		schema.EnumItem{Name: "HIGH", ID: 2},
	)
	db := schema.NewStructBuilder("test", "Database").
		Optional(1, "host", schema.String).
		WithDefault(2, "port", schema.I32, 5432).
		Optional(3, "level", level).
		Build()
	server := schema.NewStructBuilder("test", "Server").
		Required(1, "name", schema.String).
		Optional(2, "port", schema.I32).
		Optional(3, "db", db).
		Optional(4, "tags", schema.ListOf(schema.String)).
		Optional(5, "limits", schema.MapOf(schema.String, schema.I64)).
		Optional(6, "data", schema.Binary).
		Optional(7, "ratio", schema.Double).
		Optional(8, "enabled", schema.Bool).
		Optional(9, "small", schema.Byte).
		Optional(10, "ids", schema.SetOf(schema.I16)).
		Optional(11, "backends", schema.MapOf(schema.String, db)).
		Optional(12, "replicas", schema.ListOf(db)).
		Build()
	foo := schema.NewStructBuilder("test", "Foo").
		Optional(1, "bar", schema.I32).
		Optional(2, "baz", schema.I64).
		Build()

	reg := registry.New()
	reg.MustRegister(level, db, server, foo)
	return fixture{reg: reg, level: level, db: db, server: server, foo: foo}
}

// writeFiles creates files under a temporary directory and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func parseText(t *testing.T, fx fixture, src string, opts ...Option) (*Result, error) {
	t.Helper()
	dir := writeFiles(t, map[string]string{"app.cfg": src})
	return New(fx.reg, opts...).ParseFile(filepath.Join(dir, "app.cfg"), nil)
}

func mustParse(t *testing.T, fx fixture, src string, opts ...Option) *value.Message {
	t.Helper()
	res, err := parseText(t, fx, src, opts...)
	require.NoError(t, err)
	return res.Message
}

// field reads a dotted path and renders it in literal syntax.
func field(t *testing.T, m *value.Message, path string) string {
	t.Helper()
	v, err := convert.Lookup(m, path)
	require.NoError(t, err)
	return value.Format(v)
}
