package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

type fixture struct {
	level  *schema.EnumDescriptor
	db     *schema.MessageDescriptor
	server *schema.MessageDescriptor
}

func newFixture() fixture {
	level := schema.NewEnum("test", "Level",
		schema.EnumItem{Name: "LOW", ID: 1},
		schema.EnumItem{Name: "HIGH", ID: 2},
	)
	db := schema.NewStructBuilder("test", "Database").
		Optional(1, "host", schema.String).
		Optional(2, "port", schema.I32).
		Optional(3, "level", level).
		Build()
	server := schema.NewStructBuilder("test", "Server").
		Required(1, "name", schema.String).
		Optional(2, "big", schema.I64).
		Optional(3, "db", db).
		Optional(4, "tags", schema.ListOf(schema.String)).
		Optional(5, "limits", schema.MapOf(schema.String, schema.I64)).
		Optional(6, "data", schema.Binary).
		Optional(7, "ratio", schema.Double).
		Optional(8, "enabled", schema.Bool).
		Optional(9, "ids", schema.SetOf(schema.I16)).
		Optional(10, "byLevel", schema.MapOf(level, schema.String)).
		Optional(11, "replicas", schema.ListOf(db)).
		Build()
	return fixture{level: level, db: db, server: server}
}

const serverJSON = `{
  "name": "svc",
  "big": 9007199254740993,
  "db": {"host": "db.local", "port": 5432, "level": "HIGH"},
  "tags": ["a", "b"],
  "limits": {"x": 1, "y": 2},
  "data": "AP8=",
  "ratio": 0.5,
  "enabled": true,
  "ids": [1, 2, 2],
  "byLevel": {"LOW": "l", "2": "h"},
  "replicas": [{"host": "r1"}, {"port": 1, "level": 1}]
}`

func TestDecodeJSON(t *testing.T) {
	fx := newFixture()
	m, err := DecodeJSON(fx.server, []byte(serverJSON), true)
	require.NoError(t, err)

	want := map[string]string{
		"name":    `"svc"`,
		"big":     "9007199254740993",
		"db":      `{host = "db.local", port = 5432, level = HIGH}`,
		"tags":    `["a", "b"]`,
		"limits":  `{"x": 1, "y": 2}`,
		"data":    "b64(AP8=)",
		"ratio":   "0.5",
		"enabled": "true",
		"ids":     "[1, 2]",
		"byLevel": `{LOW: "l", HIGH: "h"}`,
	}
	for path, w := range want {
		v, err := convert.Lookup(m, path)
		require.NoError(t, err, path)
		require.Equal(t, w, value.Format(v), path)
	}
	require.Equal(t, `[{host = "r1"}, {port = 1, level = LOW}]`, value.Format(mustGet(t, m, "replicas")))
}

func TestJSON_RoundTrip(t *testing.T) {
	fx := newFixture()
	m, err := DecodeJSON(fx.server, []byte(serverJSON), true)
	require.NoError(t, err)

	for _, indent := range []bool{false, true} {
		out, err := EncodeJSON(m, indent)
		require.NoError(t, err)
		require.True(t, gjson.ValidBytes(out), string(out))

		back, err := DecodeJSON(fx.server, out, true)
		require.NoError(t, err)
		require.True(t, m.Equal(back), "%s", out)
	}
}

func TestEncodeJSON_Shape(t *testing.T) {
	fx := newFixture()
	b := value.NewBuilder(fx.db)
	require.NoError(t, b.SetByName("host", value.String("a\"b")))
	require.NoError(t, b.SetByName("port", value.I32(1)))

	out, err := EncodeJSON(b.Build(), false)
	require.NoError(t, err)
	require.Equal(t, `{"host":"a\"b","port":1}`, string(out))

	out, err = EncodeJSON(value.Empty(fx.db), false)
	require.NoError(t, err)
	require.Equal(t, `{}`, string(out))
}

func TestDecodeJSON_FieldIDsAndNulls(t *testing.T) {
	fx := newFixture()
	m, err := DecodeJSON(fx.db, []byte(`{"1": "h", "port": null}`), true)
	require.NoError(t, err)
	require.Equal(t, `{host = "h"}`, value.Format(m))
}

func TestDecodeJSON_UnknownField(t *testing.T) {
	fx := newFixture()
	data := []byte(`{"host": "h", "extra": {"a": 1}}`)

	_, err := DecodeJSON(fx.db, data, true)
	require.Error(t, err)
	require.True(t, errors.Is(err, schema.ErrNoSuchField))

	m, err := DecodeJSON(fx.db, data, false)
	require.NoError(t, err)
	require.Equal(t, `{host = "h"}`, value.Format(m))
}

func TestDecodeJSON_Errors(t *testing.T) {
	fx := newFixture()

	tests := []struct {
		name string
		data string
		path string
		err  error
	}{
		{"out of range", `{"db": {"port": 3000000000}}`, "db.port", convert.ErrOutOfRange},
		{"unknown enum", `{"db": {"level": "MEDIUM"}}`, "db.level", convert.ErrUnknownEnumValue},
		{"not an object", `{"db": 5}`, "db", nil},
		{"not an array", `{"tags": "a"}`, "tags", nil},
		{"bad base64", `{"data": "!!"}`, "data", nil},
		{"list item", `{"replicas": [{}, {"port": "x"}]}`, "replicas[1].port", convert.ErrIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(fx.server, []byte(tt.data), true)
			require.Error(t, err)
			var ce *Error
			require.True(t, errors.As(err, &ce))
			require.Equal(t, tt.path, ce.Path)
			if tt.err != nil {
				require.True(t, errors.Is(err, tt.err))
			}
		})
	}

	_, err := DecodeJSON(fx.server, []byte(`{"name": `), true)
	require.ErrorIs(t, err, ErrInvalidJSON)
}

func mustGet(t *testing.T, m *value.Message, path string) value.Value {
	t.Helper()
	v, err := convert.Lookup(m, path)
	require.NoError(t, err)
	return v
}
