package value

import "github.com/dshills/typedconf/internal/config/schema"

type fixture struct {
	level  *schema.EnumDescriptor
	inner  *schema.MessageDescriptor
	outer  *schema.MessageDescriptor
	choice *schema.MessageDescriptor
}

func newFixture() fixture {
	level := schema.NewEnum("test", "Level",
		schema.EnumItem{Name: "LOW", ID: 1},
		schema.EnumItem{Name: "HIGH", ID: 2},
	)
	inner := schema.NewStructBuilder("test", "Inner").
		Required(1, "name", schema.String).
		Optional(2, "count", schema.I32).
		Build()
	outer := schema.NewStructBuilder("test", "Outer").
		Optional(1, "flag", schema.Bool).
		Optional(2, "inner", inner).
		Optional(3, "tags", schema.ListOf(schema.String)).
		Optional(4, "limits", schema.MapOf(schema.String, schema.I64)).
		Optional(5, "level", level).
		Optional(6, "data", schema.Binary).
		Optional(7, "ratio", schema.Double).
		Optional(8, "ids", schema.SetOf(schema.I16)).
		Build()
	choice := schema.NewUnionBuilder("test", "Choice").
		Optional(1, "number", schema.I64).
		Optional(2, "text", schema.String).
		Optional(3, "inner", inner).
		Build()
	return fixture{level: level, inner: inner, outer: outer, choice: choice}
}
