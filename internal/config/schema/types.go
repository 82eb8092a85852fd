package schema

// Builder provides a fluent API for constructing message descriptors.
//
//	db := schema.NewStructBuilder("app", "Database").
//		Required(1, "host", schema.String).
//		WithDefault(2, "port", schema.I32, 5432).
//		Build()
//
// Field errors are collected and reported by Build, which panics, or
// BuildE, which returns them.
type Builder struct {
	desc *MessageDescriptor
	err  error
}

// NewStructBuilder starts a struct descriptor.
func NewStructBuilder(pkg, name string) *Builder {
	return &Builder{desc: NewMessage(pkg, name, VariantStruct)}
}

// NewUnionBuilder starts a union descriptor.
func NewUnionBuilder(pkg, name string) *Builder {
	return &Builder{desc: NewMessage(pkg, name, VariantUnion)}
}

// Descriptor returns the descriptor under construction. It may be used as a
// field type before Build to declare recursive types.
func (b *Builder) Descriptor() *MessageDescriptor {
	return b.desc
}

// Optional adds an optional field.
func (b *Builder) Optional(id int, name string, typ Descriptor) *Builder {
	return b.add(Field{ID: id, Name: name, Requirement: Optional, Type: typ})
}

// Required adds a required field.
func (b *Builder) Required(id int, name string, typ Descriptor) *Builder {
	return b.add(Field{ID: id, Name: name, Requirement: Required, Type: typ})
}

// WithDefault adds a field with a default value.
func (b *Builder) WithDefault(id int, name string, typ Descriptor, def any) *Builder {
	return b.add(Field{ID: id, Name: name, Requirement: Default, Type: typ, Default: def})
}

// Field adds a fully specified field.
func (b *Builder) Field(f Field) *Builder {
	return b.add(f)
}

func (b *Builder) add(f Field) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.desc.AddField(f)
	return b
}

// BuildE returns the descriptor or the first field error.
func (b *Builder) BuildE() (*MessageDescriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.desc, nil
}

// Build returns the descriptor and panics on field errors.
// Useful for declaring built-in types at init time.
func (b *Builder) Build() *MessageDescriptor {
	d, err := b.BuildE()
	if err != nil {
		panic(err)
	}
	return d
}
