package loader

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/registry"
	"github.com/dshills/typedconf/internal/config/schema"
)

// Document is a schema document: the enums and structs of one package.
type Document struct {
	Package string      `yaml:"package" toml:"package"`
	Enums   []EnumDoc   `yaml:"enums" toml:"enums"`
	Structs []StructDoc `yaml:"structs" toml:"structs"`

	source string
}

// EnumDoc declares an enum.
type EnumDoc struct {
	Name   string         `yaml:"name" toml:"name"`
	Values []EnumValueDoc `yaml:"values" toml:"values"`
}

// EnumValueDoc is one enum constant.
type EnumValueDoc struct {
	Name string `yaml:"name" toml:"name"`
	ID   int32  `yaml:"id" toml:"id"`
}

// StructDoc declares a struct or union.
type StructDoc struct {
	Name string `yaml:"name" toml:"name"`
	// Variant is "struct" (default) or "union".
	Variant string     `yaml:"variant" toml:"variant"`
	Fields  []FieldDoc `yaml:"fields" toml:"fields"`
}

// FieldDoc declares one field.
type FieldDoc struct {
	ID   int    `yaml:"id" toml:"id"`
	Name string `yaml:"name" toml:"name"`
	// Type is a type expression such as "i32", "list<Level>" or
	// "map<string,app.Database>".
	Type string `yaml:"type" toml:"type"`
	// Requirement is "optional" (default), "required" or "default". A
	// field with a default value and no requirement is "default".
	Requirement string `yaml:"requirement" toml:"requirement"`
	Default     any    `yaml:"default" toml:"default"`
}

// ParseError represents an error while decoding a document.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeSchema decodes a schema document. The suffix of name selects YAML
// (.yaml, .yml) or TOML (.toml).
func DecodeSchema(name string, data []byte) (*Document, error) {
	doc := &Document{source: name}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(doc); err != nil {
			return nil, &ParseError{Path: name, Message: err.Error(), Err: err}
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(doc); err != nil {
			pe := &ParseError{Path: name, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				pe.Line, pe.Column = derr.Position()
			}
			return nil, pe
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if doc.Package == "" {
		return nil, &ParseError{Path: name, Message: "missing package"}
	}
	return doc, nil
}

// SchemaLoader reads schema documents into a registry.
type SchemaLoader struct {
	fs FileSystem
}

// NewSchemaLoader creates a schema loader reading from fsys.
func NewSchemaLoader(fsys FileSystem) *SchemaLoader {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &SchemaLoader{fs: fsys}
}

// Load reads the documents at paths and registers their types.
func (l *SchemaLoader) Load(reg *registry.Registry, paths ...string) error {
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		data, err := l.fs.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading schema %s: %w", p, err)
		}
		doc, err := DecodeSchema(p, data)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return Register(reg, docs...)
}

// Register adds the types of docs to reg. Every type is declared before any
// field is resolved, so types may refer to each other in any order and
// across documents.
func Register(reg *registry.Registry, docs ...*Document) error {
	type pending struct {
		doc  *Document
		def  StructDoc
		desc *schema.MessageDescriptor
	}
	var structs []pending

	for _, doc := range docs {
		for _, e := range doc.Enums {
			items := make([]schema.EnumItem, len(e.Values))
			for i, v := range e.Values {
				items[i] = schema.EnumItem{Name: v.Name, ID: v.ID}
			}
			if err := reg.Register(schema.NewEnum(doc.Package, e.Name, items...)); err != nil {
				return doc.errorf("enum %s: %w", e.Name, err)
			}
		}
		for _, s := range doc.Structs {
			variant, err := parseVariant(s.Variant)
			if err != nil {
				return doc.errorf("struct %s: %w", s.Name, err)
			}
			desc := schema.NewMessage(doc.Package, s.Name, variant)
			if err := reg.Register(desc); err != nil {
				return doc.errorf("struct %s: %w", s.Name, err)
			}
			structs = append(structs, pending{doc: doc, def: s, desc: desc})
		}
	}

	for _, p := range structs {
		for _, fd := range p.def.Fields {
			f, err := resolveField(reg, p.doc.Package, fd)
			if err != nil {
				return p.doc.errorf("%s.%s: %w", p.def.Name, fd.Name, err)
			}
			if err := p.desc.AddField(f); err != nil {
				return p.doc.errorf("%s.%s: %w", p.def.Name, fd.Name, err)
			}
		}
	}

	// Defaults of message type need every field resolved first.
	for _, p := range structs {
		for _, f := range p.desc.Fields() {
			if f.Default == nil {
				continue
			}
			if _, err := convert.AsType(f.Type, f.Default); err != nil {
				return p.doc.errorf("%s.%s: default: %w", p.def.Name, f.Name, err)
			}
		}
	}
	return nil
}

func resolveField(reg *registry.Registry, pkg string, fd FieldDoc) (schema.Field, error) {
	if fd.Name == "" {
		return schema.Field{}, fmt.Errorf("%w: missing name", schema.ErrInvalidField)
	}
	typ, err := reg.ParseType(fd.Type, pkg)
	if err != nil {
		return schema.Field{}, err
	}
	req, err := schema.ParseRequirement(fd.Requirement)
	if err != nil {
		return schema.Field{}, err
	}
	if fd.Requirement == "" && fd.Default != nil {
		req = schema.Default
	}
	return schema.Field{ID: fd.ID, Name: fd.Name, Requirement: req, Type: typ, Default: fd.Default}, nil
}

func parseVariant(s string) (schema.Variant, error) {
	switch strings.ToLower(s) {
	case "", "struct":
		return schema.VariantStruct, nil
	case "union":
		return schema.VariantUnion, nil
	}
	return schema.VariantStruct, fmt.Errorf("unknown variant %q", s)
}

func (d *Document) errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	if d.source == "" {
		return err
	}
	return fmt.Errorf("schema %s: %w", d.source, err)
}
