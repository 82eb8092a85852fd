package supplier

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/dshills/typedconf/internal/config/codec"
	"github.com/dshills/typedconf/internal/config/loader"
	"github.com/dshills/typedconf/internal/config/parser"
	"github.com/dshills/typedconf/internal/config/registry"
	"github.com/dshills/typedconf/internal/config/schema"
	"github.com/dshills/typedconf/internal/config/value"
)

// Resource formats by file suffix.
var (
	jsonSuffixes   = []string{".json"}
	configSuffixes = []string{".cfg", ".cnf", ".config", ".pvd", ".providence"}
)

// NewResource loads a config resource from fsys and returns a supplier that
// always holds it. The suffix of name selects the format: JSON, or the
// config grammar with includes resolved inside fsys. JSON resources need
// desc; for config resources desc, when not nil, must match the file's
// type.
func NewResource(reg *registry.Registry, fsys fs.FS, name string, desc *schema.MessageDescriptor, opts ...Option) (*Fixed, error) {
	o := newOptions("resource:"+name, opts)

	var (
		m   *value.Message
		err error
	)
	switch ext := strings.ToLower(path.Ext(name)); {
	case slices.Contains(jsonSuffixes, ext):
		m, err = loadJSON(fsys, name, desc, o.strict)
	case slices.Contains(configSuffixes, ext):
		m, err = loadConfig(reg, fsys, name, desc, o)
	default:
		err = fmt.Errorf("Unrecognized resource config type: %s", name)
	}
	if err != nil {
		return nil, err
	}

	f := &Fixed{}
	f.init(o)
	f.set(m)
	return f, nil
}

func loadJSON(fsys fs.FS, name string, desc *schema.MessageDescriptor, strict bool) (*value.Message, error) {
	if desc == nil {
		return nil, fmt.Errorf("JSON resource %s needs a message type", name)
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	m, err := codec.DecodeJSON(desc, data, strict)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

func loadConfig(reg *registry.Registry, fsys fs.FS, name string, desc *schema.MessageDescriptor, o options) (*value.Message, error) {
	p := parser.New(reg,
		parser.WithFileSystem(loader.FromFS(fsys)),
		parser.WithStrict(o.strict),
		parser.WithLogger(o.log),
	)
	res, err := p.ParseFile(name, nil)
	if err != nil {
		return nil, err
	}
	if desc != nil && !schema.Same(desc, res.Message.Descriptor()) {
		return nil, fmt.Errorf("Loaded config type %s does not match expected %s",
			res.Message.Descriptor().QualifiedName(), desc.QualifiedName())
	}
	return res.Message, nil
}
