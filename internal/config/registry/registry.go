// Package registry maps qualified type names to declared type descriptors.
//
// The parser consults the registry for the root type of every config file,
// for message and enum types in def blocks, and the schema loader uses it to
// resolve field type expressions.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/typedconf/internal/config/schema"
)

// Registry maintains all known declared types.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]schema.Declared
	packages map[string][]schema.Declared // Types grouped by package
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		types:    make(map[string]schema.Declared),
		packages: make(map[string][]schema.Declared),
	}
}

// Register adds a declared type to the registry.
// Returns an error if a type with the same qualified name already exists.
func (r *Registry) Register(d schema.Declared) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := d.QualifiedName()
	if _, exists := r.types[name]; exists {
		return fmt.Errorf("%w: %s", schema.ErrDuplicateType, name)
	}

	r.types[name] = d
	r.packages[d.Package()] = append(r.packages[d.Package()], d)
	return nil
}

// MustRegister registers types and panics on error.
// Useful for registering built-in types at init time.
func (r *Registry) MustRegister(types ...schema.Declared) {
	for _, d := range types {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the declared type with the given qualified name.
func (r *Registry) Lookup(name string) (schema.Declared, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrNoSuchType, name)
	}
	return d, nil
}

// LookupMessage returns the named struct or union.
func (r *Registry) LookupMessage(name string) (*schema.MessageDescriptor, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	md, ok := d.(*schema.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrNotMessage, name)
	}
	return md, nil
}

// LookupEnum returns the named enum.
func (r *Registry) LookupEnum(name string) (*schema.EnumDescriptor, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	ed, ok := d.(*schema.EnumDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrNotEnum, name)
	}
	return ed, nil
}

// Has checks if a type is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.types[name]
	return exists
}

// Names returns all registered qualified names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.types))
	for name := range r.types {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Package returns all types declared in a package, sorted by name.
func (r *Registry) Package(name string) []schema.Declared {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := r.packages[name]
	result := make([]schema.Declared, len(types))
	copy(result, types)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Packages returns all package names.
func (r *Registry) Packages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.packages))
	for pkg := range r.packages {
		result = append(result, pkg)
	}
	sort.Strings(result)
	return result
}

// ParseType resolves a type expression such as "i32", "list<app.Level>" or
// "map<string,Database>". Unqualified declared names are looked up in pkg.
func (r *Registry) ParseType(expr, pkg string) (schema.Descriptor, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty", schema.ErrInvalidTypeExpr)
	}

	if open := strings.IndexByte(expr, '<'); open > 0 {
		if !strings.HasSuffix(expr, ">") {
			return nil, fmt.Errorf("%w: %q", schema.ErrInvalidTypeExpr, expr)
		}
		outer := strings.TrimSpace(expr[:open])
		inner := expr[open+1 : len(expr)-1]
		switch outer {
		case "list", "set":
			item, err := r.ParseType(inner, pkg)
			if err != nil {
				return nil, err
			}
			if outer == "list" {
				return schema.ListOf(item), nil
			}
			return schema.SetOf(item), nil
		case "map":
			split := splitTopLevel(inner)
			if split < 0 {
				return nil, fmt.Errorf("%w: %q", schema.ErrInvalidTypeExpr, expr)
			}
			key, err := r.ParseType(inner[:split], pkg)
			if err != nil {
				return nil, err
			}
			val, err := r.ParseType(inner[split+1:], pkg)
			if err != nil {
				return nil, err
			}
			return schema.MapOf(key, val), nil
		}
		return nil, fmt.Errorf("%w: unknown container %q", schema.ErrInvalidTypeExpr, outer)
	}

	switch expr {
	case "bool":
		return schema.Bool, nil
	case "byte", "i8":
		return schema.Byte, nil
	case "i16":
		return schema.I16, nil
	case "i32":
		return schema.I32, nil
	case "i64":
		return schema.I64, nil
	case "double":
		return schema.Double, nil
	case "string":
		return schema.String, nil
	case "binary":
		return schema.Binary, nil
	}

	if !strings.Contains(expr, schema.PathSeparator) && pkg != "" {
		if d, err := r.Lookup(pkg + schema.PathSeparator + expr); err == nil {
			return d, nil
		}
	}
	return r.Lookup(expr)
}

// splitTopLevel returns the index of the first comma not nested in <>.
func splitTopLevel(s string) int {
	depth := 0
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
