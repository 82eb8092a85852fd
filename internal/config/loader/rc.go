package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// DefaultRCFile is the rc file name looked up in the working directory.
const DefaultRCFile = ".typedconfrc.toml"

// RCFile holds the command line tool settings read from an rc file.
//
//	schema = ["schema/app.yaml"]
//	strict = true
//	log_level = "debug"
//	log_format = "json"
//
//	[overrides]
//	"db.host" = "db.local"
//	port = 8080
//
//	[overrides.db]
//	port = 5433
type RCFile struct {
	Schema    []string       `toml:"schema"`
	Strict    *bool          `toml:"strict"`
	LogLevel  string         `toml:"log_level"`
	LogFormat string         `toml:"log_format"`
	Overrides map[string]any `toml:"overrides"`
}

// LoadRCFile reads the rc file at path. A missing file is not an error and
// yields nil. Relative schema paths are resolved against the rc file's
// directory.
func LoadRCFile(fsys FileSystem, path string) (*RCFile, error) {
	if fsys == nil {
		fsys = DefaultFS()
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rc file %s: %w", path, err)
	}

	var rc RCFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rc); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return nil, pe
	}

	dir := filepath.Dir(path)
	for i, p := range rc.Schema {
		if !filepath.IsAbs(p) {
			rc.Schema[i] = filepath.Join(dir, p)
		}
	}
	return &rc, nil
}

// OverrideMap flattens the overrides table into dotted paths with text
// values. Nested tables extend the path.
func (rc *RCFile) OverrideMap() (map[string]string, error) {
	out := make(map[string]string)
	if rc == nil {
		return out, nil
	}
	if err := flatten(out, "", rc.Overrides); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(out map[string]string, prefix string, table map[string]any) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := table[k].(type) {
		case map[string]any:
			if err := flatten(out, path, v); err != nil {
				return err
			}
		case string:
			out[path] = v
		case bool:
			out[path] = strconv.FormatBool(v)
		case int64:
			out[path] = strconv.FormatInt(v, 10)
		case float64:
			out[path] = strconv.FormatFloat(v, 'g', -1, 64)
		default:
			return fmt.Errorf("override %s: unsupported value type %T", path, v)
		}
	}
	return nil
}
