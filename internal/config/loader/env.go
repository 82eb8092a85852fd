package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/typedconf/internal/config/convert"
)

// EnvPrefix is the prefix of the variables the command line tool reads.
const EnvPrefix = "TYPEDCONF_"

// Variable names below the prefix.
const (
	envOverride = "OVERRIDE_"
	envStrict   = "STRICT"
	envSchema   = "SCHEMA"
)

// EnvSettings holds the settings found in the environment.
type EnvSettings struct {
	// Overrides maps dotted field paths to override text.
	Overrides map[string]string
	// Strict is nil when the variable is not set.
	Strict *bool
	// Schema lists schema document paths.
	Schema []string
}

// EnvLoader reads settings from environment variables.
type EnvLoader struct {
	prefix  string
	environ func() []string
}

// NewEnvLoader creates a loader for variables starting with prefix, which
// should include the trailing underscore (e.g. "TYPEDCONF_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix, environ: os.Environ}
}

// Load reads the environment.
//
//	TYPEDCONF_OVERRIDE_DB__HOST=db.local   override db.host
//	TYPEDCONF_STRICT=yes                   strict mode
//	TYPEDCONF_SCHEMA=a.yaml:b.toml         schema documents
//
// Note: empty override values are kept; they set string fields to "".
func (l *EnvLoader) Load() (*EnvSettings, error) {
	s := &EnvSettings{Overrides: make(map[string]string)}

	for _, env := range l.environ() {
		name, val, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		key := strings.TrimPrefix(name, l.prefix)

		switch {
		case strings.HasPrefix(key, envOverride):
			path, err := envToPath(strings.TrimPrefix(key, envOverride))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			s.Overrides[path] = val
		case key == envStrict:
			b, ok := convert.ParseBool(val)
			if !ok {
				return nil, fmt.Errorf("%s: invalid bool value %q", name, val)
			}
			s.Strict = &b
		case key == envSchema:
			for _, p := range filepath.SplitList(val) {
				if p != "" {
					s.Schema = append(s.Schema, p)
				}
			}
		}
	}
	return s, nil
}

// envToPath converts DB__MAX_CONNS to db.max_conns.
func envToPath(name string) (string, error) {
	segments := strings.Split(name, "__")
	for i, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("empty field name in %q", name)
		}
		segments[i] = strings.ToLower(seg)
	}
	return strings.Join(segments, "."), nil
}
