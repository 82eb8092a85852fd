package loader

import (
	"errors"
	"reflect"
	"testing"
)

func TestLoadRCFile(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/proj/.typedconfrc.toml", `
schema = ["schema/app.yaml", "/abs/svc.toml"]
strict = true
log_level = "debug"
log_format = "json"

[overrides]
"db.host" = "db.local"
port = 8080
ratio = 0.5
enabled = false

[overrides.limits]
max = "10"
`)

	rc, err := LoadRCFile(memfs, "/proj/.typedconfrc.toml")
	if err != nil {
		t.Fatalf("LoadRCFile failed: %v", err)
	}

	if !reflect.DeepEqual(rc.Schema, []string{"/proj/schema/app.yaml", "/abs/svc.toml"}) {
		t.Errorf("Schema = %v", rc.Schema)
	}
	if rc.Strict == nil || !*rc.Strict {
		t.Errorf("Strict = %v", rc.Strict)
	}
	if rc.LogLevel != "debug" || rc.LogFormat != "json" {
		t.Errorf("log settings = %q, %q", rc.LogLevel, rc.LogFormat)
	}

	overrides, err := rc.OverrideMap()
	if err != nil {
		t.Fatalf("OverrideMap failed: %v", err)
	}
	want := map[string]string{
		"db.host":    "db.local",
		"port":       "8080",
		"ratio":      "0.5",
		"enabled":    "false",
		"limits.max": "10",
	}
	if !reflect.DeepEqual(overrides, want) {
		t.Errorf("OverrideMap = %v, want %v", overrides, want)
	}
}

func TestLoadRCFile_Missing(t *testing.T) {
	rc, err := LoadRCFile(NewMemFS(), "/none.toml")
	if err != nil || rc != nil {
		t.Fatalf("LoadRCFile = %v, %v, want nil, nil", rc, err)
	}

	overrides, err := rc.OverrideMap()
	if err != nil || len(overrides) != 0 {
		t.Errorf("nil rc OverrideMap = %v, %v", overrides, err)
	}
}

func TestLoadRCFile_Errors(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "strict = \n")
	memfs.AddFile("/unknown.toml", "colour = \"red\"\n")
	memfs.AddFile("/array.toml", "[overrides]\ntags = [\"a\"]\n")

	_, err := LoadRCFile(memfs, "/bad.toml")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line == 0 {
		t.Errorf("expected positioned ParseError, got %v", err)
	}

	if _, err := LoadRCFile(memfs, "/unknown.toml"); err == nil {
		t.Error("unknown key should fail")
	}

	rc, err := LoadRCFile(memfs, "/array.toml")
	if err != nil {
		t.Fatalf("LoadRCFile failed: %v", err)
	}
	if _, err := rc.OverrideMap(); err == nil {
		t.Error("array override value should fail")
	}
}
