package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(nil, "")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Workspace != "." {
		t.Errorf("Workspace = %q, want \".\"", cfg.Workspace)
	}
	if cfg.Format != FormatText {
		t.Errorf("Format = %q, want %q", cfg.Format, FormatText)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", cfg.Workers)
	}
	if !reflect.DeepEqual(cfg.BaseTypes, []string{"MonoBehaviour", "UnityEngine.MonoBehaviour"}) {
		t.Errorf("BaseTypes = %v", cfg.BaseTypes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadLayerPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	content := "port = 7000\nformat = \"yaml\"\nworkers = 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("UNITY_ANALYZER_PORT", "9090")
	t.Setenv("UNITY_ANALYZER_LOG_FORMAT", "json")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Int("workers", 1, "")
	if err := f.Parse([]string{"--workers=6"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(f, path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Format != FormatYAML {
		t.Errorf("Format = %q, want file value yaml", cfg.Format)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want env value 9090", cfg.Port)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want env value json", cfg.LogFormat)
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, want flag value 6", cfg.Workers)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Workers:   2,
			Format:    FormatJSON,
			LogFormat: "text",
			Port:      8080,
			BaseTypes: []string{"MonoBehaviour"},
			Include:   []string{"**/*.cs"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, false},
		{"unknown format", func(c *Config) { c.Format = "xml" }, false},
		{"bad port in web mode", func(c *Config) { c.WebMode = true; c.Port = 0 }, false},
		{"bad port ignored without web", func(c *Config) { c.Port = 0 }, true},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"no base types", func(c *Config) { c.BaseTypes = nil }, false},
		{"bad glob", func(c *Config) { c.Exclude = []string{"[unclosed"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewContext(t *testing.T) {
	cfg := &Config{
		Workspace: "/project",
		Workers:   4,
		BaseTypes: []string{"GameBehaviour"},
		Exclude:   []string{"**/Generated/**"},
	}

	ctx := NewContext(cfg)

	if ctx.Workspace != "/project" || ctx.Workers != 4 {
		t.Errorf("unexpected context %+v", ctx)
	}
	if !reflect.DeepEqual(ctx.BaseTypes, []string{"GameBehaviour"}) {
		t.Errorf("BaseTypes = %v", ctx.BaseTypes)
	}
	if !reflect.DeepEqual(ctx.Include, []string{"**/*.cs"}) {
		t.Errorf("Include should fall back to default, got %v", ctx.Include)
	}
	if len(ctx.AssetBaseTypes) != 2 {
		t.Errorf("AssetBaseTypes = %v", ctx.AssetBaseTypes)
	}

	cfg.BaseTypes[0] = "Changed"
	if ctx.BaseTypes[0] != "GameBehaviour" {
		t.Error("context must not alias the config slices")
	}
}

func TestNewContextNil(t *testing.T) {
	ctx := NewContext(nil)
	if !reflect.DeepEqual(ctx, DefaultContext()) {
		t.Errorf("NewContext(nil) = %+v, want defaults", ctx)
	}
}
