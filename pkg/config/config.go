package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// FileName is the optional config file looked up in the working directory
const FileName = "unity-analyzer.toml"

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds all configuration for the application
type Config struct {
	Workspace  string   `koanf:"workspace"`
	Include    []string `koanf:"include"`
	Exclude    []string `koanf:"exclude"`
	Workers    int      `koanf:"workers"`
	Format     string   `koanf:"format"`
	Output     string   `koanf:"output"`
	WebMode    bool     `koanf:"web"`
	Port       int      `koanf:"port"`
	Watch      bool     `koanf:"watch"`
	VerboseCnt int      `koanf:"verbose"`
	LogFormat  string   `koanf:"log-format"`
	BaseTypes  []string `koanf:"base-types"`
	AssetTypes []string `koanf:"asset-base-types"`
}

// Defaults returns the lowest configuration layer
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"workspace":        ".",
		"include":          []string{"**/*.cs"},
		"exclude":          []string{"**/Library/**", "**/Temp/**", "**/obj/**"},
		"workers":          runtime.NumCPU(),
		"format":           FormatText,
		"output":           "",
		"web":              false,
		"port":             8080,
		"watch":            false,
		"verbose":          0,
		"log-format":       "text",
		"base-types":       []string{"MonoBehaviour", "UnityEngine.MonoBehaviour"},
		"asset-base-types": []string{"ScriptableObject", "UnityEngine.ScriptableObject"},
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(f, FileName)
}

// LoadFile is Load with an explicit config file path
func LoadFile(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	if path != "" {
		_ = k.Load(file.Provider(path), toml.Parser())
	}

	// 3. Environment Variables
	// Prefix: UNITY_ANALYZER_ (e.g., UNITY_ANALYZER_PORT=9090, UNITY_ANALYZER_LOG_FORMAT=json)
	if err := k.Load(env.Provider("UNITY_ANALYZER_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// envKey maps UNITY_ANALYZER_LOG_FORMAT to log-format
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(
		strings.TrimPrefix(s, "UNITY_ANALYZER_")), "_", "-")
}

// Validate checks value ranges and glob syntax
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	if c.WebMode && (c.Port < 1 || c.Port > 65535) {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if len(c.BaseTypes) == 0 {
		return fmt.Errorf("%w: at least one component base type is required", ErrInvalidConfig)
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad glob %q", ErrInvalidConfig, pattern)
		}
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
