package config

import "runtime"

// Context is the explicit, immutable input of one analysis run. It replaces
// process-wide state: every stage reads its vocabulary from here.
type Context struct {
	Workspace      string
	Include        []string
	Exclude        []string
	Workers        int
	BaseTypes      []string
	AssetBaseTypes []string
}

// NewContext derives the analysis context from a loaded configuration
func NewContext(cfg *Config) *Context {
	ctx := DefaultContext()
	if cfg == nil {
		return ctx
	}
	if cfg.Workspace != "" {
		ctx.Workspace = cfg.Workspace
	}
	if len(cfg.Include) > 0 {
		ctx.Include = append([]string(nil), cfg.Include...)
	}
	if cfg.Exclude != nil {
		ctx.Exclude = append([]string(nil), cfg.Exclude...)
	}
	if cfg.Workers > 0 {
		ctx.Workers = cfg.Workers
	}
	if len(cfg.BaseTypes) > 0 {
		ctx.BaseTypes = append([]string(nil), cfg.BaseTypes...)
	}
	if len(cfg.AssetTypes) > 0 {
		ctx.AssetBaseTypes = append([]string(nil), cfg.AssetTypes...)
	}
	return ctx
}

// DefaultContext returns the context used when no configuration is loaded
func DefaultContext() *Context {
	return &Context{
		Workspace:      ".",
		Include:        []string{"**/*.cs"},
		Workers:        runtime.NumCPU(),
		BaseTypes:      []string{"MonoBehaviour", "UnityEngine.MonoBehaviour"},
		AssetBaseTypes: []string{"ScriptableObject", "UnityEngine.ScriptableObject"},
	}
}
