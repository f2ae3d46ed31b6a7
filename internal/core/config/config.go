package config

import (
	"time"

	"symscope/internal/engine/symtab"
)

type Config struct {
	Version       int           `toml:"version"`
	Limits        Limits        `toml:"limits"`
	WatchPaths    []string      `toml:"watch_paths"`
	Exclude       Exclude       `toml:"exclude"`
	Analyzer      Analyzer      `toml:"analyzer"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`
}

// Limits bound the symbol tables. They are read once at startup.
type Limits struct {
	MaxDepth    int `toml:"max_depth"`
	MaxParams   int `toml:"max_params"`
	MaxIdentLen int `toml:"max_ident_len"`
}

type Exclude struct {
	Dirs    []string `toml:"dirs"`
	Files   []string `toml:"files"`
	Symbols []string `toml:"symbols"` // Glob patterns of identifiers to ignore (e.g. _*, err)
}

type Analyzer struct {
	Languages        []string `toml:"languages"`
	ReportUnresolved *bool    `toml:"report_unresolved"`
	ReportShadowing  *bool    `toml:"report_shadowing"`
	Builtins         *bool    `toml:"builtins"`
}

type Watch struct {
	Debounce           time.Duration `toml:"debounce"`
	MaxEventsPerSecond float64       `toml:"max_events_per_second"`
	Burst              int           `toml:"burst"`
}

type Output struct {
	Format     string `toml:"format"`
	Color      *bool  `toml:"color"`
	DumpScopes bool   `toml:"dump_scopes"`
	File       string `toml:"file"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// SymtabLimits converts the configured bounds for the symbol tables.
func (c *Config) SymtabLimits() symtab.Limits {
	return symtab.Limits{
		MaxDepth:    c.Limits.MaxDepth,
		MaxParams:   c.Limits.MaxParams,
		MaxIdentLen: c.Limits.MaxIdentLen,
	}
}

func (a Analyzer) UnresolvedEnabled() bool { return boolOr(a.ReportUnresolved, true) }

func (a Analyzer) ShadowingEnabled() bool { return boolOr(a.ReportShadowing, true) }

func (a Analyzer) BuiltinsEnabled() bool { return boolOr(a.Builtins, true) }

func (o Output) ColorEnabled() bool { return boolOr(o.Color, true) }

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
