package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// hardMaxDepth caps max_depth so a typo cannot allocate a huge scope stack.
const hardMaxDepth = 4096

var supportedLanguages = map[string]bool{
	"go":     true,
	"python": true,
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateLimits(cfg *Config) error {
	if cfg.Limits.MaxDepth < 1 || cfg.Limits.MaxDepth > hardMaxDepth {
		return fmt.Errorf("limits.max_depth must be between 1 and %d, got %d", hardMaxDepth, cfg.Limits.MaxDepth)
	}
	if cfg.Limits.MaxParams < 1 {
		return fmt.Errorf("limits.max_params must be >= 1, got %d", cfg.Limits.MaxParams)
	}
	if cfg.Limits.MaxIdentLen < 0 {
		return fmt.Errorf("limits.max_ident_len must be >= 0, got %d", cfg.Limits.MaxIdentLen)
	}
	return nil
}

func validateAnalyzer(cfg *Config) error {
	if len(cfg.Analyzer.Languages) == 0 {
		return fmt.Errorf("analyzer.languages must name at least one language")
	}
	for _, lang := range cfg.Analyzer.Languages {
		if !supportedLanguages[lang] {
			return fmt.Errorf("analyzer.languages: unsupported language %q", lang)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	groups := map[string][]string{
		"exclude.dirs":    cfg.Exclude.Dirs,
		"exclude.files":   cfg.Exclude.Files,
		"exclude.symbols": cfg.Exclude.Symbols,
	}
	for key, patterns := range groups {
		for _, pattern := range patterns {
			if _, err := glob.Compile(pattern); err != nil {
				return fmt.Errorf("%s: invalid pattern %q: %w", key, pattern, err)
			}
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxEventsPerSecond < 0 {
		return fmt.Errorf("watch.max_events_per_second must not be negative")
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1, got %d", cfg.Watch.Burst)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case "text", "markdown":
		return nil
	default:
		return fmt.Errorf("output.format must be one of: text, markdown; got %q", cfg.Output.Format)
	}
}
