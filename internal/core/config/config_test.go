package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"symscope/internal/engine/symtab"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symscope.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
watch_paths = ["./src"]

[limits]
max_depth = 32
max_params = 6
max_ident_len = 31

[exclude]
dirs = [".git"]
files = ["*_gen.go"]
symbols = ["_*"]

[analyzer]
languages = ["Go"]
report_shadowing = false

[watch]
debounce = "1s"
max_events_per_second = 5.5
burst = 3

[output]
format = "Markdown"
color = false
dump_scopes = true

[observability]
metrics_addr = "127.0.0.1:9464"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.WatchPaths) != 1 || cfg.WatchPaths[0] != "./src" {
		t.Errorf("Unexpected WatchPaths: %v", cfg.WatchPaths)
	}
	want := symtab.Limits{MaxDepth: 32, MaxParams: 6, MaxIdentLen: 31}
	if got := cfg.SymtabLimits(); got != want {
		t.Errorf("Expected limits %+v, got %+v", want, got)
	}
	if len(cfg.Analyzer.Languages) != 1 || cfg.Analyzer.Languages[0] != "go" {
		t.Errorf("Expected normalized languages [go], got %v", cfg.Analyzer.Languages)
	}
	if cfg.Analyzer.ShadowingEnabled() {
		t.Error("Expected shadowing reports disabled")
	}
	if !cfg.Analyzer.UnresolvedEnabled() {
		t.Error("Expected unresolved reports enabled by default")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxEventsPerSecond != 5.5 || cfg.Watch.Burst != 3 {
		t.Errorf("Unexpected watch rate %v/%d", cfg.Watch.MaxEventsPerSecond, cfg.Watch.Burst)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Expected format markdown, got %s", cfg.Output.Format)
	}
	if cfg.Output.ColorEnabled() {
		t.Error("Expected color disabled")
	}
	if !cfg.Output.DumpScopes {
		t.Error("Expected dump_scopes true")
	}
	if cfg.Observability.MetricsAddr != "127.0.0.1:9464" {
		t.Errorf("Unexpected metrics addr %q", cfg.Observability.MetricsAddr)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `version = 1`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Limits.MaxDepth != symtab.DefaultMaxDepth {
		t.Errorf("Expected default max depth %d, got %d", symtab.DefaultMaxDepth, cfg.Limits.MaxDepth)
	}
	if cfg.Limits.MaxParams != symtab.DefaultMaxParams {
		t.Errorf("Expected default max params %d, got %d", symtab.DefaultMaxParams, cfg.Limits.MaxParams)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Expected default format text, got %s", cfg.Output.Format)
	}
	if len(cfg.WatchPaths) != 1 || cfg.WatchPaths[0] != "." {
		t.Errorf("Expected default watch path '.', got %v", cfg.WatchPaths)
	}
	if !cfg.Output.ColorEnabled() || !cfg.Analyzer.BuiltinsEnabled() {
		t.Error("Expected color and builtins enabled by default")
	}
}

func TestDefaultConfigMatchesLoadDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Version != 1 || cfg.Limits.MaxDepth != symtab.DefaultMaxDepth {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Analyzer.Languages) != 2 {
		t.Errorf("Expected go and python by default, got %v", cfg.Analyzer.Languages)
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"version", "version = 3", "unsupported config version"},
		{"negative depth", "[limits]\nmax_depth = -1", "limits.max_depth"},
		{"huge depth", "[limits]\nmax_depth = 100000", "limits.max_depth"},
		{"negative params", "[limits]\nmax_params = -2", "limits.max_params"},
		{"negative ident len", "[limits]\nmax_ident_len = -1", "limits.max_ident_len"},
		{"language", "[analyzer]\nlanguages = [\"cobol\"]", "unsupported language"},
		{"glob", "[exclude]\nsymbols = [\"[\"]", "exclude.symbols"},
		{"format", "[output]\nformat = \"xml\"", "output.format"},
		{"burst", "[watch]\nburst = -1", "watch.burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SYMSCOPE_LIMITS_MAX_DEPTH", "7")
	t.Setenv("SYMSCOPE_WATCH_DEBOUNCE", "250ms")
	t.Setenv("SYMSCOPE_OUTPUT_DUMP_SCOPES", "TRUE")
	t.Setenv("SYMSCOPE_LIMITS_MAX_PARAMS", "not-a-number")

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Limits.MaxDepth != 7 {
		t.Errorf("Expected env max depth 7, got %d", cfg.Limits.MaxDepth)
	}
	if cfg.Limits.MaxParams != symtab.DefaultMaxParams {
		t.Errorf("Invalid env value must be ignored, got %d", cfg.Limits.MaxParams)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Expected env debounce 250ms, got %v", cfg.Watch.Debounce)
	}
	if !cfg.Output.DumpScopes {
		t.Error("Expected env dump_scopes true")
	}
}
