package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: SYMSCOPE_[SECTION]_[KEY] (e.g., SYMSCOPE_LIMITS_MAX_DEPTH).
func ApplyEnvOverrides(cfg *Config) {
	// Limits
	setEnvInt(&cfg.Limits.MaxDepth, "SYMSCOPE_LIMITS_MAX_DEPTH")
	setEnvInt(&cfg.Limits.MaxParams, "SYMSCOPE_LIMITS_MAX_PARAMS")
	setEnvInt(&cfg.Limits.MaxIdentLen, "SYMSCOPE_LIMITS_MAX_IDENT_LEN")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "SYMSCOPE_WATCH_DEBOUNCE")

	// Output
	setEnvString(&cfg.Output.Format, "SYMSCOPE_OUTPUT_FORMAT")
	setEnvBool(&cfg.Output.DumpScopes, "SYMSCOPE_OUTPUT_DUMP_SCOPES")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "SYMSCOPE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "SYMSCOPE_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
