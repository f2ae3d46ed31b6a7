package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"symscope/internal/core/config"
	"symscope/internal/shared/observability"
)

const defaultConfigPath = "./symscope.toml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to config file")
	once       = flag.Bool("once", false, "Analyze once and exit")
	watchMode  = flag.Bool("watch", false, "Keep watching paths and re-analyze changed files")
	format     = flag.String("format", "", "Output format: text or markdown (overrides config)")
	dump       = flag.Bool("dump", false, "Print every closed scope with its symbols")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("symscope v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.WatchPaths = flag.Args()
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *dump {
		cfg.Output.DumpScopes = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg))
}

// loadConfig falls back to the defaults when the default config file does not
// exist. An explicitly named file must load.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			slog.Debug("config file not found, using defaults", "path", path)
			cfg = config.DefaultConfig()
			config.ApplyEnvOverrides(cfg)
			return cfg, nil
		}
	}
	return nil, err
}

func run(ctx context.Context, cfg *config.Config) int {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewServer(cfg.Observability.MetricsAddr)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start metrics server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	app, err := NewApp(cfg, os.Stdout)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}

	if err := app.InitialScan(ctx); err != nil {
		slog.Error("initial scan failed", "error", err)
		return 1
	}
	reports := app.Reports()
	if err := app.Publish(reports); err != nil {
		slog.Error("failed to publish reports", "error", err)
		return 1
	}

	if *once || !*watchMode {
		if Aborted(reports) > 0 {
			return 2
		}
		return 0
	}

	w, err := app.StartWatcher(ctx)
	if err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}
	defer w.Close()

	slog.Info("watching for changes", "paths", cfg.WatchPaths)
	<-ctx.Done()
	slog.Info("shutting down")
	return 0
}
