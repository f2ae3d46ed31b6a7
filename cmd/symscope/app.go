package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"symscope/internal/core/config"
	"symscope/internal/core/watcher"
	"symscope/internal/engine/analyzer"
	"symscope/internal/shared/observability"
	"symscope/internal/shared/util"
	"symscope/internal/ui/report"
)

type App struct {
	Config   *config.Config
	Analyzer *analyzer.Analyzer

	out     io.Writer
	limiter *util.Limiter

	mu      sync.Mutex
	reports map[string]*analyzer.Report
}

func NewApp(cfg *config.Config, out io.Writer) (*App, error) {
	opts := analyzer.OptionsFromConfig(cfg)
	opts.Observer = observability.NewStackMetrics()

	a, err := analyzer.New(opts)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:   cfg,
		Analyzer: a,
		out:      out,
		limiter:  util.NewLimiter(cfg.Watch.MaxEventsPerSecond, cfg.Watch.Burst),
		reports:  make(map[string]*analyzer.Report),
	}, nil
}

func (a *App) InitialScan(ctx context.Context) error {
	reports, err := a.Analyzer.AnalyzePaths(ctx, a.Config.WatchPaths)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range reports {
		a.reports[r.Path] = r
	}
	return nil
}

// Reports returns the latest report of every analyzed file, ordered by path.
func (a *App) Reports() []*analyzer.Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*analyzer.Report, 0, len(a.reports))
	for _, r := range a.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (a *App) renderOptions() report.Options {
	return report.Options{
		Format:      a.Config.Output.Format,
		Color:       a.Config.Output.ColorEnabled(),
		DumpScopes:  a.Config.Output.DumpScopes,
		Version:     VERSION,
		GeneratedAt: time.Now().UTC(),
	}
}

// Publish renders the current reports to the terminal and, when configured,
// to the output file.
func (a *App) Publish(reports []*analyzer.Report) error {
	opts := a.renderOptions()
	if err := report.Render(a.out, reports, opts); err != nil {
		return err
	}

	if a.Config.Output.File == "" {
		return nil
	}
	// The file never carries terminal styling.
	opts.Color = false
	var buf bytes.Buffer
	if err := report.Render(&buf, reports, opts); err != nil {
		return err
	}
	return report.WriteFile(a.Config.Output.File, buf.String())
}

// HandleChanges re-analyzes a batch of changed paths. Removed files drop
// their report. Batches beyond the configured rate wait for a token.
func (a *App) HandleChanges(ctx context.Context, paths []string) {
	if err := a.limiter.Wait(ctx); err != nil {
		slog.Warn("dropping change batch", "count", len(paths), "error", err)
		return
	}
	slog.Info("detected changes", "count", len(paths))
	start := time.Now()

	var changed []*analyzer.Report
	for _, path := range paths {
		if a.Analyzer.Excluded(path) || !a.Analyzer.Supports(path) {
			continue
		}

		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			a.mu.Lock()
			delete(a.reports, path)
			a.mu.Unlock()
			continue
		}
		if err != nil {
			slog.Warn("failed to read changed file", "path", path, "error", err)
			continue
		}

		r, err := a.Analyzer.AnalyzeInPackage(ctx, path, content)
		if err != nil {
			slog.Warn("failed to re-analyze file", "path", path, "error", err)
		}
		if r == nil {
			continue
		}
		a.mu.Lock()
		a.reports[path] = r
		a.mu.Unlock()
		changed = append(changed, r)
	}

	if len(changed) > 0 {
		if err := a.Publish(changed); err != nil {
			slog.Error("failed to publish reports", "error", err)
		}
	}
	slog.Debug("change batch handled", "files", len(changed), "duration", time.Since(start))
}

// StartWatcher watches the configured paths until ctx is done.
func (a *App) StartWatcher(ctx context.Context) (*watcher.Watcher, error) {
	w, err := watcher.New(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Extensions:   a.Analyzer.Extensions(),
	}, func(paths []string) {
		a.HandleChanges(ctx, paths)
	})
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Watch(a.Config.WatchPaths); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch paths: %w", err)
	}
	return w, nil
}

// Aborted counts reports whose analysis stopped at the nesting bound.
func Aborted(reports []*analyzer.Report) int {
	n := 0
	for _, r := range reports {
		if r.Aborted {
			n++
		}
	}
	return n
}
