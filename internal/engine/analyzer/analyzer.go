package analyzer

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"symscope/internal/core/config"
	"symscope/internal/core/errors"
	"symscope/internal/engine/symtab"
	"symscope/internal/shared/observability"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Options struct {
	Limits         symtab.Limits
	Languages      []string
	ExcludeDirs    []string
	ExcludeFiles   []string
	ExcludeSymbols []string

	ReportUnresolved bool
	ReportShadowing  bool
	// Builtins installs the language's predeclared names in a universe scope
	// below the file scope.
	Builtins bool

	// Observer receives the scope events of every stack the analyzer creates.
	Observer symtab.Observer
}

// DefaultOptions analyzes Go and Python with every report enabled.
func DefaultOptions() Options {
	return Options{
		Limits:           symtab.DefaultLimits(),
		Languages:        []string{"go", "python"},
		ReportUnresolved: true,
		ReportShadowing:  true,
		Builtins:         true,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Limits:           cfg.SymtabLimits(),
		Languages:        cfg.Analyzer.Languages,
		ExcludeDirs:      cfg.Exclude.Dirs,
		ExcludeFiles:     cfg.Exclude.Files,
		ExcludeSymbols:   cfg.Exclude.Symbols,
		ReportUnresolved: cfg.Analyzer.UnresolvedEnabled(),
		ReportShadowing:  cfg.Analyzer.ShadowingEnabled(),
		Builtins:         cfg.Analyzer.BuiltinsEnabled(),
	}
}

// Analyzer builds scope reports for source files. Each file gets its own
// scope stack, so AnalyzeFile may be called from several goroutines.
type Analyzer struct {
	opts     Options
	registry *registry

	dirGlobs    []glob.Glob
	fileGlobs   []glob.Glob
	symbolGlobs []glob.Glob
}

func New(opts Options) (*Analyzer, error) {
	if len(opts.Languages) == 0 {
		opts.Languages = DefaultOptions().Languages
	}
	reg, err := newRegistry(opts.Languages)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotSupported, "configure analyzer")
	}

	a := &Analyzer{opts: opts, registry: reg}
	if a.dirGlobs, err = compileGlobs("exclude dir", opts.ExcludeDirs); err != nil {
		return nil, err
	}
	if a.fileGlobs, err = compileGlobs("exclude file", opts.ExcludeFiles); err != nil {
		return nil, err
	}
	if a.symbolGlobs, err = compileGlobs("exclude symbol", opts.ExcludeSymbols); err != nil {
		return nil, err
	}
	return a, nil
}

func compileGlobs(what string, patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid %s pattern %q", what, p))
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Languages returns the enabled language names, sorted.
func (a *Analyzer) Languages() []string {
	return a.registry.names()
}

// Supports reports whether path has an extension of an enabled language.
func (a *Analyzer) Supports(path string) bool {
	_, ok := a.registry.forPath(path)
	return ok
}

// Extensions returns the file extensions of the enabled languages.
func (a *Analyzer) Extensions() []string {
	var exts []string
	for ext := range a.registry.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// AnalyzeFile builds the scope report of one source file on its own. Names
// declared by other files of a Go package are not known; use AnalyzeInPackage
// or AnalyzePaths for those. When scope nesting exceeds the stack bound the
// report is returned with Aborted set, together with the overflow error.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string, src []byte) (*Report, error) {
	return a.analyze(ctx, path, src, nil)
}

// AnalyzeInPackage is AnalyzeFile with the package-level declarations of the
// other files in path's directory and package visible.
func (a *Analyzer) AnalyzeInPackage(ctx context.Context, path string, src []byte) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.analyze(ctx, path, src, a.siblingPackage(path, src))
}

func (a *Analyzer) analyze(ctx context.Context, path string, src []byte, pkg *packageScope) (*Report, error) {
	lang, ok := a.registry.forPath(path)
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "no analyzer for file extension"), errors.CtxPath, path)
	}
	langName := lang.frontend.name()

	ctx, span := observability.Tracer.Start(ctx, "analyzer.AnalyzeFile")
	defer span.End()
	span.SetAttributes(attribute.String("file.path", path), attribute.String("language", langName))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{
		RunID:      uuid.NewString(),
		Path:       path,
		Language:   langName,
		AnalyzedAt: start,
	}

	sp := lang.pool.Get()
	tree := sp.Parse(src, nil)
	lang.pool.Put(sp)
	if tree == nil {
		observability.FilesAnalyzedTotal.WithLabelValues(langName, "error").Inc()
		return nil, errors.Wrapf(nil, errors.CodeInternal, "parser returned no tree").
			WithContext(errors.CtxPath, path).
			WithContext(errors.CtxLanguage, langName)
	}
	defer tree.Close()

	opts := a.opts
	s := newSession(&opts, a.symbolGlobs, path, src, report)
	s.openUniverse(lang.frontend.builtins())
	if pkg != nil {
		s.openPackage(pkg.name, pkg.siblings(path))
	}
	lang.frontend.analyze(s, tree.RootNode())
	for top := s.top(); top != nil && !s.failed() && (top.kind == ScopePackage || top.kind == ScopeUniverse); top = s.top() {
		s.close()
	}

	report.Duration = time.Since(start)
	observability.AnalysisDuration.WithLabelValues(langName).Observe(report.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("scopes.opened", report.Stats.ScopesOpened),
		attribute.Int("scopes.max_depth", report.Stats.MaxDepth),
		attribute.Int("diagnostics", len(report.Diagnostics)),
	)

	if s.err != nil {
		report.Aborted = true
		s.stack.Unwind()
		observability.FilesAnalyzedTotal.WithLabelValues(langName, "aborted").Inc()
		span.RecordError(s.err)
		span.SetStatus(codes.Error, "analysis aborted")
		err := errors.AddContext(s.err, errors.CtxPath, path)
		return report, errors.AddContext(err, errors.CtxLanguage, langName)
	}
	observability.FilesAnalyzedTotal.WithLabelValues(langName, "ok").Inc()
	return report, nil
}

// ScanPaths walks paths and returns the files of enabled languages that the
// exclude patterns keep. Files are returned as given, directories are walked.
func (a *Analyzer) ScanPaths(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)

			if d.IsDir() {
				if path != root && matchAny(a.dirGlobs, base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !a.Supports(path) || matchAny(a.fileGlobs, base) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	return files, nil
}

// Excluded reports whether path falls under an excluded directory or file
// pattern.
func (a *Analyzer) Excluded(path string) bool {
	if matchAny(a.fileGlobs, filepath.Base(path)) {
		return true
	}
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if matchAny(a.dirGlobs, filepath.Base(dir)) {
			return true
		}
		if filepath.Dir(dir) == dir {
			return false
		}
	}
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// AnalyzePaths analyzes every file found under paths. Go files of one
// directory and package clause see each other's package-level declarations.
// Files that fail to read or abort are logged and skipped; their partial
// reports are still returned.
func (a *Analyzer) AnalyzePaths(ctx context.Context, paths []string) ([]*Report, error) {
	files, err := a.ScanPaths(paths)
	if err != nil {
		return nil, err
	}

	sources := make([]sourceFile, 0, len(files))
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read file", "path", path, "error", err)
			continue
		}
		sources = append(sources, sourceFile{path: path, src: content})
	}
	packages := a.loadPackages(sources)

	reports := make([]*Report, 0, len(sources))
	for _, f := range sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := a.analyze(ctx, f.path, f.src, packages[f.path])
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return reports, err
			}
			slog.Warn("failed to analyze file", "path", f.path, "error", err)
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports, nil
}
