package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"symscope/internal/core/config"
	coreerrors "symscope/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Languages: []string{"cobol"}})
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotSupported))

	_, err = New(Options{ExcludeSymbols: []string{"["}})
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
}

func TestLanguagesDefault(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python"}, a.Languages())
	assert.True(t, a.Supports("x/y.py"))
	assert.True(t, a.Supports("main.GO"))
	assert.False(t, a.Supports("README.md"))
}

func TestAnalyzeFileUnsupported(t *testing.T) {
	a := newTestAnalyzer(t, func(o *Options) { o.Languages = []string{"go"} })
	_, err := a.AnalyzeFile(context.Background(), "script.py", []byte("x = 1\n"))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotSupported))
}

func TestAnalyzeFileCanceled(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.AnalyzeFile(ctx, "main.go", []byte("package main\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzePaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":           "package main\n\nfunc main() {}\n",
		"tool/run.py":       "def run():\n    return 1\n",
		"vendor/dep/dep.go": "package dep\n",
		"gen_types.go":      "package main\n",
		"notes.txt":         "not source",
	})

	a := newTestAnalyzer(t, func(o *Options) {
		o.ExcludeDirs = []string{"vendor"}
		o.ExcludeFiles = []string{"gen_*"}
	})
	reports, err := a.AnalyzePaths(context.Background(), []string{root})
	require.NoError(t, err)

	var paths []string
	for _, r := range reports {
		rel, err := filepath.Rel(root, r.Path)
		require.NoError(t, err)
		paths = append(paths, filepath.ToSlash(rel))
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"main.go", "tool/run.py"}, paths)

	assert.True(t, a.Excluded(filepath.Join(root, "vendor", "dep", "dep.go")))
	assert.True(t, a.Excluded(filepath.Join(root, "gen_types.go")))
	assert.False(t, a.Excluded(filepath.Join(root, "main.go")))
}

func TestAnalyzePathsKeepsAbortedReports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"deep.go": "package p\n\nfunc f() {\n\tif true {\n\t\tif true {\n\t\t}\n\t}\n}\n",
		"ok.go":   "package p\n",
	})
	a := newTestAnalyzer(t, func(o *Options) { o.Limits.MaxDepth = 3 })

	reports, err := a.AnalyzePaths(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	aborted := 0
	for _, r := range reports {
		if r.Aborted {
			aborted++
			assert.Equal(t, "deep.go", filepath.Base(r.Path))
		}
	}
	assert.Equal(t, 1, aborted)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	off := false
	cfg.Analyzer.ReportShadowing = &off
	cfg.Limits.MaxDepth = 9
	cfg.Exclude.Symbols = []string{"_*"}

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 9, opts.Limits.MaxDepth)
	assert.False(t, opts.ReportShadowing)
	assert.True(t, opts.ReportUnresolved)
	assert.True(t, opts.Builtins)
	assert.Equal(t, []string{"_*"}, opts.ExcludeSymbols)
	assert.Equal(t, cfg.Exclude.Dirs, opts.ExcludeDirs)
}

func reportFor(t *testing.T, reports []*Report, root, rel string) *Report {
	t.Helper()
	for _, r := range reports {
		if r.Path == filepath.Join(root, rel) {
			return r
		}
	}
	t.Fatalf("no report for %s", rel)
	return nil
}

func TestAnalyzePathsSharesGoPackageScope(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package p\n\nfunc run() int { return helper() + limit }\n\nfunc shadow() {\n\thelper := 1\n\t_ = helper\n}\n\nfunc init() {}\n",
		"b.go": "package p\n\nconst limit = 3\n\nfunc helper() int { return run() }\n\nfunc init() {}\n",
		// External test packages and other directories do not share the scope.
		"p_test.go": "package p_test\n\nfunc check() { helper() }\n",
		"sub/d.go":  "package p\n\nfunc g() { helper() }\n",
	})
	a := newTestAnalyzer(t, nil)
	reports, err := a.AnalyzePaths(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, reports, 4)

	ra := reportFor(t, reports, root, "a.go")
	assert.Empty(t, ra.DiagnosticsOf(DiagUnresolved))
	assert.Empty(t, ra.DiagnosticsOf(DiagRedeclared), "init may appear in every file")
	shadowed := ra.DiagnosticsOf(DiagShadowed)
	require.Len(t, shadowed, 1)
	assert.Equal(t, "helper", shadowed[0].Name)
	assert.Equal(t, 5, shadowed[0].RelatedLine)
	assert.Contains(t, shadowed[0].Message, "b.go line 5")
	for _, scope := range ra.Scopes {
		assert.NotEqual(t, ScopePackage, scope.Kind, "sibling records are not part of the file report")
	}
	_, ok := ra.Lookup("limit", nil)
	assert.False(t, ok)

	assert.Empty(t, reportFor(t, reports, root, "b.go").DiagnosticsOf(DiagUnresolved))
	assert.Equal(t, []string{"helper"}, diagNames(reportFor(t, reports, root, "p_test.go").DiagnosticsOf(DiagUnresolved)))
	assert.Equal(t, []string{"helper"}, diagNames(reportFor(t, reports, root, "sub/d.go").DiagnosticsOf(DiagUnresolved)))
}

func TestAnalyzePathsCrossFileRedeclaration(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package p\n\nvar dup int\n",
		"b.go": "package p\n\n\nfunc dup() {}\n",
	})
	a := newTestAnalyzer(t, nil)
	reports, err := a.AnalyzePaths(context.Background(), []string{root})
	require.NoError(t, err)

	redeclared := reportFor(t, reports, root, "a.go").DiagnosticsOf(DiagRedeclared)
	require.Len(t, redeclared, 1)
	assert.Equal(t, "dup", redeclared[0].Name)
	assert.Equal(t, 4, redeclared[0].RelatedLine)
	assert.Contains(t, redeclared[0].Message, "b.go line 4")
	assert.Len(t, reportFor(t, reports, root, "b.go").DiagnosticsOf(DiagRedeclared), 1)
}

func TestAnalyzeInPackage(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.go":     "package p\n\nfunc helper() int { return 1 }\n",
		"c.go":     "package q\n\nfunc other() {}\n",
		"gen_x.go": "package p\n\nfunc generated() {}\n",
	})
	path := filepath.Join(root, "a.go")
	src := []byte("package p\n\nfunc run() int { other(); generated(); return helper() }\n")
	require.NoError(t, os.WriteFile(path, src, 0644))

	a := newTestAnalyzer(t, func(o *Options) { o.ExcludeFiles = []string{"gen_*"} })
	report, err := a.AnalyzeInPackage(context.Background(), path, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "generated"}, diagNames(report.DiagnosticsOf(DiagUnresolved)))

	report, err = a.AnalyzeFile(context.Background(), path, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "generated", "helper"}, diagNames(report.DiagnosticsOf(DiagUnresolved)))
}
