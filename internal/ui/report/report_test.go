package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"symscope/internal/engine/analyzer"
	"symscope/internal/engine/symtab"
)

func sampleReports() []*analyzer.Report {
	return []*analyzer.Report{
		{
			RunID:    "run-1",
			Path:     "main.go",
			Language: "go",
			Scopes: []analyzer.ScopeSnapshot{
				{
					Depth: 3,
					Kind:  analyzer.ScopeFunction,
					Name:  "add",
					Line:  9,
					Symbols: []analyzer.SymbolEntry{
						{Name: "total", Kind: symtab.KindVariable, Type: symtab.TypeInt, Size: 4, Addr: 8, Line: 10, Length: 1},
					},
				},
				{
					Depth: 2,
					Kind:  analyzer.ScopeFile,
					Name:  "main.go",
					Line:  1,
					Symbols: []analyzer.SymbolEntry{
						{Name: "limit", Kind: symtab.KindConstant, Type: symtab.TypeInt, Size: 4, Line: 5, Length: 1, Value: "10"},
						{Name: "add", Kind: symtab.KindFunction, Type: symtab.TypeInt, Line: 9, Length: 1,
							Params: []symtab.Type{symtab.TypeInt, symtab.TypeInt}},
					},
				},
			},
			Diagnostics: []analyzer.Diagnostic{
				{Kind: analyzer.DiagUnresolved, Name: "missing", Message: "missing is not declared in any enclosing scope",
					Location: analyzer.Location{File: "main.go", Line: 15, Column: 17}},
				{Kind: analyzer.DiagShadowed, Name: "count", Message: "count shadows the declaration on line 7",
					Location: analyzer.Location{File: "main.go", Line: 12, Column: 3}, RelatedLine: 7},
			},
			Stats: analyzer.Stats{ScopesOpened: 5, MaxDepth: 5, SymbolsInstalled: 8, Lookups: 10, LookupHits: 9},
		},
		{
			RunID:    "run-2",
			Path:     "deep.py",
			Language: "python",
			Aborted:  true,
			Stats:    analyzer.Stats{ScopesOpened: 3, MaxDepth: 3},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleReports())
	if s.Files != 2 || s.Aborted != 1 {
		t.Fatalf("unexpected file counts: %+v", s)
	}
	if s.Scopes != 8 || s.MaxDepth != 5 || s.Symbols != 8 {
		t.Errorf("unexpected totals: %+v", s)
	}
	if s.TotalDiagnostics() != 2 {
		t.Errorf("expected 2 diagnostics, got %d", s.TotalDiagnostics())
	}
	kinds := s.Kinds()
	if len(kinds) != 2 || kinds[0] != analyzer.DiagShadowed || kinds[1] != analyzer.DiagUnresolved {
		t.Errorf("expected sorted kinds [shadowed unresolved], got %v", kinds)
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReports(), Options{Format: FormatText, DumpScopes: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"main.go",
		"12:3 shadowed count shadows",
		"15:17 unresolved missing",
		"analysis aborted",
		"scope 3 function add",
		"NAME", "PARAMS",
		"int,int",
		"Summary",
		"unresolved: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "12:3") > strings.Index(out, "15:17") {
		t.Error("diagnostics must be ordered by line")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no escape sequences with color disabled")
	}
}

func TestRenderTextNoDump(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReports()[:1], Options{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "PARAMS") {
		t.Error("scope tables must only be printed when dumping scopes")
	}
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{
		Format:      FormatMarkdown,
		DumpScopes:  true,
		Version:     "v1.2.3",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := Render(&buf, sampleReports(), opts); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"generated_at: 2026-01-02T03:04:05Z",
		"version: v1.2.3",
		"| Files | 2 |",
		"| Diagnostics | 2 |",
		"## main.go",
		"| 15 | 17 | unresolved | `missing` |",
		"### Scope 2: file `main.go` (line 1)",
		"| `limit` | constant | int | 4 | 0 | 5 | 1 | - | 10 |",
		"**aborted**",
		"No diagnostics.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q\n%s", want, out)
		}
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, nil, Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestEscapeCell(t *testing.T) {
	if got := escapeCell("a|b\nc"); got != `a\|b c` {
		t.Errorf("unexpected escape result %q", got)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.md")
	if err := WriteFile(path, "first"); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, "second"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}
