package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"symscope/internal/engine/analyzer"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

type Options struct {
	Format      string
	Color       bool
	DumpScopes  bool
	Version     string
	GeneratedAt time.Time
}

// Summary totals a batch of reports.
type Summary struct {
	Files       int
	Aborted     int
	Scopes      int
	Symbols     int
	MaxDepth    int
	Diagnostics map[analyzer.DiagnosticKind]int
}

func Summarize(reports []*analyzer.Report) Summary {
	s := Summary{Diagnostics: make(map[analyzer.DiagnosticKind]int)}
	for _, r := range reports {
		s.Files++
		if r.Aborted {
			s.Aborted++
		}
		s.Scopes += r.Stats.ScopesOpened
		s.Symbols += r.Stats.SymbolsInstalled
		if r.Stats.MaxDepth > s.MaxDepth {
			s.MaxDepth = r.Stats.MaxDepth
		}
		for _, d := range r.Diagnostics {
			s.Diagnostics[d.Kind]++
		}
	}
	return s
}

// TotalDiagnostics sums the diagnostic counts of every kind.
func (s Summary) TotalDiagnostics() int {
	total := 0
	for _, n := range s.Diagnostics {
		total += n
	}
	return total
}

// Kinds returns the diagnostic kinds present, sorted.
func (s Summary) Kinds() []analyzer.DiagnosticKind {
	kinds := make([]analyzer.DiagnosticKind, 0, len(s.Diagnostics))
	for k := range s.Diagnostics {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Render writes reports to w in the configured format.
func Render(w io.Writer, reports []*analyzer.Report, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return NewTextRenderer(w, opts.Color).Render(reports, opts)
	case FormatMarkdown:
		out, err := NewMarkdownGenerator().Generate(reports, opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
}

// sortedDiagnostics orders diagnostics by line, then column.
func sortedDiagnostics(ds []analyzer.Diagnostic) []analyzer.Diagnostic {
	out := append([]analyzer.Diagnostic(nil), ds...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location.Line != out[j].Location.Line {
			return out[i].Location.Line < out[j].Location.Line
		}
		return out[i].Location.Column < out[j].Location.Column
	})
	return out
}

func formatParams(entry analyzer.SymbolEntry) string {
	if len(entry.Params) == 0 {
		return "-"
	}
	names := make([]string, len(entry.Params))
	for i, p := range entry.Params {
		names[i] = p.String()
	}
	return strings.Join(names, ",")
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
