package report

import (
	"fmt"
	"strings"
	"time"

	"symscope/internal/engine/analyzer"
)

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(reports []*analyzer.Report, opts Options) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	summary := Summarize(reports)

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Scope Analysis Report\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Scope Analysis Report\n\n")
	b.WriteString("## Executive Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Files | %d |\n", summary.Files))
	b.WriteString(fmt.Sprintf("| Aborted | %d |\n", summary.Aborted))
	b.WriteString(fmt.Sprintf("| Scopes Opened | %d |\n", summary.Scopes))
	b.WriteString(fmt.Sprintf("| Symbols Installed | %d |\n", summary.Symbols))
	b.WriteString(fmt.Sprintf("| Max Depth | %d |\n", summary.MaxDepth))
	b.WriteString(fmt.Sprintf("| Diagnostics | %d |\n\n", summary.TotalDiagnostics()))

	for _, r := range reports {
		b.WriteString("## " + escapeCell(r.Path) + "\n")
		b.WriteString(fmt.Sprintf("Language: `%s`, run `%s`", r.Language, r.RunID))
		if r.Aborted {
			b.WriteString(", **aborted**")
		}
		b.WriteString("\n\n")

		if len(r.Diagnostics) == 0 {
			b.WriteString("No diagnostics.\n\n")
		} else {
			b.WriteString("| Line | Column | Kind | Name | Message |\n")
			b.WriteString("| --- | --- | --- | --- | --- |\n")
			for _, d := range sortedDiagnostics(r.Diagnostics) {
				b.WriteString(fmt.Sprintf("| %d | %d | %s | `%s` | %s |\n",
					d.Location.Line, d.Location.Column, d.Kind, escapeCell(d.Name), escapeCell(d.Message)))
			}
			b.WriteString("\n")
		}

		if opts.DumpScopes {
			writeMarkdownScopes(&b, r.Scopes)
		}
	}
	return b.String(), nil
}

func writeMarkdownScopes(b *strings.Builder, scopes []analyzer.ScopeSnapshot) {
	for _, scope := range scopes {
		b.WriteString(fmt.Sprintf("### Scope %d: %s `%s` (line %d)\n", scope.Depth, scope.Kind, escapeCell(scope.Name), scope.Line))
		if len(scope.Symbols) == 0 {
			b.WriteString("Empty.\n\n")
			continue
		}
		b.WriteString("| Name | Kind | Type | Size | Addr | Line | Len | Params | Value |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, sym := range scope.Symbols {
			b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %d | %d | %d | %d | %s | %s |\n",
				sym.Name, sym.Kind, sym.Type, sym.Size, sym.Addr, sym.Line, sym.Length,
				formatParams(sym), escapeCell(nonEmpty(sym.Value, "-"))))
		}
		b.WriteString("\n")
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
