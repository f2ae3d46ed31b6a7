package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"symscope/internal/engine/analyzer"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// TextRenderer prints reports for a terminal.
type TextRenderer struct {
	w io.Writer

	title  lipgloss.Style
	path   lipgloss.Style
	errorS lipgloss.Style
	warn   lipgloss.Style
	ok     lipgloss.Style
	status lipgloss.Style
	header lipgloss.Style
	border lipgloss.Style
	cell   lipgloss.Style
}

// NewTextRenderer styles output for w. With color off every style renders
// plain text.
func NewTextRenderer(w io.Writer, color bool) *TextRenderer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &TextRenderer{
		w:      w,
		title:  r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		path:   r.NewStyle().Bold(true),
		errorS: r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		status: r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
		header: r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true).Padding(0, 1),
		border: r.NewStyle().Foreground(lipgloss.Color("#64748B")),
		cell:   r.NewStyle().Padding(0, 1),
	}
}

func (t *TextRenderer) Render(reports []*analyzer.Report, opts Options) error {
	var b strings.Builder
	for _, r := range reports {
		t.renderReport(&b, r, opts)
	}
	t.renderSummary(&b, Summarize(reports))
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *TextRenderer) severity(kind analyzer.DiagnosticKind) lipgloss.Style {
	switch kind {
	case analyzer.DiagUnresolved, analyzer.DiagRedeclared, analyzer.DiagNestingTooDeep:
		return t.errorS
	}
	return t.warn
}

func (t *TextRenderer) renderReport(b *strings.Builder, r *analyzer.Report, opts Options) {
	b.WriteString(t.path.Render(r.Path))
	b.WriteString(t.status.Render(fmt.Sprintf("  %s, %d scopes, depth %d, %d symbols, %s",
		r.Language, r.Stats.ScopesOpened, r.Stats.MaxDepth, r.Stats.SymbolsInstalled, r.Duration.Round(time.Microsecond))))
	b.WriteString("\n")
	if r.Aborted {
		b.WriteString("  " + t.errorS.Render("analysis aborted: scope nesting too deep") + "\n")
	}

	for _, d := range sortedDiagnostics(r.Diagnostics) {
		line := fmt.Sprintf("  %d:%d %s %s", d.Location.Line, d.Location.Column,
			t.severity(d.Kind).Render(string(d.Kind)), d.Message)
		b.WriteString(line + "\n")
	}
	if len(r.Diagnostics) == 0 && !r.Aborted {
		b.WriteString("  " + t.ok.Render("no diagnostics") + "\n")
	}

	if opts.DumpScopes {
		for _, scope := range r.Scopes {
			t.renderScope(b, scope)
		}
	}
	b.WriteString("\n")
}

func (t *TextRenderer) renderScope(b *strings.Builder, scope analyzer.ScopeSnapshot) {
	b.WriteString(t.title.Render(fmt.Sprintf("  scope %d %s %s (line %d, %d symbols)",
		scope.Depth, scope.Kind, scope.Name, scope.Line, len(scope.Symbols))))
	b.WriteString("\n")
	if len(scope.Symbols) == 0 {
		return
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.border).
		Headers("NAME", "KIND", "TYPE", "SIZE", "ADDR", "LINE", "LEN", "PARAMS", "VALUE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.header
			}
			return t.cell
		})
	for _, sym := range scope.Symbols {
		tbl.Row(
			sym.Name,
			sym.Kind.String(),
			sym.Type.String(),
			strconv.Itoa(sym.Size),
			strconv.Itoa(sym.Addr),
			strconv.Itoa(sym.Line),
			strconv.Itoa(sym.Length),
			formatParams(sym),
			nonEmpty(sym.Value, "-"),
		)
	}
	b.WriteString(tbl.String())
	b.WriteString("\n")
}

func (t *TextRenderer) renderSummary(b *strings.Builder, s Summary) {
	b.WriteString(t.title.Render("Summary") + "\n")
	b.WriteString(fmt.Sprintf("  files: %d  scopes: %d  symbols: %d  max depth: %d\n",
		s.Files, s.Scopes, s.Symbols, s.MaxDepth))
	if s.Aborted > 0 {
		b.WriteString("  " + t.errorS.Render(fmt.Sprintf("aborted: %d", s.Aborted)) + "\n")
	}
	if s.TotalDiagnostics() == 0 {
		b.WriteString("  " + t.ok.Render("no diagnostics") + "\n")
		return
	}
	for _, kind := range s.Kinds() {
		b.WriteString(fmt.Sprintf("  %s: %d\n", t.severity(kind).Render(string(kind)), s.Diagnostics[kind]))
	}
}
