package symtab

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Dump writes a listing of the table. The layout is for humans only.
func (t *Table) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tTYPE\tSIZE\tADDR\tLINE\tLEN\tPARAMS\tVALUE")
	for sym := range t.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			sym.name, sym.Kind, sym.ElemType, sym.Size, sym.Addr, sym.line, sym.Length,
			FormatParams(sym.params), formatValue(sym.value))
	}
	return tw.Flush()
}

// Dump writes every open scope, innermost first.
func (s *Stack) Dump(w io.Writer) error {
	for depth, t := range s.All() {
		if _, err := fmt.Fprintf(w, "scope %d (%d symbols)\n", depth, t.Len()); err != nil {
			return err
		}
		if err := t.Dump(w); err != nil {
			return err
		}
	}
	return nil
}

// FormatParams renders a parameter list as "(int, real)".
func FormatParams(params []Type) string {
	if len(params) == 0 {
		return "()"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatValue(v Value) string {
	if v == nil {
		return "-"
	}
	return v.String()
}
