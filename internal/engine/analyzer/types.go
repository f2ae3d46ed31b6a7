package analyzer

import (
	"time"

	"symscope/internal/engine/symtab"
)

type DiagnosticKind string

const (
	DiagUnresolved     DiagnosticKind = "unresolved"
	DiagShadowed       DiagnosticKind = "shadowed"
	DiagRedeclared     DiagnosticKind = "redeclared"
	DiagUnhashable     DiagnosticKind = "unhashable"
	DiagTooManyParams  DiagnosticKind = "too_many_params"
	DiagNestingTooDeep DiagnosticKind = "nesting_too_deep"
	DiagLimitExceeded  DiagnosticKind = "limit_exceeded"
)

type Location struct {
	File   string
	Line   int
	Column int
}

type Diagnostic struct {
	Kind     DiagnosticKind
	Name     string
	Message  string
	Location Location
	// RelatedLine is the declaration line an earlier record was installed at,
	// for shadowed and redeclared names.
	RelatedLine int
}

type ScopeKind string

const (
	ScopeUniverse      ScopeKind = "universe"
	ScopePackage       ScopeKind = "package"
	ScopeFile          ScopeKind = "file"
	ScopeFunction      ScopeKind = "function"
	ScopeBlock         ScopeKind = "block"
	ScopeClass         ScopeKind = "class"
	ScopeComprehension ScopeKind = "comprehension"
)

// SymbolEntry is a copy of a symbol record taken before its scope closed.
type SymbolEntry struct {
	Name   string
	Kind   symtab.Kind
	Type   symtab.Type
	Size   int
	Addr   int
	Line   int
	Length int
	Params []symtab.Type
	Value  string
}

type ScopeSnapshot struct {
	Depth   int
	Kind    ScopeKind
	Name    string
	Line    int
	Symbols []SymbolEntry
}

type Stats struct {
	ScopesOpened     int
	MaxDepth         int
	SymbolsInstalled int
	Lookups          int
	LookupHits       int
}

type Report struct {
	RunID       string
	Path        string
	Language    string
	Scopes      []ScopeSnapshot // in closing order, innermost first
	Diagnostics []Diagnostic
	Stats       Stats
	Aborted     bool
	AnalyzedAt  time.Time
	Duration    time.Duration
}

// DiagnosticsOf returns the diagnostics of the given kind.
func (r *Report) DiagnosticsOf(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Lookup finds the snapshot entry for name in the first closed scope that
// satisfies match, or in any scope when match is nil.
func (r *Report) Lookup(name string, match func(ScopeSnapshot) bool) (SymbolEntry, bool) {
	for _, scope := range r.Scopes {
		if match != nil && !match(scope) {
			continue
		}
		for _, sym := range scope.Symbols {
			if sym.Name == name {
				return sym, true
			}
		}
	}
	return SymbolEntry{}, false
}
