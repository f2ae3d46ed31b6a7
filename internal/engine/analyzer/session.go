package analyzer

import (
	stderrors "errors"
	"fmt"
	"path/filepath"

	"symscope/internal/core/errors"
	"symscope/internal/engine/symtab"
	"symscope/internal/shared/observability"

	"github.com/gobwas/glob"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

type builtin struct {
	name string
	kind symtab.Kind
	typ  symtab.Type
}

// declMode controls what happens when a name is already in the current scope.
type declMode int

const (
	// declExclusive reports a second declaration as redeclared.
	declExclusive declMode = iota
	// declRebind silently reuses the record, as Python assignment does.
	declRebind
)

// frame is the analyzer's bookkeeping for one open table.
type frame struct {
	table    *symtab.Table
	kind     ScopeKind
	name     string
	line     int
	offset   int
	function bool
	// passthrough names were declared global or nonlocal in this frame.
	passthrough map[string]bool
}

// session analyzes one file on its own scope stack.
type session struct {
	source   []byte
	path     string
	opts     *Options
	excluded []glob.Glob

	stack  *symtab.Stack
	frames []*frame
	report *Report

	universeDepth int
	packageDepth  int
	// origins maps package-level names of sibling files to their file.
	origins    map[string]string
	unhashable map[string]bool
	err        error

	// quiet sessions only collect records and export no metrics.
	quiet bool
}

func newSession(opts *Options, excluded []glob.Glob, path string, source []byte, report *Report) *session {
	var stackOpts []symtab.StackOption
	if opts.Observer != nil {
		stackOpts = append(stackOpts, symtab.WithObserver(opts.Observer))
	}
	return &session{
		source:     source,
		path:       path,
		opts:       opts,
		excluded:   excluded,
		stack:      symtab.NewStack(opts.Limits, stackOpts...),
		report:     report,
		unhashable: make(map[string]bool),
	}
}

func (s *session) failed() bool { return s.err != nil }

func (s *session) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(s.source[node.StartByte():node.EndByte()])
}

func (s *session) location(node *sitter.Node) Location {
	return Location{
		File:   s.path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

func (s *session) top() *frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// functionFrame returns the innermost function scope, or the outermost frame.
func (s *session) functionFrame() *frame {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].function {
			return s.frames[i]
		}
	}
	return s.top()
}

// openUniverse installs the language builtins in the outermost scope.
func (s *session) openUniverse(items []builtin) {
	if !s.opts.Builtins {
		return
	}
	s.open(ScopeUniverse, "universe", 0, false)
	if s.failed() {
		return
	}
	table := s.top().table
	for _, b := range items {
		if !symtab.Hashable(b.name) {
			continue
		}
		sym, err := table.Install(b.name, 0)
		if err != nil {
			continue
		}
		sym.Kind = b.kind
		sym.ElemType = b.typ
	}
	s.universeDepth = s.stack.Depth()
}

// openPackage installs the package-level records of sibling files in a scope
// between the universe and the file scope.
func (s *session) openPackage(name string, decls []packageDecl) {
	if len(decls) == 0 {
		return
	}
	s.open(ScopePackage, name, 0, false)
	if s.failed() {
		return
	}
	table := s.top().table
	s.origins = make(map[string]string, len(decls))
	for _, d := range decls {
		if _, seen := s.origins[d.entry.Name]; seen {
			continue
		}
		sym, err := table.Install(d.entry.Name, d.entry.Line)
		if err != nil {
			continue
		}
		sym.Kind = d.entry.Kind
		sym.ElemType = d.entry.Type
		sym.Size = d.entry.Size
		sym.Addr = d.entry.Addr
		sym.Length = d.entry.Length
		_ = sym.SetParams(d.entry.Params...)
		setValue(sym, d.value)
		s.origins[d.entry.Name] = d.file
	}
	s.packageDepth = s.stack.Depth()
}

// declaredAt describes where the record of name found at depth was declared.
func (s *session) declaredAt(name string, depth, line int) string {
	if depth == s.packageDepth && s.packageDepth > 0 {
		if file, ok := s.origins[name]; ok {
			return fmt.Sprintf("%s line %d", filepath.Base(file), line)
		}
	}
	return fmt.Sprintf("line %d", line)
}

// open pushes a new scope. Function scopes start a fresh frame offset; other
// scopes continue the enclosing frame's offset.
func (s *session) open(kind ScopeKind, name string, line int, function bool) {
	if s.failed() {
		return
	}
	table := symtab.NewTable(s.stack.Limits())
	if err := s.stack.Push(table); err != nil {
		if stderrors.Is(err, symtab.ErrStackOverflow) {
			s.report.Diagnostics = append(s.report.Diagnostics, Diagnostic{
				Kind:     DiagNestingTooDeep,
				Name:     name,
				Message:  fmt.Sprintf("scope nesting exceeds %d levels", s.stack.MaxDepth()),
				Location: Location{File: s.path, Line: line},
			})
			if !s.quiet {
				observability.DiagnosticsTotal.WithLabelValues(string(DiagNestingTooDeep)).Inc()
			}
		}
		s.err = errors.AddContext(err, errors.CtxLine, line)
		return
	}

	f := &frame{table: table, kind: kind, name: name, line: line, function: function}
	if parent := s.top(); parent != nil && !function {
		f.offset = parent.offset
	}
	s.frames = append(s.frames, f)

	s.report.Stats.ScopesOpened++
	if depth := s.stack.Depth(); depth > s.report.Stats.MaxDepth {
		s.report.Stats.MaxDepth = depth
	}
}

// close snapshots the innermost scope and pops it.
func (s *session) close() {
	if s.failed() {
		return
	}
	f := s.top()
	if f == nil {
		s.err = errors.Wrap(symtab.ErrStackUnderflow, errors.CodeInternal, "analyzer closed more scopes than it opened")
		return
	}
	if f.kind != ScopeUniverse && f.kind != ScopePackage {
		s.report.Scopes = append(s.report.Scopes, snapshot(s.stack.Depth(), f))
	}
	if err := s.stack.Pop(); err != nil {
		s.err = errors.Wrap(err, errors.CodeInternal, "scope stack out of sync")
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func snapshot(depth int, f *frame) ScopeSnapshot {
	snap := ScopeSnapshot{
		Depth:   depth,
		Kind:    f.kind,
		Name:    f.name,
		Line:    f.line,
		Symbols: make([]SymbolEntry, 0, f.table.Len()),
	}
	for sym := range f.table.All() {
		entry := SymbolEntry{
			Name:   sym.Name(),
			Kind:   sym.Kind,
			Type:   sym.ElemType,
			Size:   sym.Size,
			Addr:   sym.Addr,
			Line:   sym.Line(),
			Length: sym.Length,
			Params: sym.Params(),
		}
		if v := sym.Value(); v != nil {
			entry.Value = v.String()
		}
		snap.Symbols = append(snap.Symbols, entry)
	}
	return snap
}

func (s *session) isExcluded(name string) bool {
	for _, g := range s.excluded {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// checkName filters names the tables cannot or should not hold.
func (s *session) checkName(name string, node *sitter.Node, declaring bool) bool {
	if name == "" || name == "_" || s.isExcluded(name) {
		return false
	}
	if !symtab.Hashable(name) {
		if declaring && !s.unhashable[name] {
			s.unhashable[name] = true
			s.diag(DiagUnhashable, name, node, 0, "identifier starts outside [a-z_] and is not tracked")
		}
		return false
	}
	return true
}

func (s *session) diag(kind DiagnosticKind, name string, node *sitter.Node, related int, msg string) {
	d := Diagnostic{Kind: kind, Name: name, Message: msg, RelatedLine: related}
	if node != nil {
		d.Location = s.location(node)
	} else {
		d.Location = Location{File: s.path}
	}
	s.report.Diagnostics = append(s.report.Diagnostics, d)
	if !s.quiet {
		observability.DiagnosticsTotal.WithLabelValues(string(kind)).Inc()
	}
}

// declare installs name in the innermost scope.
func (s *session) declare(node *sitter.Node, name string, kind symtab.Kind, typ symtab.Type, mode declMode) *symtab.Symbol {
	return s.declareIn(s.top(), node, name, kind, typ, 1, mode)
}

// declareArray installs an array of length elements of type elem.
func (s *session) declareArray(node *sitter.Node, name string, elem symtab.Type, length int, mode declMode) *symtab.Symbol {
	return s.declareIn(s.top(), node, name, symtab.KindArray, elem, length, mode)
}

func (s *session) declareIn(f *frame, node *sitter.Node, name string, kind symtab.Kind, typ symtab.Type, length int, mode declMode) *symtab.Symbol {
	if s.failed() || f == nil || !s.checkName(name, node, true) {
		return nil
	}
	if f.passthrough[name] {
		return nil
	}
	line := int(node.StartPosition().Row) + 1

	if existing, ok := f.table.Search(name); ok {
		if mode == declExclusive {
			s.diag(DiagRedeclared, name, node, existing.Line(),
				fmt.Sprintf("%s redeclared in this scope (first declared on line %d)", name, existing.Line()))
		}
		return existing
	}

	prev, depth, found := s.stack.SearchWithDepth(name)
	switch {
	case !found || depth <= s.universeDepth:
	case f.kind == ScopeFile && depth == s.packageDepth:
		// Another file of the package declares the same name.
		s.diag(DiagRedeclared, name, node, prev.Line(),
			fmt.Sprintf("%s redeclared in this package (first declared in %s)", name, s.declaredAt(name, depth, prev.Line())))
	case s.opts.ReportShadowing:
		s.diag(DiagShadowed, name, node, prev.Line(),
			fmt.Sprintf("%s shadows the declaration on %s", name, s.declaredAt(name, depth, prev.Line())))
	}

	sym, err := f.table.Install(name, line)
	if err != nil {
		s.diag(DiagLimitExceeded, name, node, 0, err.Error())
		return nil
	}
	sym.Kind = kind
	sym.ElemType = typ
	if length > 0 {
		sym.Length = length
	}
	s.allocate(f, sym)

	s.report.Stats.SymbolsInstalled++
	if !s.quiet {
		observability.SymbolsInstalledTotal.WithLabelValues(kind.String()).Inc()
	}
	return sym
}

func (s *session) allocate(f *frame, sym *symtab.Symbol) {
	size := sizeOf(sym.Kind, sym.ElemType, sym.Length)
	sym.Size = size
	if size == 0 {
		return
	}
	sym.Addr = f.offset
	f.offset += size
}

// use resolves a reference through the whole stack.
func (s *session) use(node *sitter.Node, name string) {
	if s.failed() || !s.checkName(name, node, false) {
		return
	}
	s.report.Stats.Lookups++
	if _, ok := s.stack.Search(name); ok {
		s.report.Stats.LookupHits++
		observability.LookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	observability.LookupsTotal.WithLabelValues("miss").Inc()
	if s.opts.ReportUnresolved {
		s.diag(DiagUnresolved, name, node, 0, fmt.Sprintf("%s is not declared in any enclosing scope", name))
	}
}

// addParams records parameter types on a function record, reporting the
// first overflow once.
func (s *session) addParams(fn *symtab.Symbol, node *sitter.Node, types []symtab.Type) {
	if fn == nil {
		return
	}
	for _, t := range types {
		if err := fn.AddParam(t); err != nil {
			s.diag(DiagTooManyParams, fn.Name(), node, 0,
				fmt.Sprintf("%s declares %d parameters, only %d are recorded", fn.Name(), len(types), fn.ParamCount()))
			return
		}
	}
}

// setValue stores a literal value, ignoring values the element type rejects.
func setValue(sym *symtab.Symbol, v symtab.Value) {
	if sym == nil || v == nil {
		return
	}
	_ = sym.SetValue(v)
}

// sizeOf is the storage layout: char and bool 1 byte, int and real 4,
// strings and unknown types a pointer of 8. Arrays multiply by length.
func sizeOf(kind symtab.Kind, typ symtab.Type, length int) int {
	switch kind {
	case symtab.KindFunction, symtab.KindLabel, symtab.KindType, symtab.KindPackage:
		return 0
	}
	var elem int
	switch typ {
	case symtab.TypeChar, symtab.TypeBool:
		elem = 1
	case symtab.TypeInt, symtab.TypeReal:
		elem = 4
	case symtab.TypeVoid:
		elem = 0
	default:
		elem = 8
	}
	if kind == symtab.KindArray {
		if length < 1 {
			length = 1
		}
		return elem * length
	}
	return elem
}
