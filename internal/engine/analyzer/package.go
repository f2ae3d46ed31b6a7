package analyzer

import (
	"log/slog"
	"os"
	"path/filepath"

	"symscope/internal/engine/symtab"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// packageFrontend is implemented by languages whose files share one
// package-level scope across a directory.
type packageFrontend interface {
	packageName(s *session, root *sitter.Node) string
	// declarePackage installs the names a file contributes to its package.
	declarePackage(s *session, root *sitter.Node)
}

// packageDecl is a package-level record taken from one file of a package.
type packageDecl struct {
	file  string
	entry SymbolEntry
	value symtab.Value
}

// packageScope holds the package-level records of every file of one package.
type packageScope struct {
	name  string
	decls []packageDecl
}

// siblings returns the records declared outside path.
func (p *packageScope) siblings(path string) []packageDecl {
	if p == nil {
		return nil
	}
	var out []packageDecl
	for _, d := range p.decls {
		if d.file != path {
			out = append(out, d)
		}
	}
	return out
}

type sourceFile struct {
	path string
	src  []byte
}

// loadPackages groups the files of package languages by directory and
// package clause. The result maps each file path to its package.
func (a *Analyzer) loadPackages(files []sourceFile) map[string]*packageScope {
	groups := make(map[string]*packageScope)
	byPath := make(map[string]*packageScope)
	for _, f := range files {
		name, decls, ok := a.packageDecls(f.path, f.src)
		if !ok {
			continue
		}
		key := filepath.Dir(f.path) + "\x00" + name
		pkg := groups[key]
		if pkg == nil {
			pkg = &packageScope{name: name}
			groups[key] = pkg
		}
		pkg.decls = append(pkg.decls, decls...)
		byPath[f.path] = pkg
	}
	return byPath
}

// packageDecls parses src and collects the package-level records it
// declares. ok is false for languages without package scopes.
func (a *Analyzer) packageDecls(path string, src []byte) (name string, decls []packageDecl, ok bool) {
	lang, found := a.registry.forPath(path)
	if !found {
		return "", nil, false
	}
	pf, isPackage := lang.frontend.(packageFrontend)
	if !isPackage {
		return "", nil, false
	}

	sp := lang.pool.Get()
	tree := sp.Parse(src, nil)
	lang.pool.Put(sp)
	if tree == nil {
		return "", nil, false
	}
	defer tree.Close()

	opts := a.opts
	opts.Observer = nil
	opts.ReportShadowing = false
	s := newSession(&opts, a.symbolGlobs, path, src, &Report{})
	s.quiet = true
	root := tree.RootNode()

	s.open(ScopeFile, path, 1, false)
	if s.failed() {
		return "", nil, false
	}
	name = pf.packageName(s, root)
	pf.declarePackage(s, root)
	for sym := range s.top().table.All() {
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
		decls = append(decls, packageDecl{file: path, entry: entry, value: sym.Value()})
	}
	s.stack.Unwind()
	return name, decls, true
}

// siblingPackage reads the other files of path's directory and returns the
// package path belongs to, or nil when the language has no package scope.
func (a *Analyzer) siblingPackage(path string, src []byte) *packageScope {
	lang, ok := a.registry.forPath(path)
	if !ok {
		return nil
	}
	if _, isPackage := lang.frontend.(packageFrontend); !isPackage {
		return nil
	}

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("failed to list package directory", "dir", dir, "error", err)
		return nil
	}
	files := []sourceFile{{path: path, src: src}}
	for _, e := range entries {
		sibling := filepath.Join(dir, e.Name())
		if e.IsDir() || sibling == filepath.Join(dir, filepath.Base(path)) {
			continue
		}
		if other, ok := a.registry.forPath(sibling); !ok || other != lang || matchAny(a.fileGlobs, e.Name()) {
			continue
		}
		content, err := os.ReadFile(sibling)
		if err != nil {
			slog.Debug("failed to read package file", "path", sibling, "error", err)
			continue
		}
		files = append(files, sourceFile{path: sibling, src: content})
	}
	return a.loadPackages(files)[path]
}
