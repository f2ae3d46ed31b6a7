package analyzer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// frontend drives the scope stack over one language's syntax tree.
type frontend interface {
	name() string
	extensions() []string
	builtins() []builtin
	analyze(s *session, root *sitter.Node)
}

type language struct {
	frontend frontend
	pool     *ParserPool
}

type registry struct {
	byName map[string]*language
	byExt  map[string]*language
}

func newRegistry(enabled []string) (*registry, error) {
	available := map[string]struct {
		grammar  *sitter.Language
		frontend frontend
	}{
		"go":     {sitter.NewLanguage(tree_sitter_go.Language()), goFrontend{}},
		"python": {sitter.NewLanguage(tree_sitter_python.Language()), pythonFrontend{}},
	}

	r := &registry{
		byName: make(map[string]*language),
		byExt:  make(map[string]*language),
	}
	for _, name := range enabled {
		name = strings.ToLower(strings.TrimSpace(name))
		entry, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unsupported language: %s", name)
		}
		lang := &language{frontend: entry.frontend, pool: NewParserPool(entry.grammar)}
		r.byName[name] = lang
		for _, ext := range entry.frontend.extensions() {
			r.byExt[ext] = lang
		}
	}
	return r, nil
}

func (r *registry) forPath(path string) (*language, bool) {
	lang, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

func (r *registry) names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
