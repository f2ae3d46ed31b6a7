package analyzer

import (
	"sync"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
)

func goLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_go.Language())
}

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(goLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Leased())
	}
	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected 0 leased parsers after Put, got %d", pool.Leased())
	}
}

func TestParserPool_ParsesAfterReuse(t *testing.T) {
	pool := NewParserPool(goLanguage())
	src := []byte("package p\n")

	for i := 0; i < 3; i++ {
		sp := pool.Get()
		tree := sp.Parse(src, nil)
		if tree == nil || tree.RootNode().Kind() != "source_file" {
			t.Fatalf("iteration %d: unexpected parse result", i)
		}
		tree.Close()
		pool.Put(sp)
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(goLanguage())
	pool.Put(nil)
	if pool.Leased() != 0 {
		t.Fatalf("Put(nil) must not change the lease count, got %d", pool.Leased())
	}
}

func TestParserPool_Concurrent(t *testing.T) {
	pool := NewParserPool(goLanguage())
	src := []byte("package p\n\nfunc f() {}\n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp := pool.Get()
			defer pool.Put(sp)
			tree := sp.Parse(src, nil)
			if tree != nil {
				tree.Close()
			}
		}()
	}
	wg.Wait()

	if pool.Leased() != 0 {
		t.Fatalf("expected all parsers returned, got %d leased", pool.Leased())
	}
}
