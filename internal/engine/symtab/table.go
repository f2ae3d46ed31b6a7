package symtab

import (
	"iter"

	"symscope/internal/core/errors"
)

type node struct {
	sym  *Symbol
	next *node
}

// Table holds the symbols of one lexical scope.
type Table struct {
	buckets   [Buckets]*node
	count     int
	limits    Limits
	destroyed bool
}

func NewTable(limits Limits) *Table {
	return &Table{limits: limits.normalized()}
}

// Search returns the record named name in this scope only.
func (t *Table) Search(name string) (*Symbol, bool) {
	if t == nil || t.destroyed {
		return nil, false
	}
	idx, err := Hash(name)
	if err != nil {
		return nil, false
	}
	for n := t.buckets[idx]; n != nil; n = n.next {
		if n.sym.name == name {
			return n.sym, true
		}
	}
	return nil, false
}

// Install returns the record for name, creating it at the head of its chain
// when the scope does not hold one yet. An existing record is returned as is;
// line is only recorded for new records.
func (t *Table) Install(name string, line int) (*Symbol, error) {
	if t == nil || t.destroyed {
		return nil, errors.Wrap(ErrScopeClosed, errors.CodeInternal, "install into destroyed table")
	}
	if sym, ok := t.Search(name); ok {
		return sym, nil
	}
	idx, err := Hash(name)
	if err != nil {
		return nil, err
	}
	if limit := t.limits.MaxIdentLen; limit > 0 && len(name) > limit {
		return nil, errors.Wrapf(ErrInvalidIdentifier, errors.CodeLimitExceeded, "identifier longer than %d bytes", limit).
			WithContext(errors.CtxSymbol, name)
	}

	sym := newSymbol(name, line, t.limits.MaxParams)
	t.buckets[idx] = &node{sym: sym, next: t.buckets[idx]}
	t.count++
	return sym, nil
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

// Destroyed reports whether Destroy has run.
func (t *Table) Destroyed() bool {
	return t != nil && t.destroyed
}

// Destroy unlinks every record and returns how many were released. Further
// searches miss and installs fail.
func (t *Table) Destroy() int {
	if t == nil || t.destroyed {
		return 0
	}
	released := 0
	for i := range t.buckets {
		n := t.buckets[i]
		t.buckets[i] = nil
		for n != nil {
			next := n.next
			n.sym = nil
			n.next = nil
			n = next
			released++
		}
	}
	t.count = 0
	t.destroyed = true
	return released
}

// All yields every record, bucket by bucket, each chain in chain order.
func (t *Table) All() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		if t == nil {
			return
		}
		for i := range t.buckets {
			for n := t.buckets[i]; n != nil; n = n.next {
				if !yield(n.sym) {
					return
				}
			}
		}
	}
}

// Chain returns the names stored in one bucket in chain order.
func (t *Table) Chain(bucket int) []string {
	if t == nil || bucket < 0 || bucket >= Buckets {
		return nil
	}
	var names []string
	for n := t.buckets[bucket]; n != nil; n = n.next {
		names = append(names, n.sym.name)
	}
	return names
}
