package symtab

import (
	"iter"

	"symscope/internal/core/errors"
)

// Observer is notified about scope lifecycle events of a Stack.
type Observer interface {
	ScopePushed(depth int)
	ScopePopped(depth, released int)
	StackOverflow(depth int)
	StackUnderflow()
}

type StackOption func(*Stack)

func WithObserver(o Observer) StackOption {
	return func(s *Stack) {
		s.observer = o
	}
}

// Stack is a bounded stack of scopes. Index 0 is the outermost scope.
type Stack struct {
	tables   []*Table
	limits   Limits
	observer Observer
}

func NewStack(limits Limits, opts ...StackOption) *Stack {
	limits = limits.normalized()
	s := &Stack{
		tables: make([]*Table, 0, limits.MaxDepth),
		limits: limits,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stack) Depth() int { return len(s.tables) }

func (s *Stack) MaxDepth() int { return s.limits.MaxDepth }

func (s *Stack) Limits() Limits { return s.limits }

// Push makes t the innermost scope and takes ownership of it. On error the
// stack is unchanged and the caller keeps t.
func (s *Stack) Push(t *Table) error {
	if t == nil || t.destroyed {
		return errors.Wrap(ErrScopeClosed, errors.CodeValidationError, "push of nil or destroyed table")
	}
	depth := len(s.tables)
	if depth >= s.limits.MaxDepth {
		if s.observer != nil {
			s.observer.StackOverflow(depth)
		}
		return errors.Wrapf(ErrStackOverflow, errors.CodeStackOverflow, "cannot open more than %d scopes", s.limits.MaxDepth).
			WithContext(errors.CtxDepth, depth)
	}
	for _, held := range s.tables {
		if held == t {
			return errors.Wrapf(ErrScopeClosed, errors.CodeValidationError, "table already open").
				WithContext(errors.CtxDepth, depth)
		}
	}
	s.tables = append(s.tables, t)
	if s.observer != nil {
		s.observer.ScopePushed(len(s.tables))
	}
	return nil
}

// EnterScope creates a table with the stack's limits and pushes it.
func (s *Stack) EnterScope() (*Table, error) {
	t := NewTable(s.limits)
	if err := s.Push(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Pop removes and destroys the innermost scope.
func (s *Stack) Pop() error {
	depth := len(s.tables)
	if depth == 0 {
		if s.observer != nil {
			s.observer.StackUnderflow()
		}
		return errors.Wrap(ErrStackUnderflow, errors.CodeStackUnderflow, "pop on empty scope stack")
	}
	t := s.tables[depth-1]
	s.tables[depth-1] = nil
	s.tables = s.tables[:depth-1]
	released := t.Destroy()
	if s.observer != nil {
		s.observer.ScopePopped(depth-1, released)
	}
	return nil
}

// Unwind pops every open scope and returns how many were closed.
func (s *Stack) Unwind() int {
	closed := 0
	for len(s.tables) > 0 {
		_ = s.Pop()
		closed++
	}
	return closed
}

// Top returns the innermost scope.
func (s *Stack) Top() (*Table, bool) {
	if len(s.tables) == 0 {
		return nil, false
	}
	return s.tables[len(s.tables)-1], true
}

// Search resolves name from the innermost scope outwards.
func (s *Stack) Search(name string) (*Symbol, bool) {
	sym, _, ok := s.SearchWithDepth(name)
	return sym, ok
}

// SearchWithDepth is Search that also reports the 1-based depth of the scope
// holding the match.
func (s *Stack) SearchWithDepth(name string) (*Symbol, int, bool) {
	for i := len(s.tables) - 1; i >= 0; i-- {
		if sym, ok := s.tables[i].Search(name); ok {
			return sym, i + 1, true
		}
	}
	return nil, 0, false
}

// All yields each open scope with its 1-based depth, innermost first.
func (s *Stack) All() iter.Seq2[int, *Table] {
	return func(yield func(int, *Table) bool) {
		for i := len(s.tables) - 1; i >= 0; i-- {
			if !yield(i+1, s.tables[i]) {
				return
			}
		}
	}
}
