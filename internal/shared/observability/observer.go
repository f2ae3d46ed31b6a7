package observability

import (
	"sync"

	"symscope/internal/engine/symtab"
)

var _ symtab.Observer = (*StackMetrics)(nil)

// StackMetrics exports scope stack events as Prometheus metrics.
type StackMetrics struct {
	mu       sync.Mutex
	maxDepth int
}

func NewStackMetrics() *StackMetrics {
	return &StackMetrics{}
}

func (m *StackMetrics) ScopePushed(depth int) {
	ScopesOpenedTotal.Inc()
	m.mu.Lock()
	if depth > m.maxDepth {
		m.maxDepth = depth
		ScopeDepthMax.Set(float64(depth))
	}
	m.mu.Unlock()
}

func (m *StackMetrics) ScopePopped(_ int, released int) {
	ScopesClosedTotal.Inc()
	SymbolsReleasedTotal.Add(float64(released))
}

func (m *StackMetrics) StackOverflow(int) {
	StackErrorsTotal.WithLabelValues("overflow").Inc()
}

func (m *StackMetrics) StackUnderflow() {
	StackErrorsTotal.WithLabelValues("underflow").Inc()
}
