package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "symscope_analysis_seconds",
		Help:    "Time spent analyzing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "symscope_files_analyzed_total",
		Help: "Total number of files analyzed, by outcome.",
	}, []string{"language", "outcome"})

	ScopesOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "symscope_scopes_opened_total",
		Help: "Total number of scopes pushed onto a scope stack.",
	})

	ScopesClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "symscope_scopes_closed_total",
		Help: "Total number of scopes popped and destroyed.",
	})

	SymbolsReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "symscope_symbols_released_total",
		Help: "Total number of symbol records released by destroyed scopes.",
	})

	ScopeDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "symscope_scope_depth_max",
		Help: "Deepest scope nesting observed since start.",
	})

	StackErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "symscope_stack_errors_total",
		Help: "Total number of scope stack overflows and underflows.",
	}, []string{"kind"})

	SymbolsInstalledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "symscope_symbols_installed_total",
		Help: "Total number of symbols installed, by kind.",
	}, []string{"kind"})

	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "symscope_lookups_total",
		Help: "Total number of scope stack lookups, by result.",
	}, []string{"result"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "symscope_diagnostics_total",
		Help: "Total number of diagnostics reported, by kind.",
	}, []string{"kind"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "symscope_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
