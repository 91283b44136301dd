package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScopesOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopecheck_scopes_opened_total",
		Help: "Total number of scopes pushed onto symbol tables.",
	})

	ScopesClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopecheck_scopes_closed_total",
		Help: "Total number of scopes popped from symbol tables.",
	})

	ScopeDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scopecheck_scope_depth",
		Help: "Scope depth of the most recently changed symbol table.",
	})

	DeclarationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scopecheck_declarations_total",
		Help: "Declarations attempted, by outcome.",
	}, []string{"outcome"})

	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scopecheck_lookups_total",
		Help: "Symbol lookups, by mode (local/global) and result.",
	}, []string{"mode", "result"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scopecheck_findings_total",
		Help: "Scope findings reported by the analyzer, by kind.",
	}, []string{"kind"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopecheck_files_analyzed_total",
		Help: "Total number of source files analyzed.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scopecheck_analysis_seconds",
		Help:    "Time spent on analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopecheck_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ReanalysisThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopecheck_reanalysis_throttled_total",
		Help: "Watch-triggered re-analyses delayed by the rate limiter.",
	})

	HistoryQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scopecheck_history_queue_depth",
		Help: "Runs waiting to be written to the history database.",
	})

	HistoryWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scopecheck_history_writes_total",
		Help: "History run writes, by outcome (saved, failed, dropped).",
	}, []string{"outcome"})
)
