package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for list loading.
var (
	pagesAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_list_pages_applied_total",
		Help: "Pages applied to lists by list and mode",
	}, []string{"list", "mode"})

	pageFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_list_page_fetch_duration_seconds",
		Help:    "Page fetch duration in seconds by list",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"list"})

	staleDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_list_stale_pages_discarded_total",
		Help: "Pages discarded because the list was reset while they were loading",
	}, []string{"list"})

	loadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_list_load_failures_total",
		Help: "Failed page fetches by list and error class",
	}, []string{"list", "class"})

	loadMoreSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_list_load_more_suppressed_total",
		Help: "Load-more requests dropped because a fetch was in flight or the list was exhausted",
	}, []string{"list", "status"})

	duplicatesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_list_duplicates_dropped_total",
		Help: "Items dropped because their id was already listed",
	}, []string{"list"})

	scrollDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_scroll_decisions_total",
		Help: "Infinite scroll controller decisions",
	}, []string{"decision"})

	collectedPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_collector_pages_total",
		Help: "Pages walked by the export collector",
	})
)
