// Package metrics exposes the Prometheus registry of the admin console.
// All metrics are defined in their respective packages (client, cache,
// pagination, session, admin, console) and registered via promauto.
//
// This package provides the scrape handler and a reference for all metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package's metrics end up in.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Backend Metrics (pkg/client):
//   - admin_backend_requests_total{method, endpoint, status} (Counter): Requests sent to the admin backend
//   - admin_backend_request_duration_seconds{method, endpoint} (Histogram): Backend request latency
//   - admin_backend_errors_total{class} (Counter): Errors by class (network, server, protocol, application, unauthorized)
//
// Cache Metrics (pkg/cache):
//   - admin_cache_hits_total{layer="redis"} (Counter): Cache hits
//   - admin_cache_misses_total (Counter): Cache misses
//   - admin_cache_size_bytes{layer="redis"} (Gauge): Size of the last stored entry
//   - admin_cache_not_modified_total (Counter): 304 Not Modified responses
//   - admin_cache_conditional_requests_total (Counter): Requests sent with If-None-Match/If-Modified-Since
//   - admin_cache_evictions_total (Counter): Entries removed by Evict
//   - admin_cache_errors_total{operation} (Counter): Cache operation errors
//
// List Metrics (pkg/pagination):
//   - admin_list_pages_applied_total{list, mode} (Counter): Pages merged into a list (replace or append)
//   - admin_list_page_fetch_duration_seconds{list} (Histogram): Page fetch latency
//   - admin_list_stale_pages_discarded_total{list} (Counter): Pages dropped after a reset
//   - admin_list_load_failures_total{list, class} (Counter): Failed page fetches
//   - admin_list_load_more_suppressed_total{list, status} (Counter): Load-more calls ignored while loading or exhausted
//   - admin_list_duplicates_dropped_total{list} (Counter): Items dropped as duplicates
//   - admin_scroll_decisions_total{decision} (Counter): Scroll controller outcomes
//   - admin_collector_pages_total (Counter): Pages read by collectors
//
// Session Metrics (pkg/session):
//   - admin_sessions_created_total (Counter): Sessions created
//   - admin_sessions_rejected_total{reason} (Counter): Rejected sign-ins
//   - admin_session_lookups_total{result} (Counter): Session lookups
//
// Mutation Metrics (pkg/admin):
//   - admin_mutations_total{resource, operation, result} (Counter): Deletes and other writes
//
// Console Metrics (internal/console):
//   - admin_console_http_requests_total{method, route, status} (Counter): Console HTTP requests
//   - admin_console_http_request_duration_seconds{route} (Histogram): Console request latency
//   - admin_console_views_mounted (Gauge): Mounted list views
//   - admin_console_views_expired_total (Counter): Views removed by the idle sweep
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(admin_cache_hits_total[5m])) /
//   (sum(rate(admin_cache_hits_total[5m])) + sum(rate(admin_cache_misses_total[5m])))
//
//   # Load-more failure rate per list
//   sum by (list) (rate(admin_list_load_failures_total[5m]))
//
//   # P95 page latency
//   histogram_quantile(0.95, sum by (le, list) (rate(admin_list_page_fetch_duration_seconds_bucket[5m])))
//
//   # Scroll approaches that did not fire
//   sum by (decision) (rate(admin_scroll_decisions_total{decision!="fired"}[5m]))
