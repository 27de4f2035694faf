package console

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_console_http_requests_total",
		Help: "Console HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_console_http_request_duration_seconds",
		Help:    "Console HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	viewsMounted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admin_console_views_mounted",
		Help: "Number of mounted list views",
	})

	viewsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_console_views_expired_total",
		Help: "Views unmounted after being idle",
	})
)
