// Package metrics holds the Prometheus collectors of the server. They are registered in Registry, which is served at /api/metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prefix = "schemacms"

var Registry = prometheus.NewRegistry()

var (
	// labels: method, route, status
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	// labels: method, route
	APIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// labels: method, route, status
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_backend_requests_total",
			Help: "Total number of backend requests",
		},
		[]string{"method", "route", "status"},
	)

	// labels: cache (schema, content), result (hit, miss)
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "result"},
	)

	// labels: action (save, publish, unpublish, preview), result (ok, error)
	Saves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_content_saves_total",
			Help: "Total number of content saves by effective action",
		},
		[]string{"action", "result"},
	)

	SchemaReloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_schema_reloads_total",
			Help: "Total number of schema directory reloads",
		},
	)
)

func init() {
	Registry.MustRegister(
		APIRequests,
		APIDuration,
		BackendRequests,
		CacheRequests,
		Saves,
		SchemaReloads,
	)
	Registry.MustRegister(prometheus.NewGoCollector())
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}

// Handler serves the metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
