// Package metrics exposes Prometheus instrumentation for the API server and
// the outbound catalog/proxy layers. Metrics register against the default
// registry at package init; mount Handler() at GET /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPRequests counts handled HTTP requests by method, templated path and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vodbridge_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "path", "status"})

// HTTPDuration tracks HTTP request latency by method and templated path.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "vodbridge_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path"})

// Searches counts per-source catalog searches by outcome.
var Searches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vodbridge_searches_total",
	Help: "Catalog searches by source and outcome.",
}, []string{"source", "status"})

// SearchDuration tracks how long a full fan-out search takes.
var SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "vodbridge_search_duration_seconds",
	Help:    "Latency of a full multi-source search.",
	Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
})

// UpstreamRetries counts retried outbound requests by source.
var UpstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vodbridge_upstream_retries_total",
	Help: "Outbound request retries by source.",
}, []string{"source"})

// ProxyRequests counts proxied fetches by addressing mode and outcome.
var ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vodbridge_proxy_requests_total",
	Help: "Proxied fetches by addressing mode and outcome.",
}, []string{"mode", "outcome"})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Register adds every vodbridge collector to the given registerer. The
// collectors already self-register with the default registry at package init;
// Register serves custom registries, where scrapes must observe the same
// collectors the handlers and clients increment.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequests,
		HTTPDuration,
		Searches,
		SearchDuration,
		UpstreamRetries,
		ProxyRequests,
	)
}
