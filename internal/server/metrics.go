package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	buckets  []float64
	previews *prometheus.CounterVec
	submits  *prometheus.CounterVec
}

func newMetrics(registry *prometheus.Registry) *metrics {
	return &metrics{
		registry: registry,
		// Request latencies skew small; the top bucket is about 10s.
		buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		previews: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "preview_articles_rendered_total",
			Help: "Articles rendered by the preview server.",
		}, []string{"scenario", "format"}),
		submits: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "preview_ad_submissions_total",
			Help: "Advertisement submissions by outcome.",
		}, []string{"outcome"}),
	}
}

// wrap instruments handler with per-route request count and latency.
func (m *metrics) wrap(route string, handler http.Handler) http.Handler {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"handler": route}, m.registry)
	labels := []string{"method", "code"}

	requestsTotal := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Tracks the number of HTTP requests.",
	}, labels)

	requestDuration := promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Tracks the latencies for HTTP requests.",
		Buckets: m.buckets,
	}, labels)

	return promhttp.InstrumentHandlerCounter(requestsTotal,
		promhttp.InstrumentHandlerDuration(requestDuration, handler))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
