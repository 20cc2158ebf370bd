package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics for the application.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     *prometheus.CounterVec
}

// New creates and registers the HTTP metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "classreg_http_requests_total",
			Help: "Total number of HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classreg_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "classreg_http_rate_limited_total",
			Help: "Total number of requests rejected by the read rate limiter",
		}, []string{"route"}),
	}
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, method, status).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(seconds)
}

func (m *Metrics) IncRateLimited(route string) {
	m.RateLimited.WithLabelValues(route).Inc()
}
