package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons recorded on classreg_update_rejections_total.
const (
	ReasonUnauthorized = "unauthorized"
	ReasonInvalidScore = "invalid_score"
	ReasonInvalidName  = "invalid_name"
	ReasonStoreFailure = "store_failure"
)

// Metrics holds the Prometheus collectors for the registry.
type Metrics struct {
	UpdatesTotal         *prometheus.CounterVec
	UpdateRejections     *prometheus.CounterVec
	ReadsTotal           *prometheus.CounterVec
	StoreLatency         *prometheus.HistogramVec
	NotificationsSent    prometheus.Counter
	NotificationFailures prometheus.Counter
	NotificationsDropped prometheus.Counter
	NotifierCircuitState *prometheus.GaugeVec
}

// New registers the registry collectors with reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UpdatesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "classreg_updates_total",
			Help: "Total number of committed student updates by resulting tier",
		}, []string{"tier"}),
		UpdateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "classreg_update_rejections_total",
			Help: "Total number of student updates rejected before commit",
		}, []string{"reason"}),
		ReadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "classreg_reads_total",
			Help: "Total number of registry reads by field and whether a record existed",
		}, []string{"field", "result"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classreg_store_duration_seconds",
			Help:    "Latency of registry store operations",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"op"}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "classreg_notifications_sent_total",
			Help: "Total number of update notifications delivered",
		}),
		NotificationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "classreg_notification_failures_total",
			Help: "Total number of update notifications that failed delivery",
		}),
		NotificationsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "classreg_notifications_dropped_total",
			Help: "Total number of update notifications dropped while the notifier circuit was open",
		}),
		NotifierCircuitState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "classreg_notifier_circuit_state",
			Help: "Current circuit state per notifier sink (0=closed/healthy, 1=open/unhealthy)",
		}, []string{"sink"}),
	}
}

func (m *Metrics) IncUpdate(tier string) {
	m.UpdatesTotal.WithLabelValues(tier).Inc()
}

func (m *Metrics) IncRejection(reason string) {
	m.UpdateRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncRead(field string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.ReadsTotal.WithLabelValues(field, result).Inc()
}

func (m *Metrics) ObserveStore(op string, since time.Time) {
	m.StoreLatency.WithLabelValues(op).Observe(time.Since(since).Seconds())
}

func (m *Metrics) IncNotificationSent()    { m.NotificationsSent.Inc() }
func (m *Metrics) IncNotificationFailure() { m.NotificationFailures.Inc() }
func (m *Metrics) IncNotificationDropped() { m.NotificationsDropped.Inc() }

func (m *Metrics) SetNotifierCircuitOpen(sink string, open bool) {
	if open {
		m.NotifierCircuitState.WithLabelValues(sink).Set(1)
	} else {
		m.NotifierCircuitState.WithLabelValues(sink).Set(0)
	}
}
