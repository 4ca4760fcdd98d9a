package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry             *prometheus.Registry
	Turns                *prometheus.CounterVec
	BackendLatency       *prometheus.HistogramVec
	ModerationRejections *prometheus.CounterVec
}

// NewMetrics registers instruments on reg, or on a fresh registry when reg is nil.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by actor kind, backend and outcome.",
		}, []string{"actor", "backend", "outcome"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_latency_seconds",
			Help:      "Completion backend call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"backend"}),
		ModerationRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_rejections_total",
			Help:      "Messages rejected by the moderation classifier.",
		}, []string{"actor"}),
	}
}

func (m *Metrics) ObserveTurn(actor, backend, outcome string) {
	m.Turns.WithLabelValues(actor, backend, outcome).Inc()
}

func (m *Metrics) ObserveBackendLatency(backend string, d time.Duration) {
	m.BackendLatency.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Metrics) ObserveModerationRejection(actor string) {
	m.ModerationRejections.WithLabelValues(actor).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
