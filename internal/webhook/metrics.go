package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess     = "success"
	outcomeTimeout     = "timeout"
	outcomeTransport   = "transport"
	outcomeServerError = "server_error"
)

type metrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics registers dispatch metrics with reg. A nil reg creates
// unregistered collectors.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		total: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentchat_webhook_dispatch_total",
			Help: "Webhook dispatches by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentchat_webhook_dispatch_duration_seconds",
			Help:    "Webhook dispatch latency by outcome.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"outcome"}),
	}
}

func (m *metrics) observe(outcome string, seconds float64) {
	m.total.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(seconds)
}
