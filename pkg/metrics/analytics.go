package metrics

import "github.com/prometheus/client_golang/prometheus"

// Settlement labels for analytics messages.
const (
	MessageHandled   = "handled"
	MessageDuplicate = "duplicate"
	MessageSkipped   = "skipped"
	MessageMalformed = "malformed"
	MessageRetry     = "retry"
)

// AnalyticsMetrics counts how the analytics worker settled each message.
type AnalyticsMetrics struct {
	messages *prometheus.CounterVec
}

func NewAnalyticsMetrics(reg prometheus.Registerer) *AnalyticsMetrics {
	if reg == nil {
		return &AnalyticsMetrics{}
	}
	m := &AnalyticsMetrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "messages_total",
			Help:      "Pub/Sub messages settled by the analytics worker, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.messages)
	return m
}

func (m *AnalyticsMetrics) IncMessage(outcome string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(outcome).Inc()
}
