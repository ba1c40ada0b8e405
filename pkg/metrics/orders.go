package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts purchase order lifecycle writes.
type OrderMetrics struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// NewOrderMetrics registers the order lifecycle counters on reg.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Purchase orders created, by category.",
	}, []string{"category"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "status_transitions_total",
		Help:      "Persisted purchase order status transitions.",
	}, []string{"from", "to"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_rejected_total",
		Help:      "Status transitions refused by the order state machine.",
	}, []string{"from", "to"})
	reg.MustRegister(created, transitions, rejected)
	return &OrderMetrics{
		created:     created,
		transitions: transitions,
		rejected:    rejected,
	}
}

// OrderCreated increments the created counter.
func (m *OrderMetrics) OrderCreated(category string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(category)).Inc()
}

// StatusChanged records a committed transition.
func (m *OrderMetrics) StatusChanged(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// TransitionRejected records an illegal transition attempt.
func (m *OrderMetrics) TransitionRejected(from, to string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}
