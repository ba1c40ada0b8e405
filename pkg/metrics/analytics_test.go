package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAnalyticsMetricsCountsOutcomes(t *testing.T) {
	m := NewAnalyticsMetrics(prometheus.NewRegistry())
	m.IncMessage(MessageHandled)
	m.IncMessage(MessageHandled)
	m.IncMessage(MessageRetry)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues(MessageHandled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues(MessageRetry)))
}

func TestAnalyticsMetricsNilSafe(t *testing.T) {
	var m *AnalyticsMetrics
	assert.NotPanics(t, func() { m.IncMessage(MessageSkipped) })
	assert.NotPanics(t, func() { NewAnalyticsMetrics(nil).IncMessage(MessageSkipped) })
}
