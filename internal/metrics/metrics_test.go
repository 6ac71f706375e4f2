package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFanoutCountsPartialDelivery(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFanout(10, 10, 0.01)
	m.ObserveFanout(10, 7, 0.02)

	assert.Equal(t, float64(20), testutil.ToFloat64(m.FanoutRequested))
	assert.Equal(t, float64(17), testutil.ToFloat64(m.FanoutCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PartialDelivery))
}

func TestLabelledCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition("publish", "ok")
	m.ObserveTransition("publish", "ok")
	m.IncrementRateLimited("delete")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transitions.WithLabelValues("publish", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited.WithLabelValues("delete")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("create", "ok")
		m.ObserveFanout(1, 0, 0)
		m.IncrementAuditFailures()
		m.IncrementHookPanics("audit")
		m.ObserveScheduledPublish("ok")
	})
}
