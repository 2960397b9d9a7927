package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObservePosting("purchase", false)
	m.ObservePosting("purchase", true)
	m.ObservePosting("purchase", true)
	m.ObserveRejection("insufficient_funds")
	m.ObserveReconcile(true)
	m.ObserveReconcile(false)
	m.ObserveCloseOut(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.postingsTotal.WithLabelValues("purchase")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.replaysTotal.WithLabelValues("purchase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectionsTotal.WithLabelValues("insufficient_funds")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconcileRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileDrifted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.walletsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsClosedTotal))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePosting("purchase", false)
		m.ObserveRejection("event_closed")
		m.ObserveReconcile(true)
		m.ObserveCloseOut(1)
	})
}
