package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ledger activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	postingsTotal     *prometheus.CounterVec
	replaysTotal      *prometheus.CounterVec
	rejectionsTotal   *prometheus.CounterVec
	reconcileRuns     prometheus.Counter
	reconcileDrifted  prometheus.Counter
	walletsExpired    prometheus.Counter
	eventsClosedTotal prometheus.Counter
}

// NewMetrics registers the collectors on reg (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		postingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ucoin",
				Subsystem: "ledger",
				Name:      "postings_total",
				Help:      "Ledger transactions written, partitioned by transaction type.",
			},
			[]string{"tx_type"},
		),
		replaysTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ucoin",
				Subsystem: "ledger",
				Name:      "replays_total",
				Help:      "Postings answered from an existing idempotency key.",
			},
			[]string{"tx_type"},
		),
		rejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ucoin",
				Subsystem: "ledger",
				Name:      "rejections_total",
				Help:      "Operations rejected by a business rule, partitioned by reason.",
			},
			[]string{"reason"},
		),
		reconcileRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ucoin",
				Subsystem: "wallet_cache",
				Name:      "reconcile_runs_total",
				Help:      "Wallet cache rows rebuilt from the ledger.",
			},
		),
		reconcileDrifted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ucoin",
				Subsystem: "wallet_cache",
				Name:      "reconcile_drift_total",
				Help:      "Reconciliations that found the cache out of step with the ledger.",
			},
		),
		walletsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ucoin",
				Subsystem: "ledger",
				Name:      "wallets_expired_total",
				Help:      "Wallet balances expired to the platform.",
			},
		),
		eventsClosedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ucoin",
				Subsystem: "events",
				Name:      "closed_total",
				Help:      "Events closed out.",
			},
		),
	}
}

func (m *Metrics) ObservePosting(txType string, replayed bool) {
	if m == nil {
		return
	}
	if replayed {
		m.replaysTotal.WithLabelValues(txType).Inc()
		return
	}
	m.postingsTotal.WithLabelValues(txType).Inc()
}

// ObserveRejection records a business-rule rejection such as insufficient_funds.
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveReconcile(drifted bool) {
	if m == nil {
		return
	}
	m.reconcileRuns.Inc()
	if drifted {
		m.reconcileDrifted.Inc()
	}
}

func (m *Metrics) ObserveCloseOut(walletsExpired int) {
	if m == nil {
		return
	}
	m.eventsClosedTotal.Inc()
	m.walletsExpired.Add(float64(walletsExpired))
}
