package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the approval engine. It
// implements usecase.Instrumentation.
type Metrics struct {
	TransactionsResolved *prometheus.CounterVec
	VotesSubmitted       *prometheus.CounterVec
	VoteConflicts        prometheus.Counter
	VotesContended       prometheus.Counter

	EventsPublished *prometheus.CounterVec
	EventsPending   prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsResolved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorum_transactions_resolved_total",
				Help: "Total number of transactions reaching a terminal status",
			},
			[]string{"status"},
		),
		VotesSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorum_votes_submitted_total",
				Help: "Total number of votes accepted",
			},
			[]string{"decision"},
		),
		VoteConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quorum_vote_conflicts_total",
			Help: "Total number of compare-and-swap conflicts observed",
		}),
		VotesContended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quorum_votes_contended_total",
			Help: "Total number of votes failed after exhausting retries",
		}),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorum_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
		EventsPending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quorum_events_pending",
			Help: "Outbox events awaiting publication at last poll",
		}),
	}
}

// VoteAccepted records an accepted vote by decision.
func (m *Metrics) VoteAccepted(decision string) {
	m.VotesSubmitted.WithLabelValues(decision).Inc()
}

// VoteConflict records one compare-and-swap conflict.
func (m *Metrics) VoteConflict() {
	m.VoteConflicts.Inc()
}

// VoteContention records a vote that exhausted its retry budget.
func (m *Metrics) VoteContention() {
	m.VotesContended.Inc()
}

// TransactionResolved records a transition into a terminal status.
func (m *Metrics) TransactionResolved(status string) {
	m.TransactionsResolved.WithLabelValues(status).Inc()
}
