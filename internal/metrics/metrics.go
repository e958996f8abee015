package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pajak"

var (
	// StatutoryDocuments counts synthesis outcomes by variant (efaktur,
	// ebupot) and outcome (created, skipped, reactivated, failed).
	StatutoryDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "statutory_documents_total",
		Help:      "Statutory document synthesis outcomes.",
	}, []string{"variant", "outcome"})

	FilingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filing_transitions_total",
		Help:      "Tax filing state transitions.",
	}, []string{"category", "state"})

	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Settlement generation results by kind (payment, adjustment).",
	}, []string{"kind", "status"})

	LedgerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_events_total",
		Help:      "Host ledger lifecycle events dispatched.",
	}, []string{"doctype", "event"})

	DataQualityIssues = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_quality_issues_total",
		Help:      "Ambiguous tax lines seen during extraction.",
	})
)
