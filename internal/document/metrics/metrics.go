// Package metrics exposes Prometheus instrumentation for document operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// UploadsTotal counts upload attempts by outcome: created,
	// duplicate_warning, version_added, rejected.
	UploadsTotal *prometheus.CounterVec

	// TransitionsTotal counts lifecycle transitions by source and target status.
	TransitionsTotal *prometheus.CounterVec

	// ComplianceFindingsTotal counts scanner findings by severity.
	ComplianceFindingsTotal *prometheus.CounterVec

	// ConflictRetriesTotal counts optimistic-concurrency retries.
	ConflictRetriesTotal prometheus.Counter

	// CheckDuration observes the combined duplicate and compliance check time.
	CheckDuration prometheus.Histogram
}

// New creates and registers all document module metrics.
func New() *Metrics {
	return &Metrics{
		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "knowledgehub_document_uploads_total",
			Help: "Upload attempts by outcome",
		}, []string{"outcome"}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "knowledgehub_document_transitions_total",
			Help: "Lifecycle transitions by source and target status",
		}, []string{"from", "to"}),
		ComplianceFindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "knowledgehub_document_compliance_findings_total",
			Help: "Compliance scanner findings by severity",
		}, []string{"severity"}),
		ConflictRetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "knowledgehub_document_conflict_retries_total",
			Help: "Optimistic concurrency conflicts that triggered a retry",
		}),
		CheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "knowledgehub_document_check_duration_seconds",
			Help:    "Combined duplicate and compliance check latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
