// Package metrics holds all Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the service-level counters and histograms. Services hold
// a possibly-nil *Metrics; every increment helper is nil-safe so tests can
// skip registration.
type Metrics struct {
	DocumentsProcessed      *prometheus.CounterVec
	ProcessingDuration      prometheus.Histogram
	Recalculations          prometheus.Counter
	RecalculationConflicts  prometheus.Counter
	CredentialsIssued       prometheus.Counter
	CredentialVerifications *prometheus.CounterVec
	SignatureMismatches     prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		DocumentsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustbridge_documents_processed_total",
			Help: "Documents that reached a terminal pipeline state.",
		}, []string{"status"}),
		ProcessingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustbridge_document_processing_seconds",
			Help:    "Wall time from pickup to terminal state per document.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		Recalculations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbridge_claim_recalculations_total",
			Help: "Completed claim regenerations.",
		}),
		RecalculationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbridge_claim_recalculation_conflicts_total",
			Help: "Recalculation requests rejected because one was in flight.",
		}),
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbridge_credentials_issued_total",
			Help: "Credentials signed and persisted.",
		}),
		CredentialVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustbridge_credential_verifications_total",
			Help: "Public verify lookups by result.",
		}, []string{"result"}),
		SignatureMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbridge_credential_signature_mismatches_total",
			Help: "Stored credentials whose signature failed re-verification.",
		}),
	}
}

func (m *Metrics) IncDocumentProcessed(status string) {
	if m != nil {
		m.DocumentsProcessed.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveProcessingDuration(seconds float64) {
	if m != nil {
		m.ProcessingDuration.Observe(seconds)
	}
}

func (m *Metrics) IncRecalculation() {
	if m != nil {
		m.Recalculations.Inc()
	}
}

func (m *Metrics) IncRecalculationConflict() {
	if m != nil {
		m.RecalculationConflicts.Inc()
	}
}

func (m *Metrics) IncCredentialIssued() {
	if m != nil {
		m.CredentialsIssued.Inc()
	}
}

func (m *Metrics) IncCredentialVerification(result string) {
	if m != nil {
		m.CredentialVerifications.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncSignatureMismatch() {
	if m != nil {
		m.SignatureMismatches.Inc()
	}
}
