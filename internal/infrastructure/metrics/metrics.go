package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/bookkeeper/internal/domain"
)

// Metrics holds the business Prometheus metrics and implements
// usecase.MetricsRecorder.
type Metrics struct {
	// Batch validation metrics
	BatchValidations prometheus.Counter
	ValidatedGroups  *prometheus.CounterVec
	ValidationIssues *prometheus.CounterVec

	// Batch posting metrics
	BatchesPosted     prometheus.Counter
	EntriesPosted     prometheus.Counter
	BatchPostDuration prometheus.Histogram
	BatchFailures     *prometheus.CounterVec

	// Accrual reversal metrics
	AccrualReversals *prometheus.CounterVec

	// Consolidation metrics
	ReportsGenerated *prometheus.CounterVec
	ReportDuration   *prometheus.HistogramVec
	ReportEntities   prometheus.Histogram

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// Storage metrics
	DBRetries *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BatchValidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_batch_validations_total",
			Help: "Total number of batch validation requests",
		}),
		ValidatedGroups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_validated_groups_total",
				Help: "Entry groups validated, by result",
			},
			[]string{"result"},
		),
		ValidationIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_validation_issues_total",
				Help: "Validation issues found, by kind",
			},
			[]string{"kind"},
		),

		BatchesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_batches_posted_total",
			Help: "Total number of committed batches",
		}),
		EntriesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_entries_created_total",
			Help: "Total number of journal entries created by batches",
		}),
		BatchPostDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookkeeper_batch_post_duration_seconds",
			Help:    "Duration of batch posting transactions",
			Buckets: prometheus.DefBuckets,
		}),
		BatchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_batch_failures_total",
				Help: "Rolled back batches, by reason",
			},
			[]string{"reason"},
		),

		AccrualReversals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_accrual_reversals_total",
				Help: "Processed accrual reversal rows, by status",
			},
			[]string{"status"},
		),

		ReportsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_reports_generated_total",
				Help: "Consolidated reports generated, by type",
			},
			[]string{"type"},
		),
		ReportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookkeeper_report_duration_seconds",
				Help:    "Consolidated report generation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		ReportEntities: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookkeeper_report_entities",
			Help:    "Number of entities aggregated per consolidated report",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_outbox_errors_total",
			Help: "Outbox events that failed to publish",
		}),

		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_db_retries_total",
				Help: "Transactions rerun after postgres aborted them, by SQLSTATE",
			},
			[]string{"sqlstate"},
		),
	}
}

// DBRetry counts one transaction rerun.
func (m *Metrics) DBRetry(sqlstate string) {
	m.DBRetries.WithLabelValues(sqlstate).Inc()
}

// BatchValidated records one validation run.
func (m *Metrics) BatchValidated(groups, invalid int, issues map[domain.ErrorKind]int) {
	m.BatchValidations.Inc()
	m.ValidatedGroups.WithLabelValues("valid").Add(float64(groups - invalid))
	m.ValidatedGroups.WithLabelValues("invalid").Add(float64(invalid))
	for kind, n := range issues {
		m.ValidationIssues.WithLabelValues(string(kind)).Add(float64(n))
	}
}

// BatchPosted records a committed batch.
func (m *Metrics) BatchPosted(entries int, duration time.Duration) {
	m.BatchesPosted.Inc()
	m.EntriesPosted.Add(float64(entries))
	m.BatchPostDuration.Observe(duration.Seconds())
}

// BatchFailed records a rolled back batch.
func (m *Metrics) BatchFailed(reason string) {
	m.BatchFailures.WithLabelValues(reason).Inc()
}

// ReversalProcessed records the outcome of one schedule row.
func (m *Metrics) ReversalProcessed(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.AccrualReversals.WithLabelValues(status).Inc()
}

// ReportGenerated records a consolidated report.
func (m *Metrics) ReportGenerated(reportType domain.ReportType, entities int, duration time.Duration) {
	m.ReportsGenerated.WithLabelValues(string(reportType)).Inc()
	m.ReportDuration.WithLabelValues(string(reportType)).Observe(duration.Seconds())
	m.ReportEntities.Observe(float64(entities))
}
