// Package metrics holds the Prometheus collectors of the ingestion pipeline.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "statement_ingest"

type Metrics struct {
	rowsNormalized     *prometheus.CounterVec
	rowsDropped        *prometheus.CounterVec
	rowsInserted       prometheus.Counter
	duplicatesSkipped  prometheus.Counter
	categoryDecisions  *prometheus.CounterVec
	classifierLatency  prometheus.Histogram
	classifierFailures prometheus.Counter
	ingestErrors       *prometheus.CounterVec
	ingestDuration     prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rowsNormalized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_normalized_total",
			Help:      "Rows that survived normalization, by source format.",
		}, []string{"source"}),
		rowsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows dropped during normalization, by source format and reason.",
		}, []string{"source", "reason"}),
		rowsInserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Rows newly persisted.",
		}),
		duplicatesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Rows skipped as duplicates in batch or in the store.",
		}),
		categoryDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_decisions_total",
			Help:      "Category assignments by deciding tier.",
		}, []string{"tier"}),
		classifierLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_batch_seconds",
			Help:      "Latency of classifier batch calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		classifierFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Classifier batches that failed or timed out.",
		}),
		ingestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_errors_total",
			Help:      "Failed ingest calls by error kind.",
		}, []string{"kind"}),
		ingestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end duration of ingest calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RowsNormalized(source string, n int) {
	if m == nil {
		return
	}
	m.rowsNormalized.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) RowsDropped(source, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsDropped.WithLabelValues(source, reason).Add(float64(n))
}

func (m *Metrics) Persisted(inserted, skipped int) {
	if m == nil {
		return
	}
	m.rowsInserted.Add(float64(inserted))
	m.duplicatesSkipped.Add(float64(skipped))
}

func (m *Metrics) CategoryDecision(tier string) {
	if m == nil {
		return
	}
	m.categoryDecisions.WithLabelValues(tier).Inc()
}

func (m *Metrics) ClassifierBatch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.classifierLatency.Observe(d.Seconds())
	if err != nil {
		m.classifierFailures.Inc()
	}
}

func (m *Metrics) IngestFailed(kind string) {
	if m == nil {
		return
	}
	m.ingestErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) IngestDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ingestDuration.Observe(d.Seconds())
}
