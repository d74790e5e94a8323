package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons for the rows_dropped_total counter.
const (
	DropMissingField = "missing_field"
	DropBadTimestamp = "bad_timestamp"
)

// Conflict kinds for the entity_conflicts_total counter.
const (
	ConflictLocation = "location"
	ConflictSensor   = "sensor"
)

// Metrics holds the Prometheus counters and histograms for the archive ETL.
type Metrics struct {
	RowsRead            prometheus.Counter
	RowsDropped         *prometheus.CounterVec // labels: reason={missing_field,bad_timestamp}
	RowsDeduplicated    prometheus.Counter
	CoordinatesInferred prometheus.Counter

	BatchesProcessed prometheus.Counter
	EmptyBatches     prometheus.Counter
	BatchDuration    prometheus.Histogram

	// Reconciliation metrics.
	EntityConflicts       *prometheus.CounterVec // labels: kind={location,sensor}
	DuplicateMeasurements prometheus.Counter

	// Per-stage wall time for the run command.
	StageDuration *prometheus.HistogramVec // labels: stage
}

// NewMetrics creates and registers all ETL metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsRead,
		m.RowsDropped,
		m.RowsDeduplicated,
		m.CoordinatesInferred,
		m.BatchesProcessed,
		m.EmptyBatches,
		m.BatchDuration,
		m.EntityConflicts,
		m.DuplicateMeasurements,
		m.StageDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "rows_read_total",
			Help:      "Raw CSV rows read across all batches.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows discarded during normalization, by reason.",
		}, []string{"reason"}),
		RowsDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "rows_deduplicated_total",
			Help:      "Rows collapsed by within-batch deduplication.",
		}),
		CoordinatesInferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "coordinates_inferred_total",
			Help:      "Missing coordinates filled from the per-location median.",
		}),
		BatchesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "batches_processed_total",
			Help:      "Raw CSV batches normalized.",
		}),
		EmptyBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "empty_batches_total",
			Help:      "Batches skipped because they contained no data rows.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airq_etl",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one normalize-and-ingest cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		EntityConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "entity_conflicts_total",
			Help:      "Recurring entity ids whose attributes differed from the first occurrence.",
		}, []string{"kind"}),
		DuplicateMeasurements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airq_etl",
			Name:      "duplicate_measurements_total",
			Help:      "Measurements skipped because their id was already accumulated.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "airq_etl",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
	}
}
