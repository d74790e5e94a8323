// Package pipeline drives the normalize-and-reconcile loop over a raw
// archive directory tree.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/airqtools/airq/internal/domain"
	"github.com/airqtools/airq/internal/normalize"
	"github.com/airqtools/airq/internal/observability"
)

// Source discovers the raw batches to process, in a stable order.
type Source interface {
	Discover(ctx context.Context) ([]string, error)
}

// Normalizer cleans one raw batch file into standardized rows.
type Normalizer interface {
	NormalizeFile(path string) (normalize.Result, error)
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(path string) (normalize.Result, error)

func (f NormalizerFunc) NormalizeFile(path string) (normalize.Result, error) {
	return f(path)
}

// Accumulator receives the cleaned rows of each batch.
type Accumulator interface {
	Ingest(rows []normalize.Row)
}

// Runner processes batches sequentially: discover, normalize, accumulate.
// Normalization of one batch touches no shared state; accumulation is the
// single stateful step and stays on this goroutine.
type Runner struct {
	source  Source
	norm    Normalizer
	acc     Accumulator
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// NewRunner creates a Runner with the given stages and observability.
func NewRunner(source Source, norm Normalizer, acc Accumulator, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		source:  source,
		norm:    norm,
		acc:     acc,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one batch has been processed.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no batches processed yet")
	}
	return nil
}

// Run processes every discovered batch in order. Empty batches are skipped
// with a warning; an unreadable batch aborts the run. Returns the number of
// batches that contributed rows.
func (r *Runner) Run(ctx context.Context) (int, error) {
	paths, err := r.source.Discover(ctx)
	if err != nil {
		return 0, fmt.Errorf("discover batches: %w", err)
	}
	r.logger.Info("found raw batches", "count", len(paths))

	processed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		if err := r.processBatch(path); err != nil {
			if errors.Is(err, normalize.ErrEmptyBatch) {
				r.metrics.EmptyBatches.Inc()
				r.logger.Warn("skipping empty batch", "path", path)
				continue
			}
			return processed, fmt.Errorf("batch %s: %w", path, err)
		}
		processed++
		r.ready.Store(true)
	}
	return processed, nil
}

// processBatch runs one normalize-and-ingest cycle and records its counters.
func (r *Runner) processBatch(path string) error {
	start := domain.Now()

	res, err := r.norm.NormalizeFile(path)
	if err != nil {
		return err
	}

	r.acc.Ingest(res.Rows)

	r.metrics.BatchesProcessed.Inc()
	r.metrics.BatchDuration.Observe(domain.Now().Sub(start).Seconds())
	r.metrics.RowsRead.Add(float64(res.Read))
	r.metrics.RowsDropped.WithLabelValues(observability.DropMissingField).Add(float64(res.DroppedMissing))
	r.metrics.RowsDropped.WithLabelValues(observability.DropBadTimestamp).Add(float64(res.DroppedBadTimestamp))
	r.metrics.RowsDeduplicated.Add(float64(res.Deduplicated))
	r.metrics.CoordinatesInferred.Add(float64(res.CoordinatesInferred))

	r.logger.Debug("processed batch",
		"path", path,
		"read", res.Read,
		"kept", len(res.Rows),
		"dropped_missing", res.DroppedMissing,
		"dropped_bad_timestamp", res.DroppedBadTimestamp,
		"deduplicated", res.Deduplicated,
	)
	return nil
}
