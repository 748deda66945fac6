// Package pipeline wires the five transformation stages into a single
// streaming pass over the listings source.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"listing-stats/internal/aggregate"
	"listing-stats/internal/dedupe"
	"listing-stats/internal/filter"
	"listing-stats/internal/model"
	"listing-stats/internal/normalize"
	"listing-stats/internal/region"
)

// Source delivers raw listings one at a time, sql.Rows style. Sources must
// return rows ordered by identifier so the deduplicator's first-occurrence
// pick is stable across runs.
type Source interface {
	Next() bool
	Listing() model.Listing
	Err() error
	Close() error
}

// Sink materializes the final aggregate table.
type Sink interface {
	Write(ctx context.Context, rows []model.AggregateRow) error
}

// StageMetrics records the row counts at one stage boundary.
type StageMetrics struct {
	Stage string
	In    int64
	Out   int64
}

// Dropped returns how many rows the stage removed.
func (m StageMetrics) Dropped() int64 {
	return m.In - m.Out
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID  uuid.UUID
	Stages []StageMetrics
	Rows   []model.AggregateRow
}

// Pipeline holds the run-independent pieces: the validated filter chain and
// the region lookup. Construction fails on malformed bounds; a constructed
// Pipeline never errors on data, it only drops rows.
type Pipeline struct {
	chain  *filter.Chain
	lookup *region.Lookup
	logger *slog.Logger
}

// New builds a Pipeline. bounds are validated here, before any row flows.
func New(bounds filter.Bounds, lookup *region.Lookup, logger *slog.Logger) (*Pipeline, error) {
	chain, err := filter.NewChain(bounds)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{chain: chain, lookup: lookup, logger: logger}, nil
}

// Run streams every listing through dedupe, normalize, join, filter and
// aggregation, writes the sorted aggregate rows to sink and returns the
// per-stage row counts. Only the dedupe seen-set and the per-group value
// buffers grow with the data; everything else is one row at a time.
func (p *Pipeline) Run(ctx context.Context, src Source, sink Sink) (*Result, error) {
	runID := uuid.New()
	log := p.logger.With("run_id", runID.String())

	deduper := dedupe.New(0)
	agg := aggregate.New()

	var read, unique, filtered, aggregated int64

	for src.Next() {
		if err := ctx.Err(); err != nil {
			_ = src.Close()
			return nil, fmt.Errorf("pipeline: run cancelled: %w", err)
		}

		raw := src.Listing()
		read++

		if !deduper.Keep(raw) {
			log.Debug("duplicate identifier skipped", "id", raw.ID)
			continue
		}
		unique++

		joined := p.lookup.Join(normalize.Listing(raw))

		keep, failed := p.chain.Keep(joined)
		if !keep {
			log.Debug("row dropped by filter", "id", raw.ID, "predicate", failed)
			continue
		}
		filtered++

		if agg.Add(joined) {
			aggregated++
		} else {
			log.Debug("row dropped at aggregation", "id", raw.ID)
		}
	}
	if err := src.Err(); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("pipeline: read listings: %w", err)
	}
	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("pipeline: close listings source: %w", err)
	}

	rows := agg.Rows()

	result := &Result{
		RunID: runID,
		Stages: []StageMetrics{
			{Stage: "dedupe", In: read, Out: unique},
			{Stage: "normalize", In: unique, Out: unique},
			{Stage: "join", In: unique, Out: unique},
			{Stage: "filter", In: unique, Out: filtered},
			{Stage: "aggregate", In: filtered, Out: aggregated},
		},
		Rows: rows,
	}

	for _, m := range result.Stages {
		log.Info("stage complete", "stage", m.Stage, "rows_in", m.In, "rows_out", m.Out, "dropped", m.Dropped())
	}
	log.Info("aggregation complete", "groups", len(rows))

	if sink != nil {
		if err := sink.Write(ctx, rows); err != nil {
			return nil, fmt.Errorf("pipeline: write aggregates: %w", err)
		}
	}
	return result, nil
}
