// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/corpus"
	"github.com/tomtom215/folio/internal/embedding"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// BatcherConfig controls batch encoding.
type BatcherConfig struct {
	// BatchSize is the number of records per chunk.
	BatchSize int

	// Workers is the number of batches encoded concurrently. Values below 2
	// run batches one after another.
	Workers int
}

// BatchReport summarizes a Run.
type BatchReport struct {
	Batches  int           `json:"batches"`
	Encoded  int           `json:"encoded"`
	Skipped  int           `json:"skipped"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
}

// Batcher encodes a corpus in fixed-size batches and persists each batch as a
// chunk pair keyed by its start offset. Batches already on disk are skipped,
// so an interrupted run resumes where it stopped.
type Batcher struct {
	cfg    BatcherConfig
	store  artifact.Store
	loader *embedding.Loader
	logger zerolog.Logger
}

// NewBatcher creates a batcher writing chunks to store.
func NewBatcher(cfg BatcherConfig, store artifact.Store, loader *embedding.Loader) *Batcher {
	return &Batcher{
		cfg:    cfg,
		store:  store,
		loader: loader,
		logger: logging.WithComponent("batcher"),
	}
}

// batchCounts is shared by concurrent batches.
type batchCounts struct {
	encoded atomic.Int64
	skipped atomic.Int64
}

// Run encodes records[i:i+B] for i = 0, B, 2B, ... The encoder is loaded on
// the first batch that is not already on disk. The first failing batch stops
// the run; chunks written before it remain valid.
func (b *Batcher) Run(ctx context.Context, records []corpus.Record) (BatchReport, error) {
	if b.cfg.BatchSize < 1 {
		return BatchReport{}, fmt.Errorf("%w: %d", ErrInvalidBatchSize, b.cfg.BatchSize)
	}
	start := time.Now()
	log := b.logger.With().Str("correlation_id", logging.CorrelationIDFromContext(ctx)).Logger()

	var offsets []int
	for off := 0; off < len(records); off += b.cfg.BatchSize {
		offsets = append(offsets, off)
	}
	log.Info().
		Int("records", len(records)).
		Int("batches", len(offsets)).
		Int("batch_size", b.cfg.BatchSize).
		Int("workers", b.cfg.Workers).
		Msg("Embedding run started")

	var counts batchCounts
	var err error
	if b.cfg.Workers > 1 {
		err = b.runParallel(ctx, records, offsets, &counts)
	} else {
		for _, off := range offsets {
			if err = b.runBatch(ctx, records, off, &counts); err != nil {
				break
			}
		}
	}

	report := BatchReport{
		Batches:  len(offsets),
		Encoded:  int(counts.encoded.Load()),
		Skipped:  int(counts.skipped.Load()),
		Records:  len(records),
		Duration: time.Since(start),
	}
	if err != nil {
		log.Error().Err(err).Int("encoded", report.Encoded).Int("skipped", report.Skipped).Msg("Embedding run failed")
		return report, err
	}
	log.Info().
		Int("encoded", report.Encoded).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration).
		Msg("Embedding run finished")
	return report, nil
}

// runParallel fans batches out over an errgroup. Chunk names carry the
// offset, so completion order does not matter to the merger.
func (b *Batcher) runParallel(ctx context.Context, records []corpus.Record, offsets []int, counts *batchCounts) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for _, off := range offsets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return b.runBatch(gctx, records, off, counts)
		})
	}
	return g.Wait()
}

func (b *Batcher) runBatch(ctx context.Context, records []corpus.Record, off int, counts *batchCounts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	end := min(off+b.cfg.BatchSize, len(records))

	done, err := artifact.ChunkDone(b.store, off)
	if err != nil {
		return fmt.Errorf("check chunk %d: %w", off, err)
	}
	if done {
		counts.skipped.Add(1)
		metrics.RecordBatch(metrics.BatchSkipped, 0, 0)
		b.logger.Debug().Int("offset", off).Int("end", end).Msg("Batch already processed, skipping")
		return nil
	}

	start := time.Now()
	enc, err := b.loader.Get(ctx)
	if err != nil {
		metrics.RecordBatch(metrics.BatchFailed, 0, 0)
		return err
	}

	batch := records[off:end]
	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.JoinText()
	}

	b.logger.Info().Int("offset", off).Int("end", end).Msg("Encoding batch")
	vectors, err := enc.Encode(ctx, texts)
	if err != nil {
		metrics.RecordBatch(metrics.BatchFailed, 0, 0)
		return fmt.Errorf("encode batch %d-%d: %w", off, end, err)
	}
	if err := checkBatch(vectors, len(batch), enc.Dimension()); err != nil {
		metrics.RecordBatch(metrics.BatchFailed, 0, 0)
		return fmt.Errorf("batch %d-%d: %w", off, end, err)
	}

	chunk := &artifact.Chunk{
		Offset:  off,
		Model:   enc.Model(),
		IDs:     corpus.Titles(batch),
		Vectors: vectors,
	}
	if err := artifact.WriteChunk(b.store, chunk); err != nil {
		metrics.RecordBatch(metrics.BatchFailed, 0, 0)
		return fmt.Errorf("persist chunk %d: %w", off, err)
	}

	counts.encoded.Add(1)
	metrics.RecordBatch(metrics.BatchEncoded, len(batch), time.Since(start))
	return nil
}

// checkBatch verifies the encoder returned one row of the declared width per text.
func checkBatch(vectors [][]float32, rows, dim int) error {
	if len(vectors) != rows {
		return fmt.Errorf("%w: encoder returned %d vectors for %d texts", ErrDimensionMismatch, len(vectors), rows)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: row %d has %d values, encoder dimension is %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
