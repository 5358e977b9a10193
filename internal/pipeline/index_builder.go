// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/vectorindex"
)

// IndexBuilder turns the merged embedding store into a persisted flat index.
type IndexBuilder struct {
	store  artifact.Store
	logger zerolog.Logger
}

// NewIndexBuilder creates an index builder over s.
func NewIndexBuilder(s artifact.Store) *IndexBuilder {
	return &IndexBuilder{store: s, logger: logging.WithComponent("index_builder")}
}

// Build loads embeddings.bin, adds every row to a flat index in stored order,
// and writes index.bin stamped with the store's fingerprint. Position p of the
// index is row p of the store.
func (b *IndexBuilder) Build(ctx context.Context) (*vectorindex.Flat, error) {
	start := time.Now()

	es, err := artifact.LoadEmbeddingStore(b.store)
	if err != nil {
		return nil, fmt.Errorf("load embedding store: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := vectorindex.Build(es.Vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if err := vectorindex.Save(b.store, idx, es.Fingerprint); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	elapsed := time.Since(start)
	metrics.RecordIndexBuild(idx.Len(), elapsed)
	b.logger.Info().
		Int("vectors", idx.Len()).
		Int("dimension", idx.Dimension()).
		Str("fingerprint", fmt.Sprintf("%016x", es.Fingerprint)).
		Dur("duration", elapsed).
		Msg("Index built")
	return idx, nil
}
