// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// Merger concatenates chunk pairs into the persisted embedding store.
type Merger struct {
	store  artifact.Store
	logger zerolog.Logger
}

// NewMerger creates a merger reading chunks from and writing the store to s.
func NewMerger(s artifact.Store) *Merger {
	return &Merger{store: s, logger: logging.WithComponent("merger")}
}

// Merge reads every chunk pair in ascending integer offset order, concatenates
// vectors and identifiers in that same order, and saves embeddings.bin and
// ids.bin. Offsets are compared as integers so chunk 10000 follows chunk 2000.
func (m *Merger) Merge(ctx context.Context) (*artifact.EmbeddingStore, error) {
	start := time.Now()

	vecOffsets, err := m.offsets(artifact.VectorChunkPrefix)
	if err != nil {
		return nil, err
	}
	idOffsets, err := m.offsets(artifact.IDChunkPrefix)
	if err != nil {
		return nil, err
	}
	if len(vecOffsets) == 0 && len(idOffsets) == 0 {
		return nil, ErrNoChunks
	}
	if err := pairOffsets(vecOffsets, idOffsets); err != nil {
		return nil, err
	}

	var (
		model   string
		dim     int
		ids     []string
		vectors [][]float32
	)
	for _, off := range vecOffsets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := artifact.ReadChunk(m.store, off)
		if err != nil {
			if errors.Is(err, artifact.ErrFingerprintMismatch) {
				return nil, fmt.Errorf("%w: %w", ErrResumabilityViolation, err)
			}
			return nil, fmt.Errorf("read chunk %d: %w", off, err)
		}
		if len(c.IDs) != len(c.Vectors) {
			return nil, fmt.Errorf("%w: chunk %d has %d vectors and %d identifiers",
				ErrResumabilityViolation, off, len(c.Vectors), len(c.IDs))
		}
		if len(c.Vectors) == 0 {
			continue
		}

		if dim == 0 {
			model, dim = c.Model, len(c.Vectors[0])
		}
		if len(c.Vectors[0]) != dim {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, earlier chunks have %d",
				ErrDimensionMismatch, off, len(c.Vectors[0]), dim)
		}
		if c.Model != model {
			return nil, fmt.Errorf("%w: chunk %d is %q, earlier chunks are %q", ErrModelMismatch, off, c.Model, model)
		}
		if off != len(ids) {
			m.logger.Warn().
				Int("offset", off).
				Int("preceding_rows", len(ids)).
				Msg("Chunk offset does not follow previous chunk; batch size may have changed between runs")
		}

		ids = append(ids, c.IDs...)
		vectors = append(vectors, c.Vectors...)
	}

	es, err := artifact.NewEmbeddingStore(model, ids, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
	}
	if err := artifact.SaveEmbeddingStore(m.store, es); err != nil {
		return nil, fmt.Errorf("save embedding store: %w", err)
	}

	metrics.PipelineMergedRows.Set(float64(es.Len()))
	m.logger.Info().
		Int("chunks", len(vecOffsets)).
		Int("rows", es.Len()).
		Int("dimension", es.Dimension).
		Str("model", es.Model).
		Str("fingerprint", fmt.Sprintf("%016x", es.Fingerprint)).
		Dur("duration", time.Since(start)).
		Msg("Embedding chunks merged")
	return es, nil
}

// offsets lists chunk offsets for prefix in ascending integer order. Names
// that do not parse are not chunks and are ignored.
func (m *Merger) offsets(prefix string) ([]int, error) {
	names, err := m.store.List(path.Join(artifact.ChunkDir, prefix))
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	out := make([]int, 0, len(names))
	for _, n := range names {
		off, err := artifact.ParseChunkOffset(n, prefix)
		if err != nil {
			m.logger.Warn().Str("name", n).Msg("Ignoring unrecognized chunk artifact")
			continue
		}
		out = append(out, off)
	}
	slices.Sort(out)
	return out, nil
}

// pairOffsets requires both halves of every chunk. Both inputs are sorted.
func pairOffsets(vec, ids []int) error {
	i, j := 0, 0
	for i < len(vec) || j < len(ids) {
		switch {
		case j >= len(ids) || (i < len(vec) && vec[i] < ids[j]):
			return fmt.Errorf("%w: chunk %d has vectors but no identifiers", ErrResumabilityViolation, vec[i])
		case i >= len(vec) || ids[j] < vec[i]:
			return fmt.Errorf("%w: chunk %d has identifiers but no vectors", ErrResumabilityViolation, ids[j])
		default:
			i++
			j++
		}
	}
	return nil
}
