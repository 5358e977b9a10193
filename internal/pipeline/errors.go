// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package pipeline

import "errors"

var (
	// ErrResumabilityViolation means the chunk set on disk cannot be merged
	// into a store with positional correspondence: a vector chunk without its
	// identifier chunk (or the reverse), halves from different runs, or row
	// counts that disagree. Re-running the batcher repairs it.
	ErrResumabilityViolation = errors.New("resumability violation")

	// ErrDimensionMismatch means vectors of different widths were produced,
	// usually because the encoder configuration changed between runs.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelMismatch means chunks were produced by different encoders.
	ErrModelMismatch = errors.New("chunks were encoded by different models")

	// ErrNoChunks means the merger found nothing to merge.
	ErrNoChunks = errors.New("no embedding chunks found")

	// ErrInvalidBatchSize is returned for a batch size below one.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
)
