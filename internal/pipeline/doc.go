// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package pipeline runs the offline stages that turn a corpus into servable
artifacts.

	corpus records -> Batcher -> chunks/*_chunk_<offset>.bin
	               -> Merger  -> embeddings.bin + ids.bin
	               -> IndexBuilder -> index.bin

Every stage preserves positional correspondence: row i of the embedding matrix
is the vector of identifier i, and index position i is that same row.

The Batcher is resumable. A batch whose chunk pair already exists is skipped
and the encoder is only loaded when some batch still needs encoding, so
re-running a finished pipeline costs a directory scan.
*/
package pipeline
