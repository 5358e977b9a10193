// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package artifact persists the build products of the embedding pipeline.

Three kinds of artifact exist, each with a small binary header:

  - matrix: an N x D block of float32 vectors (embeddings.bin and the
    per-batch embeddings_chunk_<offset>.bin files)
  - ids: an ordered sequence of N identifiers (ids.bin and the per-batch
    titles_chunk_<offset>.bin files)
  - index: a serialized vector index (index.bin)

Every header carries a format version and a 64-bit fingerprint. A merged
EmbeddingStore writes the same fingerprint into embeddings.bin and ids.bin, and
the index builder copies it into index.bin. Loading code compares them and
refuses to pair artifacts that were not produced together.

# Storage Backends

Artifacts are addressed by logical name through the Store interface:

  - FileStore: one file per artifact under a root directory, written with
    temp file + rename so a crashed writer never leaves a partial artifact
  - BadgerStore: one key per artifact in a Badger database, written in a
    single transaction

# Layout

	embeddings.bin
	ids.bin
	index.bin
	chunks/embeddings_chunk_0.bin
	chunks/titles_chunk_0.bin
	chunks/embeddings_chunk_1000.bin
	...

Chunk offsets are decimal integers. Callers must sort them numerically; see
ParseChunkOffset.
*/
package artifact
