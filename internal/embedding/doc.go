// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package embedding turns text into fixed-dimension float32 vectors.

Two encoders are provided:

  - HTTPEncoder calls an OpenAI-compatible /embeddings endpoint. It splits
    large inputs into MaxBatch requests, waits on a token bucket before each
    request and fails fast through a circuit breaker once the endpoint has
    failed BreakerThreshold times in a row.
  - HashingEncoder hashes word tokens into buckets. It is deterministic and
    offline, and is the default for tests and air-gapped builds.

Loader defers construction until an encoder is first needed. The embedding
batcher relies on this so a run where every batch is already on disk never
contacts the model at all.

The same provider, model and Normalize setting must be used to build the
embedding store and to encode queries, otherwise distances are meaningless.
The query service checks that at least the dimensions agree.
*/
package embedding
