// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package corpus prepares the text that gets embedded: one Record per book,
// built by joining catalog metadata with the most helpful reader reviews.
//
// Builder runs the heavy CSV work inside an in-memory DuckDB. WriteFile and
// ReadFile persist the result as the corpus CSV consumed by the embedding
// batcher, so the expensive join runs once and later runs resume from disk.
package corpus
