// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package catalog holds the display metadata for books, keyed by normalized
// title. The query service resolves search hits through Lookup; the books API
// lists, filters and ranks the same data.
package catalog
