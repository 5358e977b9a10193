// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package vectorindex provides exact k-nearest-neighbor search over embedding
vectors.

Flat stores every vector contiguously in insertion order and answers a query
with a full scan under squared Euclidean distance:

	dist(a, b) = sum((a[i] - b[i])^2)

No normalization is applied. Callers that want cosine ranking normalize both
the indexed vectors and the query vectors to unit length first.

# Result Order

Search returns at most k hits ordered by ascending distance. Hits at equal
distance are ordered by ascending position, so results are reproducible.
Position p always refers to row p of the matrix the index was built from.

# Substitution Point

Index is the interface the query service depends on. An approximate index
(graph or tree based) can replace Flat as long as it keeps the position
contract above.

# Persistence

Save and Load frame the index with the fingerprint of the embedding store it
was built from. The query service refuses to pair an index with a store whose
fingerprint differs.
*/
package vectorindex
