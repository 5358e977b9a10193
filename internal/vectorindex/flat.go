// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Errors returned by index construction and search.
var (
	ErrEmpty             = errors.New("index has no vectors")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidQuery      = errors.New("query vector contains NaN or Inf")
	ErrNonFinite         = errors.New("indexed vector contains NaN or Inf")
)

// cancelCheckInterval is how many rows are scanned between context checks.
const cancelCheckInterval = 1024

// Hit is one search result.
type Hit struct {
	// Position is the row of the indexed matrix.
	Position int `json:"position"`

	// Distance is the squared Euclidean distance to the query.
	Distance float32 `json:"distance"`
}

// Index is a read-only k-nearest-neighbor structure over positions 0..Len()-1.
type Index interface {
	Dimension() int
	Len() int
	SearchContext(ctx context.Context, query []float32, k int) ([]Hit, error)
}

// Flat is a brute-force exact index. It is immutable after Build and safe for
// concurrent searches.
type Flat struct {
	dim  int
	n    int
	data []float32
}

var _ Index = (*Flat)(nil)

// Build copies vectors into a new flat index. Row i becomes position i.
func Build(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, ErrEmpty
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrDimensionMismatch)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		if !finite(v) {
			return nil, fmt.Errorf("%w: row %d", ErrNonFinite, i)
		}
		data = append(data, v...)
	}
	return &Flat{dim: dim, n: len(vectors), data: data}, nil
}

// Dimension returns the vector dimension D.
func (f *Flat) Dimension() int {
	return f.dim
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int {
	return f.n
}

// Vector returns a read-only view of the vector at position p.
func (f *Flat) Vector(p int) []float32 {
	return f.data[p*f.dim : (p+1)*f.dim : (p+1)*f.dim]
}

// Search is SearchContext without cancellation.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	return f.SearchContext(context.Background(), query, k)
}

// SearchContext returns the k nearest positions to query, ascending by distance
// with ties broken by ascending position. k larger than Len returns every
// position. k <= 0 returns no hits.
func (f *Flat) SearchContext(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if !finite(query) {
		return nil, ErrInvalidQuery
	}
	if k <= 0 {
		return []Hit{}, nil
	}
	if k > f.n {
		k = f.n
	}

	top := newTopK(k)
	for p := 0; p < f.n; p++ {
		if p%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		top.offer(p, squaredL2(query, f.data[p*f.dim:(p+1)*f.dim]))
	}

	hits := top.hits
	sort.Slice(hits, func(i, j int) bool {
		return less(hits[i], hits[j])
	})
	return hits, nil
}

// finite reports whether v holds no NaN or Inf. Either would break the strict
// (distance, position) ordering the search relies on.
func finite(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

// squaredL2 returns sum((a[i]-b[i])^2). len(b) must equal len(a).
func squaredL2(a, b []float32) float32 {
	b = b[:len(a)]
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
