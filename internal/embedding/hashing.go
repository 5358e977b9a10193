// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/folio/internal/metrics"
)

// HashingEncoder embeds text by feature hashing lowercased word tokens into a
// fixed number of buckets. It needs no model weights or network and always
// produces the same vector for the same text.
type HashingEncoder struct {
	dim       int
	normalize bool
}

var _ Encoder = (*HashingEncoder)(nil)

// NewHashingEncoder returns a hashing encoder of dimension dim.
func NewHashingEncoder(dim int, normalize bool) (*HashingEncoder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing encoder dimension must be positive, got %d", dim)
	}
	return &HashingEncoder{dim: dim, normalize: normalize}, nil
}

// Dimension implements Encoder.
func (h *HashingEncoder) Dimension() int {
	return h.dim
}

// Model implements Encoder.
func (h *HashingEncoder) Model() string {
	return fmt.Sprintf("hashing-%d", h.dim)
}

// Encode implements Encoder.
func (h *HashingEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			metrics.RecordEncoderCall(ProviderHashing, time.Since(start), err)
			return nil, err
		}
		out[i] = h.vector(text)
	}
	metrics.RecordEncoderCall(ProviderHashing, time.Since(start), nil)
	return out, nil
}

func (h *HashingEncoder) vector(text string) []float32 {
	v := make([]float32, h.dim)
	for _, tok := range tokenize(text) {
		sum := xxhash.Sum64String(tok)
		bucket := int(sum % uint64(h.dim))
		if sum>>63 == 1 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}
	if h.normalize {
		Normalize(v)
	}
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
