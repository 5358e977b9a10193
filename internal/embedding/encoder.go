// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Provider names accepted by NewLoader.
const (
	ProviderHTTP    = "http"
	ProviderHashing = "hashing"
)

// Errors returned by encoders and the loader.
var (
	ErrUnknownProvider = errors.New("unknown encoder provider")
	ErrBadResponse     = errors.New("encoder returned an unusable response")
)

// Encoder maps texts to fixed-dimension vectors. Row i of the result encodes
// texts[i]. Implementations must be safe for concurrent use.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Config selects and tunes an encoder.
type Config struct {
	// Provider is "http" or "hashing".
	Provider string

	// Model is sent to the HTTP endpoint and recorded in artifacts.
	Model string

	// BaseURL of an OpenAI-compatible API, e.g. http://localhost:11434/v1.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Dimension is the vector size. For the HTTP provider 0 means probe once on load.
	Dimension int

	// MaxBatch caps the texts per HTTP request.
	MaxBatch int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// RequestsPerSecond and Burst configure client-side rate limiting. 0 disables it.
	RequestsPerSecond float64
	Burst             int

	// BreakerThreshold is the consecutive failure count that opens the circuit.
	BreakerThreshold uint32

	// BreakerTimeout is how long the circuit stays open before a trial request.
	BreakerTimeout time.Duration

	// Normalize scales every output vector to unit length.
	Normalize bool
}

// DefaultConfig returns an offline hashing encoder configuration.
func DefaultConfig() Config {
	return Config{
		Provider:         ProviderHashing,
		Model:            "hashing-384",
		Dimension:        384,
		MaxBatch:         64,
		Timeout:          30 * time.Second,
		Burst:            1,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		Normalize:        true,
	}
}

// Normalize scales v in place to unit L2 norm. A zero vector is left unchanged.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// CheckShape verifies that vectors has one row per text and every row has dim values.
func CheckShape(vectors [][]float32, texts, dim int) error {
	if len(vectors) != texts {
		return fmt.Errorf("%w: %d vectors for %d texts", ErrBadResponse, len(vectors), texts)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrBadResponse, i, len(v), dim)
		}
	}
	return nil
}
