// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package embedding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// Factory constructs an encoder.
type Factory func(ctx context.Context) (Encoder, error)

// Loader constructs an encoder at most once, on first use. A failed
// construction is remembered and returned to every later caller.
type Loader struct {
	factory  Factory
	provider string

	mu   sync.Mutex
	done bool
	enc  Encoder
	err  error

	loads atomic.Int64
}

// NewLoader returns a loader for the provider named in cfg.
func NewLoader(cfg Config) *Loader {
	var f Factory
	switch cfg.Provider {
	case ProviderHashing:
		f = func(context.Context) (Encoder, error) {
			return NewHashingEncoder(cfg.Dimension, cfg.Normalize)
		}
	case ProviderHTTP:
		f = func(ctx context.Context) (Encoder, error) {
			return NewHTTPEncoder(ctx, cfg)
		}
	default:
		f = func(context.Context) (Encoder, error) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
		}
	}
	return &Loader{factory: f, provider: cfg.Provider}
}

// NewLoaderFunc wraps an arbitrary factory.
func NewLoaderFunc(f Factory) *Loader {
	return &Loader{factory: f, provider: "custom"}
}

// Get returns the encoder, constructing it on the first call. Concurrent
// callers wait for that single construction.
func (l *Loader) Get(ctx context.Context) (Encoder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return l.enc, l.err
	}

	start := time.Now()
	l.enc, l.err = l.factory(ctx)
	l.done = true
	l.loads.Add(1)
	metrics.EncoderLoads.WithLabelValues(l.provider).Inc()

	if l.err != nil {
		l.err = fmt.Errorf("load encoder: %w", l.err)
		return nil, l.err
	}
	logging.Info().
		Str("provider", l.provider).
		Str("model", l.enc.Model()).
		Int("dimension", l.enc.Dimension()).
		Dur("duration", time.Since(start)).
		Msg("Encoder loaded")
	return l.enc, nil
}

// Loaded reports whether construction has been attempted.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Loads returns how many times the factory ran (0 or 1).
func (l *Loader) Loads() int {
	return int(l.loads.Load())
}
