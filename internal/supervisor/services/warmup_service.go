// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// Warmer is the part of recommend.Service the warm-up service drives.
type Warmer interface {
	Warm(ctx context.Context) error
	PruneCache() int
	CacheTTL() time.Duration
}

// WarmupService loads the recommendation artifacts when the server starts,
// so the first request does not pay for it, and then prunes expired cached
// responses every cache TTL.
//
// A failed load is permanent for the process, so the service returns
// suture.ErrDoNotRestart instead of retrying it.
type WarmupService struct {
	target Warmer
	logger zerolog.Logger
	name   string
}

// NewWarmupService creates a warm-up service for target.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWarmupService(target Warmer, logger zerolog.Logger) *WarmupService {
	return &WarmupService{
		target: target,
		logger: logger.With().Str("service", "warmup").Logger(),
		name:   "warmup-service",
	}
}

// Serve implements suture.Service.
func (s *WarmupService) Serve(ctx context.Context) error {
	start := time.Now()
	s.logger.Info().Msg("loading recommendation artifacts")

	// Warm detaches from ctx, so wait for it separately to stay stoppable.
	done := make(chan error, 1)
	go func() { done <- s.target.Warm(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			s.logger.Error().Err(err).Msg("recommendation service failed to initialize; rebuild artifacts and restart")
			return suture.ErrDoNotRestart
		}
	}
	s.logger.Info().Dur("duration", time.Since(start)).Msg("recommendation service ready")

	ttl := s.target.CacheTTL()
	if ttl <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.target.PruneCache(); n > 0 {
				s.logger.Debug().Int("expired", n).Msg("pruned response cache")
			}
		}
	}
}

// String returns the service name for logging.
func (s *WarmupService) String() string {
	return s.name
}
