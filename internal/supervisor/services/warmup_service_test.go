// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

type mockWarmer struct {
	warmErr    error
	warmDelay  time.Duration
	ttl        time.Duration
	warmCalls  atomic.Int32
	pruneCalls atomic.Int32
}

func (m *mockWarmer) Warm(ctx context.Context) error {
	m.warmCalls.Add(1)
	time.Sleep(m.warmDelay)
	return m.warmErr
}

func (m *mockWarmer) PruneCache() int {
	m.pruneCalls.Add(1)
	return 1
}

func (m *mockWarmer) CacheTTL() time.Duration { return m.ttl }

var _ suture.Service = (*WarmupService)(nil)

func TestWarmupService_String(t *testing.T) {
	svc := NewWarmupService(&mockWarmer{}, zerolog.Nop())
	if got := svc.String(); got != "warmup-service" {
		t.Errorf("String() = %q, want warmup-service", got)
	}
}

func TestWarmupService_WarmsOnceAndWaits(t *testing.T) {
	warmer := &mockWarmer{}
	svc := NewWarmupService(warmer, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want DeadlineExceeded", err)
	}
	if got := warmer.warmCalls.Load(); got != 1 {
		t.Errorf("Warm() called %d times, want 1", got)
	}
	if got := warmer.pruneCalls.Load(); got != 0 {
		t.Errorf("PruneCache() called %d times without a TTL, want 0", got)
	}
}

func TestWarmupService_PrunesEveryTTL(t *testing.T) {
	warmer := &mockWarmer{ttl: 20 * time.Millisecond}
	svc := NewWarmupService(warmer, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := warmer.pruneCalls.Load(); got < 2 {
		t.Errorf("PruneCache() called %d times, want >= 2", got)
	}
}

func TestWarmupService_FailureIsNotRestarted(t *testing.T) {
	warmer := &mockWarmer{warmErr: errors.New("fingerprint mismatch")}
	svc := NewWarmupService(warmer, zerolog.Nop())

	err := svc.Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() = %v, want suture.ErrDoNotRestart", err)
	}
}

func TestWarmupService_StopsDuringSlowWarm(t *testing.T) {
	warmer := &mockWarmer{warmDelay: time.Second}
	svc := NewWarmupService(warmer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Serve() did not return while Warm was still running")
	}
}
