// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/embedding"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/vectorindex"
)

// fakeEncoder maps known texts to fixed vectors; anything else encodes to
// the origin.
type fakeEncoder struct {
	dim     int
	vectors map[string][]float32
	delay   atomic.Int64 // nanoseconds
	calls   atomic.Int32
}

func (f *fakeEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if d := time.Duration(f.delay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = make([]float32, f.dim)
		}
	}
	return out, nil
}

func (f *fakeEncoder) Dimension() int { return f.dim }
func (f *fakeEncoder) Model() string  { return "fake" }

// countingSource counts catalog loads.
type countingSource struct {
	c     *catalog.Catalog
	loads atomic.Int32
}

func (s *countingSource) Load(context.Context) (*catalog.Catalog, error) {
	s.loads.Add(1)
	return s.c, nil
}

type fixture struct {
	store   *artifact.FileStore
	encoder *fakeEncoder
	loader  *embedding.Loader
	source  *countingSource
}

// newFixture writes a four-row store and index. "ghost title" is indexed but
// has no catalog entry.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := artifact.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{"dune", "emma", "the hobbit", "ghost title"}
	vectors := [][]float32{{0, 0}, {10, 10}, {1, 1}, {0.5, 0.5}}
	es, err := artifact.NewEmbeddingStore("fake", ids, vectors)
	if err != nil {
		t.Fatal(err)
	}
	if err := artifact.SaveEmbeddingStore(s, es); err != nil {
		t.Fatal(err)
	}
	idx, err := vectorindex.Build(vectors)
	if err != nil {
		t.Fatal(err)
	}
	if err := vectorindex.Save(s, idx, es.Fingerprint); err != nil {
		t.Fatal(err)
	}

	enc := &fakeEncoder{dim: 2, vectors: map[string][]float32{
		"fantasy":   {0, 0},
		"romance":   {10, 10},
		"adventure": {1.2, 1.2},
	}}
	books := catalog.New([]catalog.Book{
		{Title: "Dune", Authors: "Frank Herbert"},
		{Title: "Emma", Authors: "Jane Austen"},
		{Title: "The Hobbit", Authors: "J.R.R. Tolkien"},
	})
	return &fixture{
		store:   s,
		encoder: enc,
		loader: embedding.NewLoaderFunc(func(context.Context) (embedding.Encoder, error) {
			return enc, nil
		}),
		source: &countingSource{c: books},
	}
}

func (f *fixture) service(t *testing.T, cfg *Config) *Service {
	t.Helper()
	svc, err := NewService(cfg, f.loader, f.store, f.source, logging.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func titles(resp *Response) []string {
	out := make([]string, len(resp.Books))
	for i, b := range resp.Books {
		out[i] = b.Book.Title
	}
	return out
}

func TestService_RecommendSkipsMetadataGaps(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)

	resp, err := svc.Recommend(context.Background(), Request{Preferences: []string{"ok", "fantasy", "a"}, K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// Hits are dune (0), ghost title (0.5), the hobbit (2); the ghost has no metadata.
	want := []string{"dune", "the hobbit"}
	got := titles(resp)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	if resp.Books[0].Distance != 0 || resp.Books[1].Distance != 2 {
		t.Errorf("distances = %v, %v, want 0, 2", resp.Books[0].Distance, resp.Books[1].Distance)
	}
	if resp.Books[0].Rank != 1 || resp.Books[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", resp.Books[0].Rank, resp.Books[1].Rank)
	}
	if resp.Books[0].Book.Authors != "Frank Herbert" {
		t.Errorf("metadata not joined: %+v", resp.Books[0].Book)
	}

	m := resp.Metadata
	if m.Query != "fantasy" || m.Requested != 3 || m.Candidates != 3 || m.Returned != 2 || m.Dropped != 1 {
		t.Errorf("metadata = %+v", m)
	}
	if m.RequestID == "" || m.Model != "fake" || len(m.Fingerprint) != 16 || m.CacheHit {
		t.Errorf("metadata = %+v", m)
	}
}

func TestService_EmptyPreferencesDoesNotLoad(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)

	_, err := svc.Recommend(context.Background(), Request{Preferences: []string{"ok", "a"}})
	if !errors.Is(err, ErrEmptyPreferences) || !IsClientError(err) {
		t.Fatalf("Recommend() error = %v, want client error ErrEmptyPreferences", err)
	}
	if f.loader.Loaded() || svc.Ready() {
		t.Error("empty preferences triggered the artifact load")
	}
}

func TestService_DefaultAndClampedK(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.Limits.DefaultK = 2
	cfg.Limits.MaxK = 3
	svc := f.service(t, cfg)
	ctx := context.Background()

	resp, err := svc.Recommend(ctx, Request{Preferences: []string{"fantasy"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Metadata.Requested != 2 || resp.Metadata.Candidates != 2 {
		t.Errorf("default K: metadata = %+v", resp.Metadata)
	}

	resp, err = svc.Recommend(ctx, Request{Preferences: []string{"fantasy"}, K: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Metadata.Requested != 3 {
		t.Errorf("clamped K = %d, want 3", resp.Metadata.Requested)
	}
}

func TestService_KLargerThanIndex(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)

	resp, err := svc.Recommend(context.Background(), Request{Preferences: []string{"romance"}, K: 50})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Metadata.Candidates != 4 || resp.Metadata.Returned != 3 {
		t.Errorf("metadata = %+v, want all 4 hits and 3 books", resp.Metadata)
	}
	if resp.Books[0].Book.Title != "emma" {
		t.Errorf("nearest to romance = %q, want emma", resp.Books[0].Book.Title)
	}
}

func TestService_ConcurrentFirstCallsLoadOnce(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Recommend(context.Background(), Request{Preferences: []string{"adventure"}}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Recommend() error = %v", err)
	}

	if f.loader.Loads() != 1 {
		t.Errorf("encoder loads = %d, want 1", f.loader.Loads())
	}
	if f.source.loads.Load() != 1 {
		t.Errorf("catalog loads = %d, want 1", f.source.loads.Load())
	}
	if !svc.Ready() {
		t.Error("Ready() = false after successful queries")
	}
}

func TestService_InitFailureIsCached(t *testing.T) {
	f := newFixture(t)
	var attempts atomic.Int32
	boom := errors.New("model weights missing")
	loader := embedding.NewLoaderFunc(func(context.Context) (embedding.Encoder, error) {
		attempts.Add(1)
		return nil, boom
	})
	svc, err := NewService(nil, loader, f.store, f.source, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		_, err := svc.Recommend(context.Background(), Request{Preferences: []string{"fantasy"}})
		if !errors.Is(err, ErrInitialization) || !errors.Is(err, boom) {
			t.Fatalf("call %d: error = %v, want ErrInitialization wrapping cause", i, err)
		}
		if IsClientError(err) {
			t.Error("init failure classified as client error")
		}
	}
	if err := svc.Warm(context.Background()); !errors.Is(err, ErrInitialization) {
		t.Errorf("Warm() error = %v, want ErrInitialization", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("load attempts = %d, want 1", attempts.Load())
	}

	st := svc.Status()
	if st.State != StateFailed || st.Ready || st.Error == "" {
		t.Errorf("Status() = %+v, want failed with error", st)
	}
}

func TestService_FailedStatusWhileInitLockHeld(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("index unreadable")
	loader := embedding.NewLoaderFunc(func(context.Context) (embedding.Encoder, error) {
		return nil, boom
	})
	svc, err := NewService(nil, loader, f.store, f.source, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Warm(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Warm() error = %v, want %v", err, boom)
	}

	// Another caller holding the init lock must not change the reported state.
	svc.initMu.Lock()
	defer svc.initMu.Unlock()

	for i := 0; i < 3; i++ {
		if st := svc.Status(); st.State != StateFailed || !strings.Contains(st.Error, boom.Error()) {
			t.Fatalf("Status() = %+v, want failed with cause", st)
		}
	}
	if _, err := svc.Recommend(context.Background(), Request{Preferences: []string{"fantasy"}}); !errors.Is(err, ErrInitialization) {
		t.Errorf("Recommend() error = %v, want cached ErrInitialization without taking the lock", err)
	}
}

func TestService_FingerprintMismatch(t *testing.T) {
	f := newFixture(t)
	idx, _, err := vectorindex.Load(f.store)
	if err != nil {
		t.Fatal(err)
	}
	// An index stamped with a different store's fingerprint.
	if err := vectorindex.Save(f.store, idx, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}

	svc := f.service(t, nil)
	err = svc.Warm(context.Background())
	if !errors.Is(err, ErrInitialization) || !errors.Is(err, artifact.ErrFingerprintMismatch) {
		t.Fatalf("Warm() error = %v, want fingerprint mismatch", err)
	}
	if f.loader.Loaded() {
		t.Error("encoder loaded although artifacts were inconsistent")
	}
}

func TestService_EncoderDimensionMismatch(t *testing.T) {
	f := newFixture(t)
	f.encoder.dim = 3

	svc := f.service(t, nil)
	err := svc.Warm(context.Background())
	if !errors.Is(err, ErrInitialization) || !errors.Is(err, vectorindex.ErrDimensionMismatch) {
		t.Fatalf("Warm() error = %v, want dimension mismatch", err)
	}
}

func TestService_MissingArtifacts(t *testing.T) {
	f := newFixture(t)
	empty, err := artifact.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc, err := NewService(nil, f.loader, empty, f.source, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Warm(context.Background()); !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("Warm() error = %v, want ErrNotFound", err)
	}
}

func TestService_Timeout(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.Limits.RequestTimeout = 20 * time.Millisecond
	cfg.Cache.Size = 0
	svc := f.service(t, cfg)
	ctx := context.Background()

	if err := svc.Warm(ctx); err != nil {
		t.Fatal(err)
	}

	f.encoder.delay.Store(int64(time.Second))
	_, err := svc.Recommend(ctx, Request{Preferences: []string{"fantasy"}})
	if !errors.Is(err, ErrQueryFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Recommend() error = %v, want ErrQueryFailed from deadline", err)
	}
	if IsClientError(err) {
		t.Error("timeout classified as client error")
	}

	// The service stays usable.
	f.encoder.delay.Store(0)
	if _, err := svc.Recommend(ctx, Request{Preferences: []string{"fantasy"}}); err != nil {
		t.Errorf("Recommend() after timeout error = %v", err)
	}
	if st := svc.Status(); st.ErrorCount != 1 || st.RequestCount != 2 {
		t.Errorf("Status() counts = %d errors / %d requests, want 1/2", st.ErrorCount, st.RequestCount)
	}
}

func TestService_WarmIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Warm(ctx); err != nil {
		t.Fatalf("Warm() with canceled context error = %v", err)
	}
	if !svc.Ready() {
		t.Error("Ready() = false after Warm")
	}
}

func TestService_ResponseCache(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)
	ctx := context.Background()

	first, err := svc.Recommend(ctx, Request{Preferences: []string{"fantasy"}, K: 2, RequestID: "r1"})
	if err != nil {
		t.Fatal(err)
	}
	first.Books[0].Book.Title = "mutated"

	second, err := svc.Recommend(ctx, Request{Preferences: []string{" fantasy ", "no"}, K: 2, RequestID: "r2"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Metadata.CacheHit || second.Metadata.RequestID != "r2" {
		t.Errorf("metadata = %+v, want cache hit for r2", second.Metadata)
	}
	if second.Books[0].Book.Title != "dune" {
		t.Error("caller mutation leaked into the cache")
	}
	if f.encoder.calls.Load() != 1 {
		t.Errorf("encoder calls = %d, want 1", f.encoder.calls.Load())
	}

	// A different K is a different entry.
	if resp, _ := svc.Recommend(ctx, Request{Preferences: []string{"fantasy"}, K: 3}); resp.Metadata.CacheHit {
		t.Error("K=3 served from the K=2 entry")
	}

	st := svc.Status()
	if st.Cache == nil || st.Cache.Hits != 1 || st.Cache.Size != 2 {
		t.Errorf("cache stats = %+v", st.Cache)
	}
}

func TestService_SimilarTo(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)
	ctx := context.Background()

	resp, err := svc.SimilarTo(ctx, "  The Hobbit ", 2)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	// Neighbors of the hobbit are ghost title (0.5) then dune (2); the
	// hobbit itself is excluded and the ghost has no metadata.
	got := titles(resp)
	if len(got) != 1 || got[0] != "dune" {
		t.Errorf("titles = %v, want [dune]", got)
	}
	if resp.Metadata.Query != "the hobbit" || resp.Metadata.Dropped != 1 {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if f.encoder.calls.Load() != 0 {
		t.Error("SimilarTo encoded text")
	}

	_, err = svc.SimilarTo(ctx, "unknown", 2)
	if !errors.Is(err, ErrUnknownTitle) || !IsClientError(err) {
		t.Errorf("SimilarTo(unknown) error = %v, want client error", err)
	}
}

func TestService_Status(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, nil)

	st := svc.Status()
	if st.State != StateUninitialized || st.Ready {
		t.Errorf("Status() before load = %+v", st)
	}

	if err := svc.Warm(context.Background()); err != nil {
		t.Fatal(err)
	}
	st = svc.Status()
	if st.State != StateReady || !st.Ready {
		t.Fatalf("Status() after Warm = %+v", st)
	}
	if st.Vectors != 4 || st.Books != 3 || st.Dimension != 2 || st.Model != "fake" || st.Fingerprint == "" {
		t.Errorf("Status() = %+v", st)
	}
	if st.InitializedAt.IsZero() || st.Config == nil {
		t.Errorf("Status() = %+v", st)
	}
}

func TestNewService_Validation(t *testing.T) {
	f := newFixture(t)
	bad := DefaultConfig()
	bad.Limits.DefaultK = 0
	if _, err := NewService(bad, f.loader, f.store, f.source, logging.Nop()); err == nil {
		t.Error("NewService() accepted an invalid config")
	}
	if _, err := NewService(nil, nil, f.store, f.source, logging.Nop()); err == nil {
		t.Error("NewService() accepted a nil loader")
	}
}

func TestService_PruneCache(t *testing.T) {
	f := newFixture(t)

	disabled := DefaultConfig()
	disabled.Cache.Size = 0
	if n := f.service(t, disabled).PruneCache(); n != 0 {
		t.Errorf("PruneCache() without a cache = %d, want 0", n)
	}

	cfg := DefaultConfig()
	cfg.Cache.TTL = time.Millisecond
	svc := f.service(t, cfg)
	if svc.CacheTTL() != time.Millisecond {
		t.Errorf("CacheTTL() = %v, want 1ms", svc.CacheTTL())
	}
	if _, err := svc.Recommend(context.Background(), Request{Preferences: []string{"fantasy"}, K: 1}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	if n := svc.PruneCache(); n != 1 {
		t.Errorf("PruneCache() = %d, want 1", n)
	}
}
