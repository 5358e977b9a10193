// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/embedding"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/vectorindex"
)

// snapshot is everything a query needs. It is built once and never mutated,
// so queries read it without locks.
type snapshot struct {
	encoder  embedding.Encoder
	store    *artifact.EmbeddingStore
	index    vectorindex.Index
	catalog  *catalog.Catalog
	position map[string]int // normalized title -> index position

	fingerprint  string
	loadDuration time.Duration
	loadedAt     time.Time
}

// Service answers recommendation queries against the embedding store, the
// vector index built from it, and the book catalog. Everything is loaded on
// first use. It is safe for concurrent use.
type Service struct {
	cfg    *Config
	loader *embedding.Loader
	store  artifact.Store
	books  catalog.Source
	logger zerolog.Logger

	// initMu serializes the one-time load. Exactly one of state and initErr
	// is published when it finishes; state only after a complete, verified load.
	initMu       sync.Mutex
	initErr      atomic.Pointer[error]
	initializing atomic.Bool
	state        atomic.Pointer[snapshot]

	// responses is nil when caching is disabled.
	responses *cache.LRU[*Response]

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewService creates a recommendation service. Nothing is loaded until the
// first Recommend, SimilarTo or Warm call.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg *Config, loader *embedding.Loader, store artifact.Store, books catalog.Source, logger zerolog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if loader == nil || store == nil || books == nil {
		return nil, errors.New("recommend: loader, store and catalog source are required")
	}

	s := &Service{
		cfg:    cfg.Clone(),
		loader: loader,
		store:  store,
		books:  books,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	if cfg.Cache.Size > 0 {
		s.responses = cache.NewLRU[*Response](cfg.Cache.Size, cfg.Cache.TTL)
	}
	return s, nil
}

// Warm performs the one-time load now instead of on the first query.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.ensureInit(ctx)
	return err
}

// PruneCache drops expired cached responses and returns how many were removed.
func (s *Service) PruneCache() int {
	if s.responses == nil {
		return 0
	}
	return s.responses.CleanupExpired()
}

// CacheTTL is the response cache expiry; 0 means entries never expire.
func (s *Service) CacheTTL() time.Duration {
	if s.responses == nil {
		return 0
	}
	return s.cfg.Cache.TTL
}

// Ready reports whether the service is serving queries.
func (s *Service) Ready() bool {
	return s.state.Load() != nil
}

// Recommend returns the books nearest to the filtered preference text.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (s *Service) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	s.requestCount.Add(1)

	req = s.prepareRequest(ctx, req)
	logger := s.logger.With().Str("request_id", req.RequestID).Logger()

	query, err := BuildQuery(req.Preferences)
	if err != nil {
		metrics.RecordRecommend(metrics.OutcomeClientError, time.Since(start))
		logger.Debug().Int("terms", len(req.Preferences)).Msg("no usable preference terms")
		return nil, err
	}

	snap, err := s.ensureInit(ctx)
	if err != nil {
		s.errorCount.Add(1)
		metrics.RecordRecommend(metrics.OutcomeUninitialized, time.Since(start))
		return nil, err
	}

	key := cacheKey(query, req.K)
	if resp := s.tryGetCachedResponse(key, req.RequestID, start); resp != nil {
		metrics.RecordRecommend(metrics.OutcomeSuccess, time.Since(start))
		logger.Debug().Str("query", query).Msg("cache hit")
		return resp, nil
	}

	hits, err := s.search(ctx, snap, query, req.K)
	if err != nil {
		return nil, s.queryFailed(err, start, logger)
	}

	books, dropped := s.resolve(snap, hits, logger)
	resp := &Response{
		Books: books,
		Metadata: ResponseMetadata{
			RequestID:   req.RequestID,
			Query:       query,
			Requested:   req.K,
			Candidates:  len(hits),
			Returned:    len(books),
			Dropped:     dropped,
			LatencyMS:   time.Since(start).Milliseconds(),
			Model:       snap.encoder.Model(),
			Fingerprint: snap.fingerprint,
			Timestamp:   time.Now(),
		},
	}
	if s.responses != nil {
		s.responses.Add(key, resp.clone())
	}

	metrics.RecordRecommend(metrics.OutcomeSuccess, time.Since(start))
	logger.Debug().
		Str("query", query).
		Int("k", req.K).
		Int("returned", len(books)).
		Int("dropped", dropped).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")
	return resp, nil
}

// SimilarTo returns the books nearest to an indexed title, excluding the
// title itself. No encoding is needed since the title's vector is stored.
func (s *Service) SimilarTo(ctx context.Context, title string, k int) (*Response, error) {
	start := time.Now()
	s.requestCount.Add(1)

	req := s.prepareRequest(ctx, Request{K: k})
	logger := s.logger.With().Str("request_id", req.RequestID).Logger()

	snap, err := s.ensureInit(ctx)
	if err != nil {
		s.errorCount.Add(1)
		metrics.RecordRecommend(metrics.OutcomeUninitialized, time.Since(start))
		return nil, err
	}

	pos, ok := snap.position[catalog.NormalizeTitle(title)]
	if !ok {
		metrics.RecordRecommend(metrics.OutcomeClientError, time.Since(start))
		return nil, fmt.Errorf("%w: %q", ErrUnknownTitle, title)
	}

	qctx, cancel := s.requestContext(ctx)
	defer cancel()
	hits, err := snap.index.SearchContext(qctx, snap.store.Vectors[pos], req.K+1)
	if err != nil {
		return nil, s.queryFailed(err, start, logger)
	}

	others := hits[:0]
	for _, h := range hits {
		if h.Position != pos {
			others = append(others, h)
		}
	}
	if len(others) > req.K {
		others = others[:req.K]
	}

	books, dropped := s.resolve(snap, others, logger)
	metrics.RecordRecommend(metrics.OutcomeSuccess, time.Since(start))
	return &Response{
		Books: books,
		Metadata: ResponseMetadata{
			RequestID:   req.RequestID,
			Query:       snap.store.IDs[pos],
			Requested:   req.K,
			Candidates:  len(others),
			Returned:    len(books),
			Dropped:     dropped,
			LatencyMS:   time.Since(start).Milliseconds(),
			Model:       snap.encoder.Model(),
			Fingerprint: snap.fingerprint,
			Timestamp:   time.Now(),
		},
	}, nil
}

// Status returns the current lifecycle state and counters.
func (s *Service) Status() Status {
	st := Status{
		State:        StateUninitialized,
		RequestCount: s.requestCount.Load(),
		ErrorCount:   s.errorCount.Load(),
		Config:       s.cfg.Clone(),
	}
	if s.responses != nil {
		cs := s.responses.Stats()
		st.Cache = &cs
	}

	if snap := s.state.Load(); snap != nil {
		st.State = StateReady
		st.Ready = true
		st.Model = snap.encoder.Model()
		st.Dimension = snap.store.Dimension
		st.Vectors = snap.index.Len()
		st.Books = snap.catalog.Len()
		st.Fingerprint = snap.fingerprint
		st.InitDurationMS = snap.loadDuration.Milliseconds()
		st.InitializedAt = snap.loadedAt
		return st
	}
	if failed := s.initErr.Load(); failed != nil {
		st.State = StateFailed
		st.Error = (*failed).Error()
		return st
	}
	if s.initializing.Load() {
		st.State = StateInitializing
	}
	return st
}

// prepareRequest applies defaults and clamps K.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (s *Service) prepareRequest(ctx context.Context, req Request) Request {
	if req.RequestID == "" {
		req.RequestID = logging.RequestIDFromContext(ctx)
	}
	if req.RequestID == "" {
		req.RequestID = logging.GenerateRequestID()
	}
	if req.K <= 0 {
		req.K = s.cfg.Limits.DefaultK
	}
	if req.K > s.cfg.Limits.MaxK {
		req.K = s.cfg.Limits.MaxK
	}
	return req
}

func (s *Service) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Limits.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Limits.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// search embeds the query and runs the index lookup under the request timeout.
func (s *Service) search(ctx context.Context, snap *snapshot, query string, k int) ([]vectorindex.Hit, error) {
	qctx, cancel := s.requestContext(ctx)
	defer cancel()

	vectors, err := snap.encoder.Encode(qctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("encode query: encoder returned %d vectors for 1 text", len(vectors))
	}
	return snap.index.SearchContext(qctx, vectors[0], k)
}

// resolve maps index hits to catalog books in distance order. Titles missing
// from the catalog are skipped, so fewer than len(hits) books may be returned.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (s *Service) resolve(snap *snapshot, hits []vectorindex.Hit, logger zerolog.Logger) ([]RankedBook, int) {
	books := make([]RankedBook, 0, len(hits))
	dropped := 0
	for _, h := range hits {
		title := snap.store.IDs[h.Position]
		b, ok := snap.catalog.Lookup(title)
		if !ok {
			dropped++
			metrics.RecordMetadataGap()
			logger.Warn().
				Str("title", title).
				Int("position", h.Position).
				Msg("recommended title has no catalog metadata, skipping")
			continue
		}
		books = append(books, RankedBook{Book: b, Distance: h.Distance, Rank: len(books) + 1})
	}
	return books, dropped
}

// queryFailed classifies and records a per-request failure.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (s *Service) queryFailed(err error, start time.Time, logger zerolog.Logger) error {
	s.errorCount.Add(1)
	outcome := metrics.OutcomeError
	if errors.Is(err, context.DeadlineExceeded) {
		outcome = metrics.OutcomeTimeout
	}
	metrics.RecordRecommend(outcome, time.Since(start))
	logger.Error().Err(err).Str("outcome", outcome).Msg("recommendation query failed")
	return fmt.Errorf("%w: %w", ErrQueryFailed, err)
}

// tryGetCachedResponse returns a copy of a cached response stamped for this request.
func (s *Service) tryGetCachedResponse(key, requestID string, start time.Time) *Response {
	if s.responses == nil {
		return nil
	}
	cached, ok := s.responses.Get(key)
	metrics.RecordRecommendCache(ok)
	if !ok {
		return nil
	}
	resp := cached.clone()
	resp.Metadata.RequestID = requestID
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	resp.Metadata.Timestamp = time.Now()
	return resp
}

// ensureInit returns the loaded snapshot, running the load if no caller has
// yet. Concurrent first callers wait for one load. A failed load is kept and
// returned to every later caller.
func (s *Service) ensureInit(ctx context.Context) (*snapshot, error) {
	if snap := s.state.Load(); snap != nil {
		return snap, nil
	}
	if failed := s.initErr.Load(); failed != nil {
		return nil, *failed
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	if snap := s.state.Load(); snap != nil {
		return snap, nil
	}
	if failed := s.initErr.Load(); failed != nil {
		return nil, *failed
	}

	s.initializing.Store(true)
	defer s.initializing.Store(false)

	// Detached from the triggering request so its cancellation is never
	// cached as the init failure.
	loadCtx := context.WithoutCancel(ctx)
	if s.cfg.InitTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(loadCtx, s.cfg.InitTimeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info().Msg("loading recommendation artifacts")
	snap, err := s.load(loadCtx)
	elapsed := time.Since(start)
	metrics.RecordInit(elapsed, err)

	if err != nil {
		failed := fmt.Errorf("%w: %w", ErrInitialization, err)
		s.initErr.Store(&failed)
		s.logger.Error().Err(err).Dur("duration", elapsed).Msg("recommendation service failed to initialize")
		return nil, failed
	}

	snap.loadDuration = elapsed
	snap.loadedAt = time.Now()
	s.state.Store(snap)
	s.logger.Info().
		Str("model", snap.encoder.Model()).
		Int("vectors", snap.index.Len()).
		Int("dimension", snap.store.Dimension).
		Int("books", snap.catalog.Len()).
		Str("fingerprint", snap.fingerprint).
		Dur("duration", elapsed).
		Msg("recommendation service ready")
	return snap, nil
}

// load reads and cross-checks all artifacts. The cheap consistency checks run
// before the encoder is constructed.
func (s *Service) load(ctx context.Context) (*snapshot, error) {
	es, err := artifact.LoadEmbeddingStore(s.store)
	if err != nil {
		return nil, fmt.Errorf("load embedding store: %w", err)
	}
	idx, fp, err := vectorindex.Load(s.store)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if fp != es.Fingerprint {
		return nil, fmt.Errorf("%w: index built from %016x, embedding store is %016x",
			artifact.ErrFingerprintMismatch, fp, es.Fingerprint)
	}
	if idx.Len() != es.Len() || idx.Dimension() != es.Dimension {
		return nil, fmt.Errorf("%w: index is %dx%d, embedding store is %dx%d",
			artifact.ErrFingerprintMismatch, idx.Len(), idx.Dimension(), es.Len(), es.Dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enc, err := s.loader.Get(ctx)
	if err != nil {
		return nil, err
	}
	if enc.Dimension() != es.Dimension {
		return nil, fmt.Errorf("%w: encoder produces %d values, index holds %d",
			vectorindex.ErrDimensionMismatch, enc.Dimension(), es.Dimension)
	}
	if es.Model != "" && enc.Model() != es.Model {
		s.logger.Warn().
			Str("encoder_model", enc.Model()).
			Str("artifact_model", es.Model).
			Msg("encoder model differs from the model recorded in the artifacts")
	}

	cat, err := s.books.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	position := make(map[string]int, es.Len())
	for i, id := range es.IDs {
		key := catalog.NormalizeTitle(id)
		if _, dup := position[key]; !dup {
			position[key] = i
		}
	}

	return &snapshot{
		encoder:     enc,
		store:       es,
		index:       idx,
		catalog:     cat,
		position:    position,
		fingerprint: fmt.Sprintf("%016x", es.Fingerprint),
	}, nil
}
