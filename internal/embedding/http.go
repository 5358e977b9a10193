// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// maxErrorBody caps how much of a failed response is quoted in an error.
const maxErrorBody = 512

// HTTPEncoder calls an OpenAI-compatible embeddings endpoint (OpenAI, Ollama,
// vLLM, text-embeddings-inference). Requests are rate limited client side and
// guarded by a circuit breaker.
type HTTPEncoder struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[][]float32]
	dim     int
}

var _ Encoder = (*HTTPEncoder)(nil)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// callerGoneError marks a failed call whose context was canceled or expired
// by the caller, as opposed to the endpoint failing or timing out.
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string { return e.err.Error() }

func (e *callerGoneError) Unwrap() error { return e.err }

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewHTTPEncoder builds an encoder for cfg. When cfg.Dimension is 0 a single
// probe request determines it.
func NewHTTPEncoder(ctx context.Context, cfg Config) (*HTTPEncoder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("http encoder requires a base URL")
	}
	if cfg.Model == "" {
		return nil, errors.New("http encoder requires a model name")
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	e := &HTTPEncoder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		dim:     cfg.Dimension,
	}
	e.breaker = newBreaker("encoder-"+cfg.Model, cfg)

	if e.dim == 0 {
		probe, err := e.Encode(ctx, []string{"dimension probe"})
		if err != nil {
			return nil, fmt.Errorf("probe embedding dimension: %w", err)
		}
		e.dim = len(probe[0])
		logging.Info().Str("model", cfg.Model).Int("dimension", e.dim).Msg("Probed encoder dimension")
	}
	return e, nil
}

func newBreaker(name string, cfg Config) *gobreaker.CircuitBreaker[[][]float32] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		// The caller giving up is not an endpoint failure. A client timeout is.
		IsSuccessful: func(err error) bool {
			var gone *callerGoneError
			return err == nil || errors.As(err, &gone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Encoder circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Dimension implements Encoder.
func (e *HTTPEncoder) Dimension() int {
	return e.dim
}

// Model implements Encoder.
func (e *HTTPEncoder) Model() string {
	return e.cfg.Model
}

// Encode implements Encoder. Inputs larger than MaxBatch are sent as several
// sequential requests and reassembled in order.
func (e *HTTPEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	out := make([][]float32, 0, len(texts))

	for lo := 0; lo < len(texts); lo += e.cfg.MaxBatch {
		hi := min(lo+e.cfg.MaxBatch, len(texts))
		part, err := e.encodeBatch(ctx, texts[lo:hi])
		if err != nil {
			metrics.RecordEncoderCall(ProviderHTTP, time.Since(start), err)
			return nil, err
		}
		out = append(out, part...)
	}

	metrics.RecordEncoderCall(ProviderHTTP, time.Since(start), nil)
	return out, nil
}

func (e *HTTPEncoder) encodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.breaker.Execute(func() ([][]float32, error) {
		v, err := e.call(ctx, texts)
		if err != nil && ctx.Err() != nil {
			return nil, &callerGoneError{err: err}
		}
		return v, err
	})
	if err != nil {
		name := e.breaker.Name()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
		}
		return nil, fmt.Errorf("encode %d texts with %s: %w", len(texts), e.cfg.Model, err)
	}
	metrics.CircuitBreakerRequests.WithLabelValues(e.breaker.Name(), "success").Inc()

	dim := e.dim
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if err := CheckShape(vectors, len(texts), dim); err != nil {
		return nil, err
	}
	if e.cfg.Normalize {
		for _, v := range vectors {
			Normalize(v)
		}
	}
	return vectors, nil
}

func (e *HTTPEncoder) call(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed embeddingResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && parsed.Error != nil {
			return nil, fmt.Errorf("embedding API error (HTTP %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, fmt.Errorf("embedding API error (HTTP %d): %s", resp.StatusCode, raw)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, decodeErr)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s", parsed.Error.Message)
	}

	// The API may return rows out of order; index is authoritative.
	vectors := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("%w: invalid or repeated index %d", ErrBadResponse, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: no embedding for input %d", ErrBadResponse, i)
		}
	}
	return vectors, nil
}
