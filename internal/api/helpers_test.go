// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/recommend"
)

// fakeRecommender records calls and returns canned results.
type fakeRecommender struct {
	mu          sync.Mutex
	lastRequest recommend.Request
	lastTitle   string
	lastK       int

	resp   *recommend.Response
	err    error
	ready  bool
	status recommend.Status
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequest = req
	return f.resp, f.err
}

func (f *fakeRecommender) SimilarTo(_ context.Context, title string, k int) (*recommend.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTitle = title
	f.lastK = k
	return f.resp, f.err
}

func (f *fakeRecommender) Status() recommend.Status { return f.status }

func (f *fakeRecommender) Ready() bool { return f.ready }

var _ Recommender = (*fakeRecommender)(nil)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Book{
		{Title: "Dune", Authors: "Frank Herbert", Categories: "Fiction", AverageRating: 4.6, RatingsCount: 900},
		{Title: "Emma", Authors: "Jane Austen", Categories: "Fiction", AverageRating: 4.1, RatingsCount: 300},
		{Title: "Cosmos", Authors: "Carl Sagan", Categories: "Science", AverageRating: 4.8, RatingsCount: 40},
		{Title: "Hyperion", Authors: "Dan Simmons", Categories: "Fiction", AverageRating: 4.3, RatingsCount: 500},
		{Title: "The Selfish Gene", Authors: "Richard Dawkins", Categories: "Science", AverageRating: 4.0, RatingsCount: 250},
	})
}

func newTestHandler(rec *fakeRecommender) *Handler {
	return NewHandler(rec, testCatalog(), "test")
}

// envelope mirrors APIResponse with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
}
