// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
)

func sampleResponse() *recommend.Response {
	return &recommend.Response{
		Books: []recommend.RankedBook{
			{Book: catalog.Book{Title: "hyperion"}, Distance: 0.25, Rank: 1},
			{Book: catalog.Book{Title: "dune"}, Distance: 0.5, Rank: 2},
		},
		Metadata: recommend.ResponseMetadata{Query: "space opera", Requested: 2, Returned: 2},
	}
}

func postRecommend(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(body))
	req = req.WithContext(logging.ContextWithRequestID(req.Context(), "req-42"))
	rec := httptest.NewRecorder()
	h.Recommend(rec, req)
	return rec
}

func TestRecommend_Success(t *testing.T) {
	fake := &fakeRecommender{resp: sampleResponse()}
	h := newTestHandler(fake)

	rec := postRecommend(h, `{"preferences": ["space opera", "ok"], "k": 2}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	if got := fake.lastRequest; len(got.Preferences) != 2 || got.K != 2 || got.RequestID != "req-42" {
		t.Errorf("forwarded request = %+v", got)
	}

	var resp recommend.Response
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if len(resp.Books) != 2 || resp.Books[0].Book.Title != "hyperion" || resp.Books[0].Rank != 1 {
		t.Errorf("books = %+v", resp.Books)
	}
	if resp.Metadata.Query != "space opera" {
		t.Errorf("query = %q", resp.Metadata.Query)
	}
}

func TestRecommend_KOmittedIsForwardedAsZero(t *testing.T) {
	fake := &fakeRecommender{resp: sampleResponse()}
	rec := postRecommend(newTestHandler(fake), `{"preferences": ["fantasy"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if fake.lastRequest.K != 0 {
		t.Errorf("K = %d, want 0 so the service applies its default", fake.lastRequest.K)
	}
}

func TestRecommend_BlankTermsReachService(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"blank next to a real term", `{"preferences": ["fantasy", "  "]}`},
		{"short next to a real term", `{"preferences": ["fantasy", "a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecommender{resp: sampleResponse()}
			rec := postRecommend(newTestHandler(fake), tt.body)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if len(fake.lastRequest.Preferences) != 2 {
				t.Errorf("forwarded preferences = %q, want both terms", fake.lastRequest.Preferences)
			}
		})
	}
}

func TestRecommend_OnlyBlankTermsIsClientError(t *testing.T) {
	fake := &fakeRecommender{err: recommend.ErrEmptyPreferences}
	rec := postRecommend(newTestHandler(fake), `{"preferences": ["  ", "ok"]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(fake.lastRequest.Preferences) != 2 {
		t.Errorf("service was not consulted: %+v", fake.lastRequest)
	}
}

func TestRecommend_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"preferences": [`, ErrCodeBadRequest},
		{"unknown field", `{"preferences": ["x"], "limit": 3}`, ErrCodeBadRequest},
		{"missing preferences", `{"k": 3}`, "VALIDATION_ERROR"},
		{"empty preferences", `{"preferences": []}`, "VALIDATION_ERROR"},
		{"overlong preference", `{"preferences": ["` + strings.Repeat("x", 201) + `"]}`, "VALIDATION_ERROR"},
		{"negative k", `{"preferences": ["fantasy"], "k": -1}`, "VALIDATION_ERROR"},
		{"huge k", `{"preferences": ["fantasy"], "k": 5000}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecommender{resp: sampleResponse()}
			rec := postRecommend(newTestHandler(fake), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if fake.lastRequest.Preferences != nil {
				t.Error("service should not be called for an invalid request")
			}
		})
	}
}

func TestRecommend_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"short terms only", recommend.ErrEmptyPreferences, http.StatusBadRequest},
		{"not initialized", fmt.Errorf("%w: missing ids.bin", recommend.ErrInitialization), http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("%w: %w", recommend.ErrQueryFailed, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"encoder down", fmt.Errorf("%w: refused", recommend.ErrQueryFailed), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postRecommend(newTestHandler(&fakeRecommender{err: tt.err}), `{"preferences": ["ok", "a"]}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, rec)
			if env.Success || env.Error == nil || env.Error.RequestID != "req-42" {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

func TestSimilarTo(t *testing.T) {
	fake := &fakeRecommender{resp: sampleResponse()}
	h := newTestHandler(fake)

	rec := httptest.NewRecorder()
	h.SimilarTo(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/similar?title=+Dune+&k=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fake.lastTitle != "Dune" || fake.lastK != 3 {
		t.Errorf("forwarded title=%q k=%d", fake.lastTitle, fake.lastK)
	}
}

func TestSimilarTo_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
	}{
		{"missing title", "", nil, http.StatusBadRequest},
		{"blank title", "?title=%20%20", nil, http.StatusBadRequest},
		{"bad k", "?title=dune&k=many", nil, http.StatusBadRequest},
		{"unknown title", "?title=nope", fmt.Errorf("%w: %q", recommend.ErrUnknownTitle, "nope"), http.StatusNotFound},
		{"not initialized", "?title=dune", recommend.ErrInitialization, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeRecommender{resp: sampleResponse(), err: tt.err})
			rec := httptest.NewRecorder()
			h.SimilarTo(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/similar"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRecommendStatus(t *testing.T) {
	fake := &fakeRecommender{status: recommend.Status{
		State:        recommend.StateFailed,
		Error:        "fingerprint mismatch",
		RequestCount: 7,
		ErrorCount:   7,
	}}

	rec := httptest.NewRecorder()
	newTestHandler(fake).RecommendStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st recommend.Status
	decodeData(t, decodeEnvelope(t, rec), &st)
	if st.State != recommend.StateFailed || st.Error != "fingerprint mismatch" || st.RequestCount != 7 {
		t.Errorf("status = %+v", st)
	}
}
