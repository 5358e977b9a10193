// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"net/http"

	"github.com/tomtom215/folio/internal/catalog"
)

// ListBooks handles GET /api/v1/books. With q set, only books whose title,
// authors or categories contain q are listed.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, err := getIntParam(r, "limit", defaultPageSize)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	offset, err := getIntParam(r, "offset", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := BooksRequest{
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}
	if !validateRequest(rw, &req) {
		return
	}

	var all []catalog.Book
	if req.Query == "" {
		all = h.books.Books()
	} else {
		all = h.books.Filter(req.Query)
	}

	page := paginate(all, req.Offset, req.Limit)
	rw.SuccessWithPagination(page, &PaginationMeta{
		Total:   len(all),
		Count:   len(page),
		Offset:  req.Offset,
		Limit:   req.Limit,
		HasMore: req.Offset+len(page) < len(all),
	})
}

// TopRated handles GET /api/v1/books/top.
func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	k, err := getIntParam(r, "k", defaultTopK)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	minRatings, err := getIntParam(r, "min_ratings", defaultMinRatings)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := TopRatedRequest{K: k, MinRatings: minRatings}
	if !validateRequest(rw, &req) {
		return
	}

	rw.Success(h.books.TopRated(req.K, req.MinRatings))
}

func paginate(books []catalog.Book, offset, limit int) []catalog.Book {
	if offset >= len(books) {
		return []catalog.Book{}
	}
	end := offset + limit
	if end > len(books) {
		end = len(books)
	}
	return books[offset:end]
}
