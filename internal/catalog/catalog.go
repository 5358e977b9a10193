// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/folio/internal/logging"
)

// DefaultThumbnail is used for books without a cover image.
const DefaultThumbnail = "https://via.placeholder.com/200x300?text=No+Cover"

// ErrMissingColumns is returned when the catalog file lacks a required column.
var ErrMissingColumns = errors.New("catalog is missing required columns")

// RequiredColumns must be present in every catalog file.
var RequiredColumns = []string{"title", "authors", "categories", "description"}

// Book is the display record for one title.
type Book struct {
	Title         string  `json:"title"`
	Authors       string  `json:"authors"`
	Categories    string  `json:"categories"`
	Description   string  `json:"description"`
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int     `json:"ratings_count"`
	Thumbnail     string  `json:"thumbnail"`
}

// Catalog is an immutable, title-keyed collection of books.
type Catalog struct {
	books      []Book
	byTitle    map[string]int
	duplicates int
	skipped    int
}

// NormalizeTitle is the lookup key: trimmed and lowercased.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// New builds a catalog from books in order. Titles are normalized; rows with
// an empty title are skipped and only the first book per title is kept.
func New(books []Book) *Catalog {
	c := &Catalog{byTitle: make(map[string]int, len(books))}
	for _, b := range books {
		c.add(b)
	}
	return c
}

func (c *Catalog) add(b Book) {
	b.Title = NormalizeTitle(b.Title)
	if b.Title == "" {
		c.skipped++
		return
	}
	if _, dup := c.byTitle[b.Title]; dup {
		c.duplicates++
		logging.Debug().Str("title", b.Title).Msg("Duplicate catalog title ignored")
		return
	}
	if strings.TrimSpace(b.Thumbnail) == "" {
		b.Thumbnail = DefaultThumbnail
	}
	c.byTitle[b.Title] = len(c.books)
	c.books = append(c.books, b)
}

// Load parses a catalog CSV. Header names are trimmed and lowercased before
// matching. average_rating, ratings_count and thumbnail are optional;
// unparsable numbers become zero.
func Load(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(RequiredColumns, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	c := &Catalog{byTitle: make(map[string]int)}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}
		c.add(Book{
			Title:         get(row, "title"),
			Authors:       get(row, "authors"),
			Categories:    get(row, "categories"),
			Description:   get(row, "description"),
			AverageRating: parseFloat(get(row, "average_rating")),
			RatingsCount:  parseCount(get(row, "ratings_count")),
			Thumbnail:     get(row, "thumbnail"),
		})
	}
	return c, nil
}

// LoadFile opens and parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseCount also accepts "120.0", which spreadsheet exports produce.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	v := parseFloat(s)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0
	}
	return int(v)
}

// Len returns the number of distinct titles.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Duplicates returns how many rows were dropped as repeated titles.
func (c *Catalog) Duplicates() int {
	return c.duplicates
}

// Skipped returns how many rows were dropped for an empty title.
func (c *Catalog) Skipped() int {
	return c.skipped
}

// Books returns all books in file order. The slice must not be modified.
func (c *Catalog) Books() []Book {
	return c.books
}

// Lookup finds a book by title. The argument is normalized first.
func (c *Catalog) Lookup(title string) (Book, bool) {
	i, ok := c.byTitle[NormalizeTitle(title)]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

// Filter returns books whose title, authors or categories contain query,
// ignoring case. An empty query matches every book.
func (c *Catalog) Filter(query string) []Book {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.books
	}
	var out []Book
	for _, b := range c.books {
		if strings.Contains(b.Title, q) ||
			strings.Contains(strings.ToLower(b.Authors), q) ||
			strings.Contains(strings.ToLower(b.Categories), q) {
			out = append(out, b)
		}
	}
	return out
}

// TopRated returns up to k books with at least minRatings ratings, ordered by
// average rating, then ratings count (both descending), then title.
func (c *Catalog) TopRated(k, minRatings int) []Book {
	if k <= 0 {
		return []Book{}
	}
	var eligible []Book
	for _, b := range c.books {
		if b.RatingsCount >= minRatings {
			eligible = append(eligible, b)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		if a.RatingsCount != b.RatingsCount {
			return a.RatingsCount > b.RatingsCount
		}
		return a.Title < b.Title
	})
	if len(eligible) > k {
		eligible = eligible[:k]
	}
	if eligible == nil {
		return []Book{}
	}
	return eligible
}
