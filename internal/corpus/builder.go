// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/logging"
)

// Config controls corpus construction.
type Config struct {
	// MetadataPath is the book metadata CSV (title, description, authors, categories, ...).
	MetadataPath string

	// ReviewsPath is the review CSV (Title, review/text, review/helpfulness). Optional.
	ReviewsPath string

	// SubsetSize caps the number of books; 0 keeps all.
	SubsetSize int

	// Seed makes sampling reproducible.
	Seed int64

	// MaxReviews is how many of the most helpful reviews are kept per title.
	MaxReviews int

	// Threads and MaxMemory tune DuckDB. Zero values use DuckDB defaults.
	Threads   int
	MaxMemory string
}

// Stats describes the last Build.
type Stats struct {
	MetadataRows int
	EmptyTitles  int
	Duplicates   int
	Records      int
	ReviewRows   int
	WithReviews  int
}

// Builder joins book metadata with review text into the embedding corpus.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
	stats  Stats
}

// NewBuilder returns a builder for cfg.
func NewBuilder(cfg Config) *Builder {
	if cfg.MaxReviews <= 0 {
		cfg.MaxReviews = 5
	}
	return &Builder{cfg: cfg, logger: logging.WithComponent("corpus")}
}

// Stats returns counters from the last Build.
func (b *Builder) Stats() Stats {
	return b.stats
}

// Build reads the inputs and returns one record per distinct title. Titles are
// trimmed and lowercased; the first metadata row for a title wins. When the
// metadata holds more than SubsetSize titles a seeded sample is kept, in file
// order. Each record carries the MaxReviews most helpful reviews for its title
// joined with single spaces.
func (b *Builder) Build(ctx context.Context) ([]Record, error) {
	start := time.Now()
	b.stats = Stats{}

	db, err := sql.Open("duckdb", b.dsn())
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	records, err := b.loadMetadata(ctx, db)
	if err != nil {
		return nil, err
	}
	records = b.sample(records)

	if b.cfg.ReviewsPath != "" {
		if err := b.attachReviews(ctx, db, records); err != nil {
			return nil, err
		}
	}

	b.stats.Records = len(records)
	b.logger.Info().
		Int("metadata_rows", b.stats.MetadataRows).
		Int("empty_titles", b.stats.EmptyTitles).
		Int("duplicates", b.stats.Duplicates).
		Int("records", b.stats.Records).
		Int("review_rows", b.stats.ReviewRows).
		Int("with_reviews", b.stats.WithReviews).
		Dur("duration", time.Since(start)).
		Msg("Corpus built")
	return records, nil
}

func (b *Builder) dsn() string {
	var opts []string
	if b.cfg.Threads > 0 {
		opts = append(opts, fmt.Sprintf("threads=%d", b.cfg.Threads))
	}
	if b.cfg.MaxMemory != "" {
		opts = append(opts, "max_memory="+b.cfg.MaxMemory)
	}
	if len(opts) == 0 {
		return ""
	}
	return "?" + strings.Join(opts, "&")
}

func (b *Builder) loadMetadata(ctx context.Context, db *sql.DB) ([]Record, error) {
	src := csvSource(b.cfg.MetadataPath)
	cols, err := resolveColumns(ctx, db, src, "title", "description", "authors", "categories")
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", b.cfg.MetadataPath, err)
	}

	query := fmt.Sprintf(
		`SELECT lower(trim(coalesce(%s, ''))), coalesce(%s, ''), coalesce(%s, ''), coalesce(%s, '') FROM %s`,
		cols[0], cols[1], cols[2], cols[3], src)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Title, &r.Description, &r.Authors, &r.Categories); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		b.stats.MetadataRows++
		if r.Title == "" {
			b.stats.EmptyTitles++
			continue
		}
		if _, dup := seen[r.Title]; dup {
			b.stats.Duplicates++
			continue
		}
		seen[r.Title] = struct{}{}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *Builder) sample(records []Record) []Record {
	if b.cfg.SubsetSize <= 0 || len(records) <= b.cfg.SubsetSize {
		return records
	}
	rng := rand.New(rand.NewSource(b.cfg.Seed)) //nolint:gosec // reproducible sampling, not security
	picked := rng.Perm(len(records))[:b.cfg.SubsetSize]
	sort.Ints(picked)

	out := make([]Record, len(picked))
	for i, p := range picked {
		out[i] = records[p]
	}
	return out
}

// attachReviews streams reviews grouped by title and keeps the most helpful
// ones for titles present in records.
func (b *Builder) attachReviews(ctx context.Context, db *sql.DB, records []Record) error {
	byTitle := make(map[string]int, len(records))
	for i, r := range records {
		byTitle[r.Title] = i
	}

	src := csvSource(b.cfg.ReviewsPath)
	cols, err := resolveColumns(ctx, db, src, "title", "review/text", "review/helpfulness")
	if err != nil {
		return fmt.Errorf("reviews %s: %w", b.cfg.ReviewsPath, err)
	}

	// Ordering by body as well makes ties in helpfulness deterministic.
	query := fmt.Sprintf(
		`SELECT lower(trim(%[1]s)) AS t, coalesce(%[2]s, '') AS body, coalesce(%[3]s, '') FROM %[4]s
		 WHERE %[1]s IS NOT NULL ORDER BY t, body`,
		cols[0], cols[1], cols[2], src)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var (
		current string
		group   []review
	)
	flush := func() {
		if i, ok := byTitle[current]; ok && len(group) > 0 {
			records[i].Reviews = topReviews(group, b.cfg.MaxReviews)
			b.stats.WithReviews++
		}
		group = group[:0]
	}

	for rows.Next() {
		var title, body, helpfulness string
		if err := rows.Scan(&title, &body, &helpfulness); err != nil {
			return fmt.Errorf("scan review: %w", err)
		}
		b.stats.ReviewRows++
		if title != current {
			flush()
			current = title
		}
		if _, wanted := byTitle[title]; wanted {
			group = append(group, review{body: body, helpful: HelpfulFraction(helpfulness)})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read reviews: %w", err)
	}
	flush()
	return nil
}

type review struct {
	body    string
	helpful float64
}

// topReviews keeps arrival order among equally helpful reviews.
func topReviews(group []review, n int) string {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].helpful > group[j].helpful
	})
	if len(group) > n {
		group = group[:n]
	}
	parts := make([]string, len(group))
	for i, r := range group {
		parts[i] = r.body
	}
	return strings.Join(parts, " ")
}

// csvSource renders a read_csv_auto table function over path with every
// column read as text.
func csvSource(path string) string {
	return fmt.Sprintf(`read_csv_auto(%s, header = true, all_varchar = true, delim = ',', quote = '"', escape = '"')`,
		quoteLiteral(path))
}

// resolveColumns maps each wanted name to the quoted identifier of the source
// column whose trimmed, lowercased header equals it.
func resolveColumns(ctx context.Context, db *sql.DB, src string, want ...string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+src+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	have := make(map[string]string, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if _, ok := have[key]; !ok {
			have[key] = n
		}
	}

	out := make([]string, len(want))
	var missing []string
	for i, w := range want {
		n, ok := have[w]
		if !ok {
			missing = append(missing, w)
			continue
		}
		out[i] = quoteIdent(n)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return out, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

