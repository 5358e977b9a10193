// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMissingColumns is returned when an input file lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

// Columns of the corpus file, in order.
var Columns = []string{"title", "description", "authors", "categories", "reviews"}

// Record is one book ready for embedding.
type Record struct {
	Title       string
	Description string
	Authors     string
	Categories  string
	Reviews     string
}

// JoinText is the text that gets embedded for the record.
func (r Record) JoinText() string {
	return r.Title + ". " + r.Description + ". " + r.Reviews
}

// Titles returns the titles of records in order.
func Titles(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

// NormalizeTitle is the join key used across the corpus, the catalog and
// the embedding identifiers.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HelpfulFraction parses an Amazon "helpful/total" vote string. Anything that
// is not two integers with a non-zero total yields 0.
func HelpfulFraction(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err != nil || d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Title, r.Description, r.Authors, r.Categories, r.Reviews}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the corpus to path, replacing it atomically.
func WriteFile(path string, records []Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create corpus directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".corpus-*.csv")
	if err != nil {
		return fmt.Errorf("create temp corpus: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := WriteCSV(tmp, records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close corpus: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ReadCSV reads a corpus file. Column order is free; column names are
// matched after trimming and lowercasing. The reviews column is optional.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty corpus file", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range Columns[:4] {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read corpus row %d: %w", len(out)+2, err)
		}
		out = append(out, Record{
			Title:       field(row, "title"),
			Description: field(row, "description"),
			Authors:     field(row, "authors"),
			Categories:  field(row, "categories"),
			Reviews:     field(row, "reviews"),
		})
	}
}

// ReadFile reads a corpus file from path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
