// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package catalog

import (
	"context"
	"time"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// Source supplies the catalog to the query service.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// FileSource loads a catalog CSV from disk.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	c, err := LoadFile(s.Path)
	if err != nil {
		return nil, err
	}

	metrics.SetCatalogStats(c.Len(), c.Duplicates())
	ev := logging.Info()
	if c.Duplicates() > 0 {
		ev = logging.Warn()
	}
	ev.Str("path", s.Path).
		Int("books", c.Len()).
		Int("duplicates", c.Duplicates()).
		Int("skipped", c.Skipped()).
		Dur("duration", time.Since(start)).
		Msg("Catalog loaded")
	return c, nil
}

// Static returns a Source that always yields c.
func Static(c *Catalog) Source {
	return staticSource{c}
}

type staticSource struct {
	c *Catalog
}

func (s staticSource) Load(context.Context) (*Catalog, error) {
	return s.c, nil
}
