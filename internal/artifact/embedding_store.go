// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package artifact

import (
	"errors"
	"fmt"
)

// ErrFingerprintMismatch indicates artifacts that were not produced together,
// or an artifact whose content no longer matches its recorded fingerprint.
var ErrFingerprintMismatch = errors.New("artifact fingerprint mismatch")

// EmbeddingStore is the merged embedding matrix and its parallel identifier
// sequence. Vectors[i] is the embedding of the item named IDs[i].
type EmbeddingStore struct {
	Model       string
	Dimension   int
	Vectors     [][]float32
	IDs         []string
	Fingerprint uint64
}

// NewEmbeddingStore validates the pair and computes its fingerprint.
func NewEmbeddingStore(model string, ids []string, vectors [][]float32) (*EmbeddingStore, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%d identifiers for %d vectors", len(ids), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRagged, i, len(v), dim)
		}
	}
	return &EmbeddingStore{
		Model:       model,
		Dimension:   dim,
		Vectors:     vectors,
		IDs:         ids,
		Fingerprint: Fingerprint(ids, vectors),
	}, nil
}

// Len returns the number of rows.
func (e *EmbeddingStore) Len() int {
	return len(e.IDs)
}

// SaveEmbeddingStore writes embeddings.bin then ids.bin.
func SaveEmbeddingStore(s Store, e *EmbeddingStore) error {
	data, err := EncodeMatrix(&Matrix{
		Model:       e.Model,
		Fingerprint: e.Fingerprint,
		Dimension:   e.Dimension,
		Rows:        e.Vectors,
	})
	if err != nil {
		return fmt.Errorf("encode embeddings: %w", err)
	}
	if err := s.Write(EmbeddingsName, data); err != nil {
		return err
	}
	return s.Write(IDsName, EncodeIDs(&IDList{Fingerprint: e.Fingerprint, IDs: e.IDs}))
}

// LoadEmbeddingStore reads and cross-checks embeddings.bin and ids.bin. Both
// headers must carry the same fingerprint and the content must still hash to it.
func LoadEmbeddingStore(s Store) (*EmbeddingStore, error) {
	raw, err := s.Read(EmbeddingsName)
	if err != nil {
		return nil, err
	}
	m, err := DecodeMatrix(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", EmbeddingsName, err)
	}

	raw, err = s.Read(IDsName)
	if err != nil {
		return nil, err
	}
	l, err := DecodeIDs(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", IDsName, err)
	}

	if m.Fingerprint != l.Fingerprint {
		return nil, fmt.Errorf("%w: %s has %016x, %s has %016x",
			ErrFingerprintMismatch, EmbeddingsName, m.Fingerprint, IDsName, l.Fingerprint)
	}
	if len(m.Rows) != len(l.IDs) {
		return nil, fmt.Errorf("%w: %d vectors for %d identifiers", ErrFingerprintMismatch, len(m.Rows), len(l.IDs))
	}
	if fp := Fingerprint(l.IDs, m.Rows); fp != m.Fingerprint {
		return nil, fmt.Errorf("%w: content hashes to %016x, header says %016x", ErrFingerprintMismatch, fp, m.Fingerprint)
	}

	return &EmbeddingStore{
		Model:       m.Model,
		Dimension:   m.Dimension,
		Vectors:     m.Rows,
		IDs:         l.IDs,
		Fingerprint: m.Fingerprint,
	}, nil
}

// Chunk is one batch's vectors and identifiers.
type Chunk struct {
	Offset  int
	Model   string
	IDs     []string
	Vectors [][]float32
}

// WriteChunk persists a chunk pair, vectors first. Both halves carry the
// pair's fingerprint so the merger can detect halves from different runs.
// A crash between the two writes leaves only the vector half, which the
// batcher treats as not done.
func WriteChunk(s Store, c *Chunk) error {
	fp := Fingerprint(c.IDs, c.Vectors)
	data, err := EncodeMatrix(&Matrix{Model: c.Model, Fingerprint: fp, Rows: c.Vectors})
	if err != nil {
		return fmt.Errorf("encode chunk %d: %w", c.Offset, err)
	}
	if err := s.Write(VectorChunkName(c.Offset), data); err != nil {
		return err
	}
	return s.Write(IDChunkName(c.Offset), EncodeIDs(&IDList{Fingerprint: fp, IDs: c.IDs}))
}

// ChunkDone reports whether both halves of the chunk at offset exist.
func ChunkDone(s Store, offset int) (bool, error) {
	ok, err := s.Exists(VectorChunkName(offset))
	if err != nil || !ok {
		return false, err
	}
	return s.Exists(IDChunkName(offset))
}

// ReadChunk loads and cross-checks the chunk pair at offset.
func ReadChunk(s Store, offset int) (*Chunk, error) {
	raw, err := s.Read(VectorChunkName(offset))
	if err != nil {
		return nil, err
	}
	m, err := DecodeMatrix(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", VectorChunkName(offset), err)
	}
	raw, err = s.Read(IDChunkName(offset))
	if err != nil {
		return nil, err
	}
	l, err := DecodeIDs(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", IDChunkName(offset), err)
	}
	if m.Fingerprint != l.Fingerprint {
		return nil, fmt.Errorf("%w: chunk %d halves were written by different runs", ErrFingerprintMismatch, offset)
	}
	return &Chunk{Offset: offset, Model: m.Model, IDs: l.IDs, Vectors: m.Rows}, nil
}

// Open returns a Store for the configured backend ("file" or "badger").
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(path)
	case "badger":
		return OpenBadgerStore(BadgerOptions{Path: path, SyncWrites: true})
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", backend)
	}
}
