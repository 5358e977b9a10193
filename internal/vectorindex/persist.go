// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package vectorindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/folio/internal/artifact"
)

// KindFlat identifies a Flat payload inside an index artifact.
const KindFlat = "flat"

// ErrUnsupportedKind is returned when an index artifact holds an unknown index type.
var ErrUnsupportedKind = errors.New("unsupported index kind")

// MarshalBinary encodes the index as u32 dimension, u32 count and the
// little-endian float32 rows.
func (f *Flat) MarshalBinary() ([]byte, error) {
	if uint64(f.n) > math.MaxUint32 || uint64(f.dim) > math.MaxUint32 {
		return nil, fmt.Errorf("index too large to serialize: %d x %d", f.n, f.dim)
	}
	out := make([]byte, 8+4*len(f.data))
	binary.LittleEndian.PutUint32(out[0:], uint32(f.dim))
	binary.LittleEndian.PutUint32(out[4:], uint32(f.n))
	for i, v := range f.data {
		binary.LittleEndian.PutUint32(out[8+4*i:], math.Float32bits(v))
	}
	return out, nil
}

// UnmarshalFlat decodes a payload produced by MarshalBinary.
func UnmarshalFlat(data []byte) (*Flat, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: flat payload is %d bytes", artifact.ErrCorrupt, len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data[0:]))
	n := int(binary.LittleEndian.Uint32(data[4:]))
	if dim == 0 || n == 0 {
		return nil, fmt.Errorf("%w: flat payload declares %d x %d", artifact.ErrCorrupt, n, dim)
	}
	body := data[8:]
	if uint64(len(body)) != uint64(n)*uint64(dim)*4 {
		return nil, fmt.Errorf("%w: flat payload has %d body bytes for %d x %d", artifact.ErrCorrupt, len(body), n, dim)
	}

	vals := make([]float32, n*dim)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
	}
	if !finite(vals) {
		return nil, fmt.Errorf("%w: %w", artifact.ErrCorrupt, ErrNonFinite)
	}
	return &Flat{dim: dim, n: n, data: vals}, nil
}

// Save writes f as the index artifact, stamped with the fingerprint of the
// embedding store it was built from.
func Save(s artifact.Store, f *Flat, fingerprint uint64) error {
	payload, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	blob := artifact.EncodeIndex(&artifact.IndexBlob{
		Kind:        KindFlat,
		Fingerprint: fingerprint,
		Payload:     payload,
	})
	if err := s.Write(artifact.IndexName, blob); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Load reads the index artifact and returns it with its recorded fingerprint.
func Load(s artifact.Store) (*Flat, uint64, error) {
	data, err := s.Read(artifact.IndexName)
	if err != nil {
		return nil, 0, fmt.Errorf("read index: %w", err)
	}
	blob, err := artifact.DecodeIndex(data)
	if err != nil {
		return nil, 0, err
	}
	if blob.Kind != KindFlat {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, blob.Kind)
	}
	f, err := UnmarshalFlat(blob.Payload)
	if err != nil {
		return nil, 0, err
	}
	return f, blob.Fingerprint, nil
}
