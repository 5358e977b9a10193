// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package artifact

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a 64-bit digest of an identifier sequence and its vectors.
// Row order is part of the digest, so two stores with the same content in a
// different order have different fingerprints.
func Fingerprint(ids []string, vectors [][]float32) uint64 {
	d := xxhash.New()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(len(ids)))
	_, _ = d.Write(buf[:])
	for _, id := range ids {
		binary.LittleEndian.PutUint32(buf[:4], uint32(len(id)))
		_, _ = d.Write(buf[:4])
		_, _ = d.WriteString(id)
	}

	binary.LittleEndian.PutUint64(buf[:], uint64(len(vectors)))
	_, _ = d.Write(buf[:])
	for _, v := range vectors {
		binary.LittleEndian.PutUint32(buf[:4], uint32(len(v)))
		_, _ = d.Write(buf[:4])
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
			_, _ = d.Write(buf[:4])
		}
	}

	return d.Sum64()
}
