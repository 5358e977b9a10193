// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package artifact

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Logical artifact names.
const (
	EmbeddingsName = "embeddings.bin"
	IDsName        = "ids.bin"
	IndexName      = "index.bin"

	// ChunkDir is the location of per-batch chunk artifacts.
	ChunkDir = "chunks"

	// VectorChunkPrefix and IDChunkPrefix are followed by the batch start offset.
	VectorChunkPrefix = "embeddings_chunk_"
	IDChunkPrefix     = "titles_chunk_"

	chunkExt = ".bin"
)

// VectorChunkName returns the artifact name of the vector chunk starting at offset.
func VectorChunkName(offset int) string {
	return path.Join(ChunkDir, VectorChunkPrefix+strconv.Itoa(offset)+chunkExt)
}

// IDChunkName returns the artifact name of the identifier chunk starting at offset.
func IDChunkName(offset int) string {
	return path.Join(ChunkDir, IDChunkPrefix+strconv.Itoa(offset)+chunkExt)
}

// ParseChunkOffset extracts the integer start offset from a chunk name with the
// given prefix. Both "chunks/embeddings_chunk_1000.bin" and
// "embeddings_chunk_1000.bin" are accepted.
func ParseChunkOffset(name, prefix string) (int, error) {
	base := path.Base(name)
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, chunkExt) {
		return 0, fmt.Errorf("%q is not a %s* chunk", name, prefix)
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(base, prefix), chunkExt)
	offset, err := strconv.Atoi(digits)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("chunk %q has invalid offset %q", name, digits)
	}
	return offset, nil
}
