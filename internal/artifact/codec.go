// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// FormatVersion is the on-disk format version written into every header.
const FormatVersion uint16 = 1

var (
	magicMatrix = [4]byte{'F', 'L', 'M', 'X'}
	magicIDs    = [4]byte{'F', 'L', 'I', 'D'}
	magicIndex  = [4]byte{'F', 'L', 'I', 'X'}
)

// Errors returned by the codecs.
var (
	// ErrCorrupt indicates a truncated artifact, a wrong magic number or an
	// unsupported format version.
	ErrCorrupt = errors.New("artifact corrupt")

	// ErrRagged indicates a matrix whose rows do not share one dimension.
	ErrRagged = errors.New("matrix rows have differing dimensions")
)

// Matrix is a decoded vector block.
type Matrix struct {
	Model       string
	Fingerprint uint64
	Dimension   int
	Rows        [][]float32
}

// IDList is a decoded identifier sequence.
type IDList struct {
	Fingerprint uint64
	IDs         []string
}

// IndexBlob is a framed, otherwise opaque, serialized vector index.
type IndexBlob struct {
	Kind        string
	Fingerprint uint64
	Payload     []byte
}

// EncodeMatrix serializes rows. All rows must have the same length.
func EncodeMatrix(m *Matrix) ([]byte, error) {
	dim := m.Dimension
	if len(m.Rows) > 0 && dim == 0 {
		dim = len(m.Rows[0])
	}
	for i, row := range m.Rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRagged, i, len(row), dim)
		}
	}
	if len(m.Model) > math.MaxUint16 {
		return nil, fmt.Errorf("model name too long (%d bytes)", len(m.Model))
	}

	var buf bytes.Buffer
	buf.Grow(32 + len(m.Model) + 4*len(m.Rows)*dim)
	writeHeader(&buf, magicMatrix, m.Fingerprint)
	writeU32(&buf, uint32(len(m.Rows)))
	writeU32(&buf, uint32(dim))
	writeU16(&buf, uint16(len(m.Model)))
	buf.WriteString(m.Model)

	var b [4]byte
	for _, row := range m.Rows {
		for _, f := range row {
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
			buf.Write(b[:])
		}
	}
	return buf.Bytes(), nil
}

// DecodeMatrix parses a matrix artifact. Rows share one backing array.
func DecodeMatrix(data []byte) (*Matrix, error) {
	r := reader{data: data}
	fp, err := r.header(magicMatrix)
	if err != nil {
		return nil, err
	}
	rows := int(r.u32())
	dim := int(r.u32())
	model := string(r.bytes(int(r.u16())))
	if r.err != nil {
		return nil, r.err
	}
	if rows > 0 && dim == 0 {
		return nil, fmt.Errorf("%w: %d rows with zero dimension", ErrCorrupt, rows)
	}

	if dim > 0 && rows > r.remaining()/4/dim {
		return nil, fmt.Errorf("%w: %dx%d matrix cannot fit in %d bytes", ErrCorrupt, rows, dim, r.remaining())
	}
	want := rows * dim * 4
	if r.remaining() != want {
		return nil, fmt.Errorf("%w: matrix payload is %d bytes, want %d", ErrCorrupt, r.remaining(), want)
	}

	flat := make([]float32, rows*dim)
	payload := r.bytes(want)
	for i := range flat {
		flat[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	out := make([][]float32, rows)
	for i := range out {
		out[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}

	return &Matrix{Model: model, Fingerprint: fp, Dimension: dim, Rows: out}, nil
}

// EncodeIDs serializes an identifier sequence.
func EncodeIDs(l *IDList) []byte {
	size := 22
	for _, id := range l.IDs {
		size += 4 + len(id)
	}

	var buf bytes.Buffer
	buf.Grow(size)
	writeHeader(&buf, magicIDs, l.Fingerprint)
	writeU32(&buf, uint32(len(l.IDs)))
	for _, id := range l.IDs {
		writeU32(&buf, uint32(len(id)))
		buf.WriteString(id)
	}
	return buf.Bytes()
}

// DecodeIDs parses an identifier artifact.
func DecodeIDs(data []byte) (*IDList, error) {
	r := reader{data: data}
	fp, err := r.header(magicIDs)
	if err != nil {
		return nil, err
	}
	n := int(r.u32())
	if r.err != nil {
		return nil, r.err
	}
	// Each entry needs at least its 4-byte length prefix.
	if n > r.remaining()/4 {
		return nil, fmt.Errorf("%w: %d identifiers cannot fit in %d bytes", ErrCorrupt, n, r.remaining())
	}

	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(r.bytes(int(r.u32())))
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after identifiers", ErrCorrupt, r.remaining())
	}
	return &IDList{Fingerprint: fp, IDs: ids}, nil
}

// EncodeIndex frames a serialized index.
func EncodeIndex(b *IndexBlob) []byte {
	var buf bytes.Buffer
	buf.Grow(32 + len(b.Kind) + len(b.Payload))
	writeHeader(&buf, magicIndex, b.Fingerprint)
	writeU16(&buf, uint16(len(b.Kind)))
	buf.WriteString(b.Kind)
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b.Payload)))
	buf.Write(n[:])
	buf.Write(b.Payload)
	return buf.Bytes()
}

// DecodeIndex parses a framed index. The payload aliases data.
func DecodeIndex(data []byte) (*IndexBlob, error) {
	r := reader{data: data}
	fp, err := r.header(magicIndex)
	if err != nil {
		return nil, err
	}
	kind := string(r.bytes(int(r.u16())))
	size := r.u64()
	if r.err != nil {
		return nil, r.err
	}
	if size != uint64(r.remaining()) {
		return nil, fmt.Errorf("%w: index payload is %d bytes, header says %d", ErrCorrupt, r.remaining(), size)
	}
	return &IndexBlob{Kind: kind, Fingerprint: fp, Payload: r.bytes(int(size))}, nil
}

func writeHeader(buf *bytes.Buffer, magic [4]byte, fingerprint uint64) {
	buf.Write(magic[:])
	writeU16(buf, FormatVersion)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], fingerprint)
	buf.Write(b[:])
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// reader is a bounds-checked little-endian cursor. The first short read sets
// err; later reads return zero values.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) header(magic [4]byte) (uint64, error) {
	got := r.bytes(4)
	if r.err != nil {
		return 0, r.err
	}
	if !bytes.Equal(got, magic[:]) {
		return 0, fmt.Errorf("%w: bad magic %q, want %q", ErrCorrupt, got, magic[:])
	}
	if v := r.u16(); v != FormatVersion {
		return 0, fmt.Errorf("%w: unsupported format version %d", ErrCorrupt, v)
	}
	fp := r.u64()
	return fp, r.err
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = fmt.Errorf("%w: truncated at byte %d", ErrCorrupt, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u16() uint16 {
	if b := r.bytes(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.bytes(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if b := r.bytes(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}
