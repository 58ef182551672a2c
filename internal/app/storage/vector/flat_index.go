package vector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/embedding/similarity"
)

const indexMagic = "VQAIDX01"

// Hit is one nearest-neighbour result
type Hit struct {
	Position int
	Score    float32
}

// FlatIndex is an exact inner-product index over unit vectors.
// Position i is the i-th vector added.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty index of fixed dimension
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Dim returns the vector dimension
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of indexed vectors
func (ix *FlatIndex) Len() int { return len(ix.vectors) }

// Add appends normalized copies of vecs
func (ix *FlatIndex) Add(vecs ...[]float32) error {
	for _, v := range vecs {
		if len(v) != ix.dim {
			return apperrors.Wrapf(apperrors.ErrDimensionMismatch, "expected %d, got %d", ix.dim, len(v))
		}
	}
	for _, v := range vecs {
		ix.vectors = append(ix.vectors, similarity.Normalized(v))
	}
	return nil
}

// Vector returns the stored vector at pos
func (ix *FlatIndex) Vector(pos int) []float32 {
	return ix.vectors[pos]
}

// Search returns the k highest-scoring positions for query, best first.
// Ties are broken by position so results are stable across rebuilds.
func (ix *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dim {
		return nil, apperrors.Wrapf(apperrors.ErrDimensionMismatch, "query has %d dims, index has %d", len(query), ix.dim)
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}
	if k <= 0 {
		return nil, nil
	}

	q := similarity.Normalized(query)
	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Position: i, Score: similarity.Dot(q, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Position < hits[b].Position
	})
	return hits[:k], nil
}

// WriteTo encodes the index as magic, dim, count and little-endian float32 rows
func (ix *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, len(indexMagic)+8+4*ix.dim*len(ix.vectors))
	buf = append(buf, indexMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ix.dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.vectors)))
	for _, v := range ix.vectors {
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// MarshalBinary encodes the index
func (ix *FlatIndex) MarshalBinary() ([]byte, error) {
	var b bytes.Buffer
	if _, err := ix.WriteTo(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalBinary decodes an index produced by MarshalBinary
func (ix *FlatIndex) UnmarshalBinary(data []byte) error {
	header := len(indexMagic) + 8
	if len(data) < header || string(data[:len(indexMagic)]) != indexMagic {
		return apperrors.Wrap(apperrors.ErrCorruptArtifact, "bad index header")
	}
	dim := int(binary.LittleEndian.Uint32(data[len(indexMagic):]))
	count := int(binary.LittleEndian.Uint32(data[len(indexMagic)+4:]))
	if want := header + 4*dim*count; len(data) != want {
		return apperrors.Wrap(apperrors.ErrCorruptArtifact, fmt.Sprintf("index body is %d bytes, want %d", len(data), want))
	}

	vectors := make([][]float32, count)
	off := header
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = v
	}
	ix.dim = dim
	ix.vectors = vectors
	return nil
}

// DecodeFlatIndex reads an encoded index
func DecodeFlatIndex(r io.Reader) (*FlatIndex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	ix := &FlatIndex{}
	if err := ix.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return ix, nil
}
