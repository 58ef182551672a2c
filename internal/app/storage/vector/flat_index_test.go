package vector

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "video-qa/internal/app/errors"
)

func TestFlatIndexSearch(t *testing.T) {
	ix := NewFlatIndex(3)
	require.NoError(t, ix.Add(
		[]float32{1, 0, 0},
		[]float32{0, 5, 0},
		[]float32{1, 1, 0},
	))

	hits, err := ix.Search([]float32{0, 2, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Position)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6, "identical direction scores 1")
	assert.Equal(t, 2, hits[1].Position)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-3)

	all, err := ix.Search([]float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3, "k is capped at index size")
	for _, h := range all {
		assert.GreaterOrEqual(t, h.Score, float32(-1))
		assert.LessOrEqual(t, h.Score, float32(1.0001))
	}
}

func TestFlatIndexTiesBreakByPosition(t *testing.T) {
	ix := NewFlatIndex(2)
	require.NoError(t, ix.Add([]float32{1, 0}, []float32{1, 0}, []float32{1, 0}))

	hits, err := ix.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, []int{hits[0].Position, hits[1].Position, hits[2].Position})
}

func TestFlatIndexRejectsWrongDimension(t *testing.T) {
	ix := NewFlatIndex(3)
	assert.ErrorIs(t, ix.Add([]float32{1, 2}), apperrors.ErrDimensionMismatch)
	assert.Equal(t, 0, ix.Len(), "a rejected batch adds nothing")

	_, err := ix.Search([]float32{1}, 1)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
}

func TestFlatIndexCodec(t *testing.T) {
	ix := NewFlatIndex(2)
	require.NoError(t, ix.Add([]float32{3, 4}, []float32{0, 1}))

	var buf bytes.Buffer
	_, err := ix.WriteTo(&buf)
	require.NoError(t, err)

	decoded, err := DecodeFlatIndex(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Dim())
	assert.Equal(t, 2, decoded.Len())
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, decoded.Vector(0), 1e-6)

	data, err := ix.MarshalBinary()
	require.NoError(t, err)
	assert.ErrorIs(t, (&FlatIndex{}).UnmarshalBinary(data[:len(data)-1]), apperrors.ErrCorruptArtifact)
	assert.ErrorIs(t, (&FlatIndex{}).UnmarshalBinary([]byte("garbage")), apperrors.ErrCorruptArtifact)
}
