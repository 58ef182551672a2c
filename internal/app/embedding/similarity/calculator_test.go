package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarityCalculatorInterface(t *testing.T) {
	// Arrange
	var calculator SimilarityCalculator = NewCosineSimilarityCalculator()

	// Act
	similarity, err := calculator.Calculate([]float32{1, 0, 0}, []float32{1, 0, 0})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, float32(1.0), similarity)
}

func TestCosineSimilarityCalculation(t *testing.T) {
	calculator := NewCosineSimilarityCalculator()

	testCases := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite vectors", []float32{1, 1}, []float32{-1, -1}, -1},
		{"scaled vectors", []float32{1, 2}, []float32{2, 4}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty vectors", []float32{}, []float32{}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := calculator.Calculate(tc.a, tc.b)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, got, 1e-6)
			assert.GreaterOrEqual(t, got, float32(-1))
			assert.LessOrEqual(t, got, float32(1))
		})
	}

	_, err := calculator.Calculate([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestInnerProductMatchesCosineOnUnitVectors(t *testing.T) {
	a := Normalized([]float32{3, 4, 0})
	b := Normalized([]float32{1, 2, 2})

	cos, err := NewCosineSimilarityCalculator().Calculate(a, b)
	require.NoError(t, err)
	ip, err := NewInnerProductCalculator().Calculate(a, b)
	require.NoError(t, err)

	assert.InDelta(t, cos, ip, 1e-6)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, []float32{0, 0}, Normalize(zero))

	orig := []float32{0, 2}
	copyV := Normalized(orig)
	assert.Equal(t, []float32{0, 2}, orig, "Normalized must not mutate its input")
	assert.Equal(t, []float32{0, 1}, copyV)

	batch := [][]float32{{2, 0}, {0, 5}}
	NormalizeAll(batch)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, batch)
}
