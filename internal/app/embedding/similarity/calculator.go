package similarity

import (
	"errors"
	"math"
)

var ErrDimensionMismatch = errors.New("vectors must have same dimension")

// SimilarityCalculator defines the interface for similarity calculations
type SimilarityCalculator interface {
	Calculate(a, b []float32) (float32, error)
}

// CosineSimilarityCalculator implements cosine similarity calculation
type CosineSimilarityCalculator struct{}

// NewCosineSimilarityCalculator creates a new cosine similarity calculator
func NewCosineSimilarityCalculator() *CosineSimilarityCalculator {
	return &CosineSimilarityCalculator{}
}

// Calculate computes cosine similarity between two vectors
func (c *CosineSimilarityCalculator) Calculate(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, nil
	}

	na, nb := Norm(a), Norm(b)
	// Handle zero vectors
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return clamp(Dot(a, b) / (na * nb)), nil
}

// InnerProductCalculator scores unit vectors; equal to cosine once both are normalized
type InnerProductCalculator struct{}

// NewInnerProductCalculator creates an inner product calculator
func NewInnerProductCalculator() *InnerProductCalculator {
	return &InnerProductCalculator{}
}

// Calculate computes the inner product of two vectors
func (c *InnerProductCalculator) Calculate(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	return Dot(a, b), nil
}

// Dot returns the inner product; callers guarantee equal length
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the L2 norm of v
func Norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// Normalize scales v to unit length in place. Zero vectors are left unchanged.
func Normalize(v []float32) []float32 {
	n := Norm(v)
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] /= n
	}
	return v
}

// Normalized returns a unit-length copy of v
func Normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return Normalize(out)
}

// NormalizeAll normalizes every vector of a batch in place
func NormalizeAll(vs [][]float32) {
	for _, v := range vs {
		Normalize(v)
	}
}

func clamp(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
