// Package metric provides pure similarity and distance functions over
// float32 vectors.
//
// CosineSimilarity and DotProduct are similarities (higher is closer);
// EuclideanDistance and ManhattanDistance are distances (lower is closer).
// Callers must not mix the two orderings.
package metric

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
)

// ErrDimensionMismatch is a named error type for dimension mismatch
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Magnitude calculates the L2 norm of a float32 slice.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(vek32.Dot(v, v))))
}

// CosineSimilarity calculates the cosine similarity between two float32 slices.
// If either vector has zero norm the result is 0 rather than an error: a zero
// vector is treated as maximally dissimilar to everything.
func CosineSimilarity(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, &ErrDimensionMismatch{Expected: len(v1), Actual: len(v2)}
	}

	magnitudeA := Magnitude(v1)
	magnitudeB := Magnitude(v2)

	// Avoid division by zero
	if magnitudeA == 0 || magnitudeB == 0 {
		return 0, nil
	}

	return vek32.Dot(v1, v2) / (magnitudeA * magnitudeB), nil
}

// EuclideanDistance calculates the L2 distance between two float32 slices.
func EuclideanDistance(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, &ErrDimensionMismatch{Expected: len(v1), Actual: len(v2)}
	}

	return vek32.Distance(v1, v2), nil
}

// DotProduct calculates the dot product of two float32 slices.
func DotProduct(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, &ErrDimensionMismatch{Expected: len(v1), Actual: len(v2)}
	}

	return vek32.Dot(v1, v2), nil
}

// ManhattanDistance calculates the L1 distance between two float32 slices.
func ManhattanDistance(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, &ErrDimensionMismatch{Expected: len(v1), Actual: len(v2)}
	}

	var sum float32
	for i := range v1 {
		d := v1[i] - v2[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}

	return sum, nil
}
