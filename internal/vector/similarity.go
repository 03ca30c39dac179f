// Package vector provides similarity helpers for embeddings.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is matched by every *DimensionMismatchError.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// DimensionMismatchError reports two vectors of different length.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrDimensionMismatch) hold.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// InnerProduct returns the inner product of two equal-length vectors.
func InnerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|), in [-1, 1].
// Vectors of different length return a *DimensionMismatchError; if either vector has
// zero norm (including two empty vectors) the similarity is 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	sim := InnerProduct(a, b) / (na * nb)
	// rounding can push parallel vectors a hair past 1
	return math.Max(-1, math.Min(1, sim)), nil
}

// Normalize scales x in place to unit L2 norm. A zero vector is left unchanged.
func Normalize(x []float32) {
	n := L2Norm(x)
	if n == 0 {
		return
	}
	inv := 1 / n
	for i := range x {
		x[i] = float32(float64(x[i]) * inv)
	}
}
