package vector

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2, 3}, []float32{-1, -2, -3}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"45 degrees", []float32{1, 0}, []float32{1, 1}, 1 / math.Sqrt2},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"both empty", []float32{}, []float32{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_IsNormalizedInnerProduct(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, -5, 6}
	if got := InnerProduct(a, b); got != 12 {
		t.Fatalf("InnerProduct = %v, want 12", got)
	}
	got, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := 12 / (L2Norm(a) * L2Norm(b))
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("CosineSimilarity = %v, want %v", got, want)
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) || dm.Expected != 3 || dm.Actual != 2 {
		t.Errorf("unexpected error detail: %+v", dm)
	}
}

func TestNormalize(t *testing.T) {
	x := []float32{3, 4}
	Normalize(x)
	if math.Abs(L2Norm(x)-1) > 1e-6 {
		t.Errorf("norm after Normalize = %v", L2Norm(x))
	}
	z := []float32{0, 0}
	Normalize(z)
	if z[0] != 0 || z[1] != 0 {
		t.Errorf("zero vector changed: %v", z)
	}
}
