package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	d, err := MaxAbsDiff([]float64{1, 2, 3}, []float64{1, 2.1, 2.95})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(d-0.1) > 1e-12 {
		t.Fatalf("MaxAbsDiff = %v, want 0.1", d)
	}

	if _, err := MaxAbsDiff([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestRequireHelpersAcceptGoodData(t *testing.T) {
	x := DeterministicNoise(5, 0.9, 256)

	RequireFinite(t, x)
	RequireBounded(t, x, 1)
	RequireSliceNearlyEqual(t, x, x, 0)
	RequireComplexNearlyEqual(t, []complex128{1 + 1i, -2}, []complex128{1 + 1i, -2 + 1e-12i}, 1e-9)
}
