package gbm

import (
	"math"
	"testing"
)

func TestRandDeterminism(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 10000; i++ {
		va, vb := a.Float64(), b.Float64()
		if va != vb {
			t.Fatalf("draw %d diverged: %v vs %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("draw %d out of [0,1): %v", i, va)
		}
	}
}

func TestRandSeedsDiffer(t *testing.T) {
	a := New(1)
	b := New(2)

	same := 0
	for i := 0; i < 1000; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same > 5 {
		t.Errorf("seeds 1 and 2 produced %d identical draws out of 1000", same)
	}
}

func TestRandUniformMoments(t *testing.T) {
	rng := New(7)
	n := 50000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += rng.Float64()
	}
	mean := sum / float64(n)
	if math.Abs(mean-0.5) > 0.01 {
		t.Errorf("uniform mean = %v, want ~0.5", mean)
	}
}

func TestNormFloat64Moments(t *testing.T) {
	rng := New(11)
	n := 50000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		z := rng.NormFloat64()
		if math.IsNaN(z) || math.IsInf(z, 0) {
			t.Fatalf("draw %d is not finite: %v", i, z)
		}
		sum += z
		sumSq += z * z
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if math.Abs(mean) > 0.05 {
		t.Errorf("normal mean = %v, want ~0", mean)
	}
	if math.Abs(variance-1) > 0.05 {
		t.Errorf("normal variance = %v, want ~1", variance)
	}
}

func TestGeneratePathFlat(t *testing.T) {
	seed := int64(1)
	path, err := GeneratePath(100, 0, 0, 10, &seed)
	if err != nil {
		t.Fatalf("GeneratePath failed: %v", err)
	}

	if len(path) != 11 {
		t.Fatalf("expected 11 points, got %d", len(path))
	}
	for i, p := range path {
		if p.Day != i {
			t.Errorf("point %d has day %d", i, p.Day)
		}
		if math.Abs(p.Price-100) > 1e-9 {
			t.Errorf("day %d price = %v, want 100 (zero drift, zero vol)", i, p.Price)
		}
	}
}

func TestGeneratePathDeterminism(t *testing.T) {
	seed := int64(99)
	a, err := GeneratePath(50, 0.05, 0.3, 252, &seed)
	if err != nil {
		t.Fatalf("GeneratePath failed: %v", err)
	}
	b, err := GeneratePath(50, 0.05, 0.3, 252, &seed)
	if err != nil {
		t.Fatalf("GeneratePath failed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGeneratePathFloor(t *testing.T) {
	seed := int64(3)
	// Extreme negative drift forces the floor within a long horizon.
	path, err := GeneratePath(0.02, -50, 0.01, 500, &seed)
	if err != nil {
		t.Fatalf("GeneratePath failed: %v", err)
	}
	for _, p := range path {
		if p.Price < MinPrice {
			t.Fatalf("day %d price %v below floor", p.Day, p.Price)
		}
	}
	if last := path[len(path)-1].Price; last != MinPrice {
		t.Errorf("expected floored terminal price, got %v", last)
	}
}

func TestGeneratePathInvalidInputs(t *testing.T) {
	cases := []struct {
		name    string
		initial float64
		vol     float64
		days    int
	}{
		{"zero initial", 0, 0.2, 10},
		{"negative initial", -5, 0.2, 10},
		{"zero days", 100, 0.2, 0},
		{"negative vol", 100, -0.1, 10},
	}
	for _, tc := range cases {
		if _, err := GeneratePath(tc.initial, 0, tc.vol, tc.days, nil); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
