package vecmath

import (
	"math"
	"testing"
)

func TestNormalizeIdempotent(t *testing.T) {
	testCases := []struct {
		name string
		in   []float32
	}{
		{name: "unit axis", in: []float32{1, 0, 0}},
		{name: "arbitrary", in: []float32{3, -4, 12}},
		{name: "tiny components", in: []float32{1e-5, 2e-5, -3e-5}},
		{name: "already normalized", in: []float32{0.6, 0.8, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			once := Normalize(tc.in)
			twice := Normalize(once)

			var norm float64
			for _, x := range once {
				norm += float64(x) * float64(x)
			}
			if math.Abs(norm-1) > 1e-6 {
				t.Errorf("Normalize produced norm %v, want 1", norm)
			}

			for i := range once {
				if math.Abs(float64(once[i]-twice[i])) > 1e-6 {
					t.Errorf("component %d changed on second pass: %v != %v", i, once[i], twice[i])
				}
			}
		})
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	out := Normalize([]float32{0, 0, 0})
	for i, x := range out {
		if x != 0 {
			t.Errorf("component %d = %v, want 0", i, x)
		}
	}
}

func TestCosine(t *testing.T) {
	testCases := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "dimension mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Cosine(tc.a, tc.b)
			if math.Abs(float64(got-tc.want)) > 1e-6 {
				t.Errorf("Cosine = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCosineScaleInvariant(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5}
	b := []float32{0.6, -2.4, 9.0} // a scaled by 2
	if got := Cosine(a, b); math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("Cosine of scaled vector = %v, want 1", got)
	}
}

func TestDotMatchesCosineForNormalized(t *testing.T) {
	a := Normalize([]float32{2, 5, -1})
	b := Normalize([]float32{-3, 1, 4})
	dot := Dot(a, b)
	cos := Cosine(a, b)
	if math.Abs(float64(dot-cos)) > 1e-5 {
		t.Errorf("Dot = %v, Cosine = %v, want equal for normalized inputs", dot, cos)
	}
}

func TestMean(t *testing.T) {
	vs := [][]float32{
		{1, 2, 3},
		{3, 4, 5},
		{5, 6, 10},
	}
	want := []float32{3, 4, 6}
	got := Mean(vs)
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("component %d = %v, want %v", i, got[i], want[i])
		}
	}

	if Mean(nil) != nil {
		t.Error("Mean of empty input should be nil")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(1.0000004) != 1 {
		t.Error("Clamp should cap positive drift at 1")
	}
	if Clamp(-1.0000004) != -1 {
		t.Error("Clamp should cap negative drift at -1")
	}
	if Clamp(0.5) != 0.5 {
		t.Error("Clamp should pass through in-range values")
	}
}
