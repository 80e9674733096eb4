// Package vecmath provides the vector primitives shared by every other
// component: L2 normalization, cosine similarity via dot product, and
// componentwise mean. Accumulation happens in float64 to keep 192-dim
// sums stable, results are float32 like the embeddings themselves.
package vecmath

import "math"

// Normalize returns a copy of v scaled to unit L2 norm.
// A zero vector is returned unchanged (no division by zero), which makes
// Normalize idempotent for every input.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Dot returns the dot product of a and b. For vectors already normalized
// with Normalize this is the cosine similarity.
func Dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// Cosine returns the cosine similarity of a and b, clamped to [-1, 1].
// Mismatched dimensions or a zero vector yield 0.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return Clamp(float32(sim))
}

// Clamp bounds a similarity to [-1, 1], absorbing floating point drift.
func Clamp(sim float32) float32 {
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// Mean returns the componentwise arithmetic mean of vs.
// All vectors must share the same dimension. Returns nil for empty input.
func Mean(vs [][]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float32, len(vs[0]))
	acc := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i := range acc {
			if i < len(v) {
				acc[i] += float64(v[i])
			}
		}
	}
	n := float64(len(vs))
	for i := range out {
		out[i] = float32(acc[i] / n)
	}
	return out
}
