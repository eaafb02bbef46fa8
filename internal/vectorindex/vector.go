package vectorindex

import "math"

// Normalize returns a unit-length copy of v. The zero vector is returned
// as an unchanged copy rather than divided.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)

	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}

	mag := math.Sqrt(sum)
	for i := range out {
		out[i] = float32(float64(out[i]) / mag)
	}
	return out
}

// Cosine computes cosine similarity between two vectors. Mismatched
// dimensionality degrades to comparing the shared prefix rather than
// erroring; a zero-magnitude operand yields 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
