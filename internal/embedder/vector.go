package embedder

import "math"

// CosineSimilarity computes the cosine similarity between two vectors using
// the general formula dot(a,b)/(|a|*|b|). The embedder normally emits
// L2-normalized vectors, but the full formula is kept so the result stays
// correct for un-normalized configurations.
// Parameters:
//   - a, b: vectors of equal dimensionality.
// Returns:
//   - float64: similarity in [-1, 1]; 0 when either vector has zero norm or
//     the dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// L2Normalize scales v in place to unit length. A zero vector is left unchanged.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// Quantize snaps each component of v to a signed 8-bit grid (steps of 1/127),
// matching the scalar quantization the original toolkit applies when the
// embedder is configured with quantize: true.
func Quantize(v []float32) {
	for i, x := range v {
		q := math.Round(float64(x) * 127)
		if q > 127 {
			q = 127
		} else if q < -128 {
			q = -128
		}
		v[i] = float32(q / 127)
	}
}
