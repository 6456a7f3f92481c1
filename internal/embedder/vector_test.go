package embedder

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{
			name: "identical normalized vectors",
			a:    []float32{0.6, 0.8},
			b:    []float32{0.6, 0.8},
			want: 1.0,
		},
		{
			name: "identical un-normalized vectors",
			a:    []float32{3, 4, 5},
			b:    []float32{3, 4, 5},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			a:    []float32{1, 0},
			b:    []float32{-1, 0},
			want: -1.0,
		},
		{
			name: "scaling does not change similarity",
			a:    []float32{1, 2, 3},
			b:    []float32{10, 20, 30},
			want: 1.0,
		},
		{
			name: "zero vector",
			a:    []float32{0, 0, 0},
			b:    []float32{1, 2, 3},
			want: 0.0,
		},
		{
			name: "dimension mismatch",
			a:    []float32{1, 2},
			b:    []float32{1, 2, 3},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float32{0.1, -0.4, 2.5, 0.7}
	b := []float32{1.9, 0.3, -0.2, 0.8}

	ab := CosineSimilarity(a, b)
	ba := CosineSimilarity(b, a)

	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("similarity not symmetric: sim(a,b)=%v, sim(b,a)=%v", ab, ba)
	}
}

func TestL2Normalize(t *testing.T) {
	v := []float32{3, 4}
	L2Normalize(v)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-6 {
		t.Errorf("normalized vector has norm %v, want 1", math.Sqrt(norm))
	}

	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalized components: %v", v)
	}

	// Zero vector stays untouched
	zero := []float32{0, 0, 0}
	L2Normalize(zero)
	for i, x := range zero {
		if x != 0 {
			t.Errorf("zero vector changed at index %d: %v", i, x)
		}
	}
}

func TestQuantize(t *testing.T) {
	v := []float32{1, -1, 0, 0.5, 0.004, 2}
	Quantize(v)

	// Every component must sit exactly on the 1/127 grid within [-128/127, 1]
	for i, x := range v {
		steps := float64(x) * 127
		if math.Abs(steps-math.Round(steps)) > 1e-5 {
			t.Errorf("component %d not on quantization grid: %v", i, x)
		}
		if x > 1 || x < -128.0/127 {
			t.Errorf("component %d out of quantized range: %v", i, x)
		}
	}

	if v[0] != 1 {
		t.Errorf("Quantize(1) = %v, want 1", v[0])
	}
	if v[2] != 0 {
		t.Errorf("Quantize(0) = %v, want 0", v[2])
	}
	// 2 clamps to the top of the grid
	if v[5] != 1 {
		t.Errorf("Quantize(2) = %v, want clamped 1", v[5])
	}
}
