package service

import (
	"context"
	"errors"
	"math"
	"testing"
)

// fakeEmbedder returns canned vectors keyed by path, counting invocations.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
	err     error
}

func (f *fakeEmbedder) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vec, ok := f.vectors[path]
	if !ok {
		return nil, errors.New("no vector for " + path)
	}
	return vec, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return 4
}

func TestCompareServiceSimilarity(t *testing.T) {
	fake := &fakeEmbedder{
		vectors: map[string][]float32{
			"a.png": {1, 0, 0, 0},
			"b.png": {0, 1, 0, 0},
			"c.png": {1, 0, 0, 0},
		},
	}
	svc := NewCompareService(fake, nil)
	ctx := context.Background()

	t.Run("identical images score 1", func(t *testing.T) {
		sim, err := svc.Similarity(ctx, "a.png", "c.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(sim-1) > 1e-9 {
			t.Errorf("similarity = %v, want 1", sim)
		}
	})

	t.Run("orthogonal images score 0", func(t *testing.T) {
		sim, err := svc.Similarity(ctx, "a.png", "b.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(sim) > 1e-9 {
			t.Errorf("similarity = %v, want 0", sim)
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		ab, err := svc.Similarity(ctx, "a.png", "b.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := svc.Similarity(ctx, "b.png", "a.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ab != ba {
			t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
		}
	})

	t.Run("no caching between calls", func(t *testing.T) {
		before := fake.calls
		if _, err := svc.Similarity(ctx, "a.png", "a.png"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fake.calls != before+2 {
			t.Errorf("expected 2 embed calls, got %d", fake.calls-before)
		}
	})

	t.Run("embed failure surfaces", func(t *testing.T) {
		broken := &fakeEmbedder{err: errors.New("decode failed")}
		svc := NewCompareService(broken, nil)
		if _, err := svc.Similarity(ctx, "a.png", "b.png"); err == nil {
			t.Error("expected an error from a failing embedder")
		}
	})
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		similarity float64
		want       float64
	}{
		{1.0, 100},
		{0.0, 0},
		{0.87654, 87.65},
		{0.87655, 87.66},
		{0.5, 50},
		{-0.25, -25},
	}

	for _, tt := range tests {
		if got := Percentage(tt.similarity); got != tt.want {
			t.Errorf("Percentage(%v) = %v, want %v", tt.similarity, got, tt.want)
		}
	}

	// Percentage stays within [0, 100] for scores in [0, 1]
	for s := 0.0; s <= 1.0; s += 0.01 {
		p := Percentage(s)
		if p < 0 || p > 100 {
			t.Fatalf("Percentage(%v) = %v out of range", s, p)
		}
	}
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		want       string
	}{
		{"top of range", 1.0, "Very similar images"},
		{"very similar boundary", 0.9, "Very similar images"},
		{"just below very similar", 0.8999, "Similar images"},
		{"similar boundary", 0.7, "Similar images"},
		{"somewhat similar", 0.6, "Somewhat similar images"},
		{"somewhat boundary", 0.5, "Somewhat similar images"},
		{"slightly similar", 0.35, "Slightly similar images"},
		{"slightly boundary", 0.3, "Slightly similar images"},
		{"very different", 0.1, "Very different images"},
		{"zero", 0.0, "Very different images"},
		{"negative", -1.0, "Very different images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Interpret(tt.similarity); got != tt.want {
				t.Errorf("Interpret(%v) = %q, want %q", tt.similarity, got, tt.want)
			}
		})
	}

	// Bucketing must be total over [-1, 1]: every score maps to a label
	for s := -1.0; s <= 1.0; s += 0.001 {
		if Interpret(s) == "" {
			t.Fatalf("Interpret(%v) returned no label", s)
		}
	}
}
