package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/timmy/imagesim/internal/embedder"
	"github.com/timmy/imagesim/internal/logger"
)

// Embedder is the capability the comparison service needs from the vision
// toolkit. Tests substitute a fake producing deterministic vectors.
type Embedder interface {
	EmbedFile(ctx context.Context, path string) ([]float32, error)
	Dimensions() int
}

// CompareService computes similarity scores between image files.
type CompareService struct {
	embedder Embedder
	logger   *logger.Logger
}

// NewCompareService creates a new comparison service.
// Parameters:
//   - emb: embedder instance; must not be nil.
//   - log: logger instance.
// Returns:
//   - *CompareService: initialized service.
func NewCompareService(emb Embedder, log *logger.Logger) *CompareService {
	return &CompareService{
		embedder: emb,
		logger:   log,
	}
}

// log returns a logger from context if available, otherwise the service logger
func (s *CompareService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Dimensions returns the embedding dimensionality of the underlying model.
func (s *CompareService) Dimensions() int {
	return s.embedder.Dimensions()
}

// Embed returns the embedding vector for a single image file.
func (s *CompareService) Embed(ctx context.Context, path string) ([]float32, error) {
	vec, err := s.embedder.EmbedFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", path, err)
	}
	return vec, nil
}

// Similarity embeds both images independently and applies cosine similarity.
// There is no caching; repeated calls on the same paths recompute.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - pathA, pathB: image files to compare.
// Returns:
//   - float64: cosine similarity of the two embeddings.
//   - error: non-nil if either image cannot be embedded.
func (s *CompareService) Similarity(ctx context.Context, pathA, pathB string) (float64, error) {
	start := time.Now()

	vecA, err := s.Embed(ctx, pathA)
	if err != nil {
		return 0, err
	}
	vecB, err := s.Embed(ctx, pathB)
	if err != nil {
		return 0, err
	}

	sim := embedder.CosineSimilarity(vecA, vecB)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Infof("Similarity computed: score=%.4f", sim)

	return sim, nil
}

// Percentage converts a similarity score to a percentage rounded to two
// decimal places.
func Percentage(similarity float64) float64 {
	return math.Round(similarity*10000) / 100
}

// Interpret maps a similarity score to a human-readable label. The bucketing
// is total over [-1, 1]: every score maps to exactly one label.
func Interpret(similarity float64) string {
	switch {
	case similarity >= 0.9:
		return "Very similar images"
	case similarity >= 0.7:
		return "Similar images"
	case similarity >= 0.5:
		return "Somewhat similar images"
	case similarity >= 0.3:
		return "Slightly similar images"
	default:
		return "Very different images"
	}
}
