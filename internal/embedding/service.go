package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/DreamCats/codepilot/internal/config"
)

// Client is the interface for embedding API clients
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Service provides embedding generation on top of a Client. Vectors
// returned by the service are always L2-normalized so that inner
// product equals cosine similarity. Provider failures are propagated
// unchanged; the service never retries.
type Service struct {
	cfg    *config.EmbeddingConfig
	client Client
}

// NewService creates a new embedding service for the configured provider
func NewService(cfg *config.EmbeddingConfig) (*Service, error) {
	var client Client
	var err error

	switch cfg.Provider {
	case "openai":
		client, err = NewOpenAIClient(cfg)
	case "volcengine":
		client, err = NewVolcEngineClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	return &Service{cfg: cfg, client: client}, nil
}

// NewServiceWithClient wraps an existing client, used by tests to
// inject a deterministic fake provider.
func NewServiceWithClient(cfg *config.EmbeddingConfig, client Client) *Service {
	return &Service{cfg: cfg, client: client}
}

// Embed generates a normalized embedding for a single text. Single
// calls are the query path and avoid batch overhead.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	vector, err := s.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	Normalize(vector)
	return vector, nil
}

// EmbedBatch generates normalized embeddings for multiple texts,
// splitting them into provider-sized batches. The output order matches
// the input order. Any batch failure aborts the whole call.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := s.client.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-i, len(vectors))
		}

		for _, vector := range vectors {
			Normalize(vector)
			results = append(results, vector)
		}
	}

	return results, nil
}

// EmbedBatchWithProgress behaves like EmbedBatch but calls report
// after each provider batch completes, with the total number of texts
// embedded so far.
func (s *Service) EmbedBatchWithProgress(ctx context.Context, texts []string, report func(done int)) ([][]float32, error) {
	if report == nil {
		return s.EmbedBatch(ctx, texts)
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := s.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
		report(end)
	}
	return results, nil
}

// Dimensions returns the dimension of the embeddings
func (s *Service) Dimensions() int {
	return s.client.Dimensions()
}

// Normalize scales the vector in place to unit L2 norm. Zero vectors
// are left unchanged.
func Normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vector {
		vector[i] /= norm
	}
}
