// Package ratelimit wraps an embedding service with proactive throttling.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*Service)(nil)

// Service throttles calls to an underlying embedding service. Hosted
// embedding APIs enforce per-second quotas; a full re-sync can otherwise
// burst hundreds of requests and trip them.
type Service struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap decorates inner with a token-bucket limiter at requestsPerSecond.
// A zero or negative rate returns inner unchanged.
func Wrap(inner driven.EmbeddingService, requestsPerSecond float64, burst int) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &Service{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed waits for a token, then delegates.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch waits for a single token per batch. The batch already
// amortises request overhead; charging one token per text would make
// large documents wait out the whole bucket.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions delegates to the wrapped service.
func (s *Service) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName delegates to the wrapped service.
func (s *Service) ModelName() string {
	return s.inner.ModelName()
}

// Ping delegates without consuming a token.
func (s *Service) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close delegates to the wrapped service.
func (s *Service) Close() error {
	return s.inner.Close()
}
