package embedding

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tidescan/tidescan/pkg/types"
)

// BatchConfig holds configuration for batch embedding fan-out.
type BatchConfig struct {
	// Workers is the number of concurrent embedding requests (default: 4).
	Workers int

	// RequestsPerSecond caps the sustained request rate against the
	// provider (default: 10).
	RequestsPerSecond float64

	// Burst is the rate limiter burst size (default: Workers).
	Burst int
}

// DefaultBatchConfig returns a BatchConfig with sensible defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Workers:           4,
		RequestsPerSecond: 10,
	}
}

// BatchEmbedder fans out embedding requests for a content batch across a
// bounded worker pool, then joins before returning. Embedding generation is
// the only parallelizable stage of an analysis: each item is independent,
// but clustering cannot start until every vector is available.
//
// Results preserve input order. The first failure cancels the remaining
// work and is returned; a batch is all-or-nothing because a partial batch
// would skew clustering.
type BatchEmbedder struct {
	provider Provider
	workers  int
	limiter  *rate.Limiter
}

// NewBatchEmbedder creates a batch embedder over the given provider.
func NewBatchEmbedder(provider Provider, cfg BatchConfig) *BatchEmbedder {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst < 1 {
		cfg.Burst = cfg.Workers
	}
	return &BatchEmbedder{
		provider: provider,
		workers:  cfg.Workers,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// EmbedBatch embeds every text and returns the vectors in input order.
// All returned embeddings are verified to share one dimensionality, since a
// mixed batch indicates provider misconfiguration and would poison the
// analysis downstream.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]types.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make([]types.Embedding, len(texts))

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := b.workers
	if workers > len(texts) {
		workers = len(texts)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := b.limiter.Wait(ctx); err != nil {
					fail(err)
					return
				}
				emb, err := b.provider.Embed(ctx, texts[i])
				if err != nil {
					fail(fmt.Errorf("embedding text %d: %w", i, err))
					return
				}
				results[i] = emb
			}
		}()
	}

dispatch:
	for i := range texts {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	dim := results[0].Dimension()
	for i, emb := range results {
		if emb.Dimension() != dim {
			return nil, fmt.Errorf("provider returned mixed dimensions: text %d has %d, want %d",
				i, emb.Dimension(), dim)
		}
	}
	return results, nil
}

// Embed embeds a single text, applying the same rate limit as batch work.
func (b *BatchEmbedder) Embed(ctx context.Context, text string) (types.Embedding, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.provider.Embed(ctx, text)
}
