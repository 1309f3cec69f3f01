// Package embedding provides clients for the external embedding provider.
// The analysis core consumes fixed-dimension vectors; this package owns the
// HTTP plumbing that produces them, including circuit breaking, rate limited
// batch fan-out, and provider selection.
package embedding

import (
	"context"

	"github.com/tidescan/tidescan/pkg/types"
)

// Provider generates a vector embedding for a piece of text.
// Implementations must be safe for concurrent use; the batch embedder calls
// Embed from multiple goroutines.
type Provider interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) (types.Embedding, error)

	// GetModel returns the provider's embedding model name.
	GetModel() string
}
