// Package analysis implements the algorithmic core of Tidescan: cosine
// similarity, density-based clustering of retrieved content, saturation and
// novelty scoring, trend lifecycle classification, and the Create/Modify/Avoid
// recommendation. Every function here is a pure transform over its inputs;
// persistence and I/O belong to the surrounding service layer.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidescan/tidescan/pkg/types"
)

// RelatedThreshold is the system-wide cosine similarity above which two
// pieces of content are considered related. Clustering derives its
// neighborhood radius from this constant; callers must not recompute it.
const RelatedThreshold = 0.7

// ErrDimensionMismatch is returned when two embeddings of different
// dimensionality are compared. This signals a provider misconfiguration
// upstream and is fatal for the analysis, never retried.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CosineSimilarity computes the cosine similarity between two embeddings:
// dot(a,b) / (|a|*|b|). The result is always in [-1, 1].
//
// If either vector has zero magnitude the function returns 0 (not an error)
// to avoid division by zero while preserving boundedness.
func CosineSimilarity(a, b types.Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Guard against floating point drift past the mathematical bounds.
	return clamp(sim, -1, 1), nil
}

// cosineDistance converts a similarity into a distance in [0, 2].
func cosineDistance(sim float64) float64 {
	return 1 - sim
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
