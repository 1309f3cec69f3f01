// Package types defines the shared data model for the Tidescan analysis
// pipeline: content items with engagement metrics, density-based content
// clusters, engagement trends, and the final analysis result.
//
// All types in this package are plain data carriers. They hold no behavior
// beyond small validity helpers, so they can cross package boundaries
// (storage, HTTP handlers, the analysis engine) without coupling.
package types

// Embedding is a fixed-length vector produced by the external embedding
// provider. Every embedding compared within one analysis must have the same
// dimensionality; the analysis engine rejects mismatched vectors.
type Embedding []float32

// Dimension returns the length of the embedding vector.
func (e Embedding) Dimension() int {
	return len(e)
}

// IsZero reports whether the embedding is empty or has zero magnitude.
// Zero-magnitude vectors compare as similarity 0 rather than erroring.
func (e Embedding) IsZero() bool {
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}
