// Package storage provides the persistence interfaces for Tidescan.
//
// Two concerns are kept separate: the analysis history (results the pipeline
// produced, owned by the caller once returned) and the content corpus
// (normalized items with embeddings that analyses draw candidates from).
// Interfaces are small so backends can implement them independently.
package storage

import (
	"context"
	"errors"

	"github.com/tidescan/tidescan/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ResultStore persists analysis results for history and retrieval.
type ResultStore interface {
	// Save stores a completed analysis result. Results are immutable, so
	// saving an existing ID is an error.
	Save(ctx context.Context, result *types.AnalysisResult) error

	// Get retrieves a result by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*types.AnalysisResult, error)

	// List retrieves results with pagination, newest first.
	List(ctx context.Context, opts ListOptions) (*PaginatedResult[types.AnalysisResult], error)

	// Delete removes a result by ID. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// ContentStore persists normalized content items with their embeddings and
// serves nearest-neighbor candidate retrieval for analyses.
type ContentStore interface {
	// Upsert creates or updates a content item. The embedding, when present,
	// is stored alongside the item.
	Upsert(ctx context.Context, item *types.ContentItem) error

	// Get retrieves a content item by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*types.ContentItem, error)

	// SimilarContent returns up to limit items nearest to the embedding by
	// cosine distance, most similar first.
	SimilarContent(ctx context.Context, emb types.Embedding, limit int) ([]types.ContentItem, error)

	// Close releases any resources held by the store.
	Close() error
}

// PaginatedResult represents a paginated result set.
type PaginatedResult[T any] struct {
	// Items is the slice of results for the current page.
	Items []T

	// Total is the total number of items across all pages.
	Total int

	// Page is the current page number (1-indexed).
	Page int

	// PageSize is the number of items per page.
	PageSize int

	// HasMore indicates whether there are more pages available.
	HasMore bool
}

// ListOptions provides pagination options for list operations.
type ListOptions struct {
	// Page is the page number to retrieve (1-indexed, default: 1).
	Page int

	// Limit is the number of items per page (default: 10, max: 100).
	Limit int
}

// Normalize applies defaults and bounds to the ListOptions.
func (o *ListOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 10
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
}

// Offset calculates the offset for SQL queries based on page and limit.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}
