package types

import "time"

// EngagementMetrics holds platform-independent engagement counters for a
// content item. NormalizedScore is computed by the upstream platform
// normalizer on a 0-100 scale; the analysis engine treats it as given and
// never recomputes it from the raw counters.
type EngagementMetrics struct {
	Views           int64   `json:"views"`
	Likes           int64   `json:"likes"`
	Comments        int64   `json:"comments"`
	Shares          int64   `json:"shares"`
	NormalizedScore float64 `json:"normalized_score"` // Platform-independent score (0-100)
}

// ContentItem is a single piece of published content retrieved for an
// analysis. Items are owned by the pipeline for the duration of one request
// and are never mutated after creation.
type ContentItem struct {
	ID          string            `json:"id"`                 // Unique identifier (platform-scoped)
	Platform    string            `json:"platform"`           // Source platform tag (e.g., "youtube", "tiktok")
	PublishedAt time.Time         `json:"published_at"`       // Publication timestamp
	Title       string            `json:"title,omitempty"`    // Display title, used in top-similar listings
	Engagement  EngagementMetrics `json:"engagement"`         // Normalized engagement metrics
	Embedding   Embedding         `json:"embedding,omitempty"` // Semantic embedding of the content
}
