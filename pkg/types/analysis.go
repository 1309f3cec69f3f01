package types

import "time"

// AnalysisResult aggregates everything one analysis request produced.
// It is created once per request by the pipeline coordinator and is
// immutable after being returned; persistence is the caller's concern.
type AnalysisResult struct {
	ID              string           `json:"id"`               // Request-scoped identifier, minted by the caller
	Idea            string           `json:"idea"`             // The idea text that was analyzed
	SaturationScore float64          `json:"saturation_score"` // 0-100, how crowded the matched cluster is
	NoveltyScore    float64          `json:"novelty_score"`    // 0-100, semantic originality of the idea
	Stage           LifecycleStage   `json:"stage"`            // Lifecycle stage of the matched cluster
	Recommendation  Recommendation   `json:"recommendation"`
	TopSimilar      []SimilarContent `json:"top_similar"`   // At most 5, sorted by similarity descending
	Trend           EngagementTrend  `json:"trend"`         // Engagement trajectory of the matched cluster
	ContentCount    int              `json:"content_count"` // Total items considered in this analysis
	ClusterCount    int              `json:"cluster_count"` // Clusters formed from the content set
	CreatedAt       time.Time        `json:"created_at"`
}
