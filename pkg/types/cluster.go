package types

// ContentCluster is a density-based group of semantically similar content
// items. Members reference the items handed to the clustering engine, they
// are not copies. A content item belongs to at most one cluster per analysis;
// items not density-reachable from any core point remain unclustered and
// appear in no cluster's member set.
type ContentCluster struct {
	ID            int            `json:"id"`             // Cluster index in discovery order (0-based)
	Centroid      Embedding      `json:"-"`              // Mean of member embeddings, computed once after membership is final
	Members       []*ContentItem `json:"-"`              // Member items in input order
	Size          int            `json:"size"`           // len(Members), denormalized for serialization
	AvgEngagement float64        `json:"avg_engagement"` // Mean normalized engagement score of members
}

// ClusterMatch is the result of comparing an idea embedding against cluster
// centroids. At most one match is "the" best match per analysis.
type ClusterMatch struct {
	Cluster    *ContentCluster `json:"cluster"`
	Similarity float64         `json:"similarity"` // Cosine similarity to the centroid, in [-1,1]
}

// SimilarContent is one entry of the top-similar listing in an analysis
// result: a content item paired with its similarity to the idea.
type SimilarContent struct {
	ID         string  `json:"id"`
	Platform   string  `json:"platform"`
	Title      string  `json:"title,omitempty"`
	Similarity float64 `json:"similarity"`
}
