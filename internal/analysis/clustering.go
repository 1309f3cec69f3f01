package analysis

import (
	"fmt"
	"sort"

	"github.com/tidescan/tidescan/pkg/types"
)

// MatchThreshold is the minimum centroid similarity for an idea to be
// considered part of an existing cluster. Below this the idea is classified
// as novel and no cluster match is reported.
const MatchThreshold = 0.6

// DefaultMinNeighbors is the default density requirement: a point needs at
// least this many neighbors (excluding itself) inside the neighborhood
// radius to seed or extend a cluster.
const DefaultMinNeighbors = 3

// ClusterConfig holds the tunables for density-based clustering.
type ClusterConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for two items to
	// be neighbors. The neighborhood radius in distance terms is
	// 1 - SimilarityThreshold (default: RelatedThreshold, 0.7 => 0.3).
	SimilarityThreshold float64

	// MinNeighbors is the density requirement for core points (default: 3).
	MinNeighbors int
}

// DefaultClusterConfig returns a ClusterConfig with the system defaults.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		SimilarityThreshold: RelatedThreshold,
		MinNeighbors:        DefaultMinNeighbors,
	}
}

// Validate checks if the config is valid.
func (c *ClusterConfig) Validate() error {
	if c.SimilarityThreshold <= -1 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("SimilarityThreshold must be in (-1, 1), got %f", c.SimilarityThreshold)
	}
	if c.MinNeighbors < 1 {
		return fmt.Errorf("MinNeighbors must be >= 1, got %d", c.MinNeighbors)
	}
	return nil
}

// Point labels used during the density scan.
const (
	labelUnvisited = -2
	labelNoise     = -1
)

// Cluster groups content items into density-based clusters over the
// embedding space using cosine distance.
//
// The algorithm is DBSCAN: core points (those with at least MinNeighbors
// neighbors within the radius) recruit density-reachable neighbors into the
// same cluster; points reachable by no core point stay unclustered and
// appear in no cluster's member set. This yields the exclusivity invariant
// for free: an item is in exactly one cluster or in none.
//
// Determinism: items are visited in input order and seed queues are drained
// first-in first-out, so the same input set and config always produce the
// same partition. Cluster IDs follow discovery order.
//
// Fewer than 2 items is not an error: the function returns no clusters and
// downstream scoring degrades to similarity-only mode.
//
// Centroids are the mean of member embeddings, computed once after
// membership is final. A dimension mismatch between any two embeddings
// aborts the whole analysis.
func Cluster(items []*types.ContentItem, cfg ClusterConfig) ([]*types.ContentCluster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cluster config: %w", err)
	}
	if len(items) < 2 {
		return nil, nil
	}

	// Precompute neighbor lists in input order. Quadratic, which is
	// acceptable at the batch sizes one analysis handles; an ANN index can
	// replace this behind the same contract if batches grow.
	neighbors, err := buildNeighborLists(items, cfg.SimilarityThreshold)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(items))
	for i := range labels {
		labels[i] = labelUnvisited
	}

	clusterID := 0
	for i := range items {
		if labels[i] != labelUnvisited {
			continue
		}

		if len(neighbors[i]) < cfg.MinNeighbors {
			labels[i] = labelNoise
			continue
		}

		// i is a core point: start a new cluster and expand it through all
		// density-reachable points, FIFO for reproducible order.
		labels[i] = clusterID
		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == labelNoise {
				// Border point: reachable from a core point, joins the cluster
				// but does not recruit further members.
				labels[j] = clusterID
				continue
			}
			if labels[j] != labelUnvisited {
				continue
			}

			labels[j] = clusterID
			if len(neighbors[j]) >= cfg.MinNeighbors {
				queue = append(queue, neighbors[j]...)
			}
		}
		clusterID++
	}

	return buildClusters(items, labels, clusterID), nil
}

// buildNeighborLists returns, for each item, the indexes of all other items
// within the neighborhood radius, in input order.
func buildNeighborLists(items []*types.ContentItem, threshold float64) ([][]int, error) {
	maxDist := cosineDistance(threshold)
	neighbors := make([][]int, len(items))

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			sim, err := CosineSimilarity(items[i].Embedding, items[j].Embedding)
			if err != nil {
				return nil, fmt.Errorf("comparing items %q and %q: %w", items[i].ID, items[j].ID, err)
			}
			if cosineDistance(sim) <= maxDist {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}

	// The j<i half of each list was appended out of order; restore input order.
	for i := range neighbors {
		sort.Ints(neighbors[i])
	}
	return neighbors, nil
}

// buildClusters materializes ContentCluster values from the label array.
func buildClusters(items []*types.ContentItem, labels []int, clusterCount int) []*types.ContentCluster {
	if clusterCount == 0 {
		return nil
	}

	clusters := make([]*types.ContentCluster, clusterCount)
	for id := 0; id < clusterCount; id++ {
		clusters[id] = &types.ContentCluster{ID: id}
	}

	for i, label := range labels {
		if label < 0 {
			continue
		}
		clusters[label].Members = append(clusters[label].Members, items[i])
	}

	for _, c := range clusters {
		c.Size = len(c.Members)
		c.Centroid = centroid(c.Members)
		c.AvgEngagement = avgEngagement(c.Members)
	}
	return clusters
}

// centroid computes the mean of the member embeddings.
func centroid(members []*types.ContentItem) types.Embedding {
	if len(members) == 0 {
		return nil
	}

	dim := len(members[0].Embedding)
	sums := make([]float64, dim)
	for _, m := range members {
		for d := 0; d < dim; d++ {
			sums[d] += float64(m.Embedding[d])
		}
	}

	out := make(types.Embedding, dim)
	for d := 0; d < dim; d++ {
		out[d] = float32(sums[d] / float64(len(members)))
	}
	return out
}

// avgEngagement computes the mean normalized engagement score of members.
func avgEngagement(members []*types.ContentItem) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range members {
		sum += m.Engagement.NormalizedScore
	}
	return sum / float64(len(members))
}

// AssignToCluster finds the cluster whose centroid is most similar to the
// embedding, requiring at least RelatedThreshold similarity. Returns the
// cluster index and true, or 0 and false when no cluster qualifies.
func AssignToCluster(emb types.Embedding, clusters []*types.ContentCluster) (int, bool) {
	bestIdx := -1
	bestSim := -2.0

	for i, c := range clusters {
		sim, err := CosineSimilarity(emb, c.Centroid)
		if err != nil {
			continue
		}
		if sim > bestSim {
			bestSim = sim
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestSim < RelatedThreshold {
		return 0, false
	}
	return bestIdx, true
}

// FindMostSimilarCluster compares the idea embedding against every cluster
// centroid and returns the best match when its similarity exceeds
// MatchThreshold. Below the threshold the idea is classified as novel and
// false is returned.
//
// Tie-break on equal similarity: the larger cluster wins (the more
// conservative saturation estimate); if sizes are also equal, the cluster
// encountered first in discovery order wins.
func FindMostSimilarCluster(idea types.Embedding, clusters []*types.ContentCluster) (*types.ClusterMatch, error) {
	var best *types.ContentCluster
	bestSim := -2.0

	for _, c := range clusters {
		sim, err := CosineSimilarity(idea, c.Centroid)
		if err != nil {
			return nil, fmt.Errorf("comparing idea to cluster %d: %w", c.ID, err)
		}
		if sim > bestSim || (sim == bestSim && best != nil && c.Size > best.Size) {
			bestSim = sim
			best = c
		}
	}

	if best == nil || bestSim <= MatchThreshold {
		return nil, nil
	}
	return &types.ClusterMatch{Cluster: best, Similarity: bestSim}, nil
}
