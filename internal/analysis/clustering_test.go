package analysis

import (
	"reflect"
	"testing"

	"github.com/tidescan/tidescan/pkg/types"
)

var (
	dirA = types.Embedding{1, 0, 0, 0}
	dirB = types.Embedding{0, 1, 0, 0}
	dirC = types.Embedding{0, 0, 1, 0}
)

func TestCluster_TwoGroupsAndNoise(t *testing.T) {
	items := itemGroup("a", dirA, 5, 10, 50)
	items = append(items, itemGroup("b", dirB, 4, 10, 50)...)
	items = append(items, makeItem("lone", dirC, 10, 50))

	clusters, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].Size != 5 || clusters[1].Size != 4 {
		t.Errorf("expected sizes 5 and 4 in discovery order, got %d and %d",
			clusters[0].Size, clusters[1].Size)
	}

	// The lone item is noise and must appear in no member set.
	for _, c := range clusters {
		for _, m := range c.Members {
			if m.ID == "lone" {
				t.Error("noise item should not be a member of any cluster")
			}
		}
	}
}

func TestCluster_Exclusivity(t *testing.T) {
	items := itemGroup("a", dirA, 6, 10, 50)
	items = append(items, itemGroup("b", dirB, 6, 10, 50)...)

	clusters, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]int)
	for _, c := range clusters {
		for _, m := range c.Members {
			seen[m.ID]++
		}
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("item %s appears in %d clusters, exclusivity violated", id, n)
		}
	}
}

func TestCluster_Deterministic(t *testing.T) {
	items := itemGroup("a", dirA, 5, 10, 40)
	items = append(items, itemGroup("b", dirB, 5, 10, 60)...)

	first, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("clustering the same input twice produced different partitions")
	}
}

func TestCluster_TooFewItems(t *testing.T) {
	items := []types.ContentItem{makeItem("only", dirA, 5, 50)}
	clusters, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("fewer than 2 items should degrade, not error: %v", err)
	}
	if clusters != nil {
		t.Errorf("expected no clusters, got %d", len(clusters))
	}
}

func TestCluster_BelowDensityThreshold(t *testing.T) {
	// Two similar items are below the MinNeighbors=3 requirement, so no
	// cluster forms and both stay unclustered.
	items := itemGroup("a", dirA, 2, 10, 50)
	clusters, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("expected 0 clusters, got %d", len(clusters))
	}
}

func TestCluster_DimensionMismatch(t *testing.T) {
	items := itemGroup("a", dirA, 4, 10, 50)
	items = append(items, makeItem("bad", types.Embedding{1, 0}, 10, 50))

	if _, err := Cluster(refs(items), DefaultClusterConfig()); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestCluster_CentroidIsMemberMean(t *testing.T) {
	items := []types.ContentItem{
		makeItem("a", types.Embedding{1, 0, 0, 0}, 10, 50),
		makeItem("b", types.Embedding{0.9, 0.1, 0, 0}, 10, 50),
		makeItem("c", types.Embedding{0.95, 0.05, 0, 0}, 10, 50),
		makeItem("d", types.Embedding{0.92, 0.08, 0, 0}, 10, 50),
	}
	clusters, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}

	want := float32((1 + 0.9 + 0.95 + 0.92) / 4)
	got := clusters[0].Centroid[0]
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("centroid[0] = %f, want %f", got, want)
	}
}

func TestFindMostSimilarCluster_Match(t *testing.T) {
	items := itemGroup("a", dirA, 5, 10, 50)
	items = append(items, itemGroup("b", dirB, 5, 10, 50)...)
	clusters, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	match, err := FindMostSimilarCluster(dirB, clusters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a cluster match")
	}
	if match.Cluster.ID != 1 {
		t.Errorf("expected match with cluster 1, got %d", match.Cluster.ID)
	}
	if match.Similarity <= MatchThreshold {
		t.Errorf("match similarity %f should exceed threshold %f", match.Similarity, MatchThreshold)
	}
}

func TestFindMostSimilarCluster_Novel(t *testing.T) {
	items := itemGroup("a", dirA, 5, 10, 50)
	clusters, err := Cluster(refs(items), DefaultClusterConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Orthogonal idea: similarity ~0, well under the match threshold.
	match, err := FindMostSimilarCluster(dirC, clusters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Errorf("orthogonal idea should have no match, got cluster %d", match.Cluster.ID)
	}
}

func TestFindMostSimilarCluster_TieBreakLargerCluster(t *testing.T) {
	// Two synthetic clusters with identical centroids but different sizes.
	small := &types.ContentCluster{ID: 0, Centroid: dirA, Size: 3}
	large := &types.ContentCluster{ID: 1, Centroid: dirA, Size: 8}

	match, err := FindMostSimilarCluster(dirA, []*types.ContentCluster{small, large})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Cluster.ID != 1 {
		t.Errorf("tie should prefer the larger cluster, got cluster %d", match.Cluster.ID)
	}
}

func TestFindMostSimilarCluster_TieBreakDiscoveryOrder(t *testing.T) {
	// Identical centroids and identical sizes: the cluster discovered first
	// wins, keeping the match deterministic.
	first := &types.ContentCluster{ID: 0, Centroid: dirA, Size: 5}
	second := &types.ContentCluster{ID: 1, Centroid: dirA, Size: 5}

	match, err := FindMostSimilarCluster(dirA, []*types.ContentCluster{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Cluster.ID != 0 {
		t.Errorf("full tie should keep the first cluster in discovery order, got cluster %d", match.Cluster.ID)
	}
}

func TestFindMostSimilarCluster_NoClusters(t *testing.T) {
	match, err := FindMostSimilarCluster(dirA, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Error("no clusters should yield no match")
	}
}

func TestAssignToCluster(t *testing.T) {
	clusters := []*types.ContentCluster{
		{ID: 0, Centroid: dirA, Size: 4},
		{ID: 1, Centroid: dirB, Size: 4},
	}

	idx, ok := AssignToCluster(dirB, clusters)
	if !ok || idx != 1 {
		t.Errorf("expected assignment to cluster 1, got idx=%d ok=%v", idx, ok)
	}

	if _, ok := AssignToCluster(dirC, clusters); ok {
		t.Error("orthogonal embedding should not be assigned to any cluster")
	}
}
