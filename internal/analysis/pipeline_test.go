package analysis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/tidescan/tidescan/pkg/types"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := DefaultPipelineConfig()
	cfg.Now = func() time.Time { return testNow }
	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestPipeline_EmptyContentSet(t *testing.T) {
	p := testPipeline(t)

	result, err := p.Run(context.Background(), Request{
		ID:            "a-1",
		Idea:          "ambient noise videos for studying",
		IdeaEmbedding: dirA,
	})
	if err != nil {
		t.Fatalf("empty content set should not error: %v", err)
	}

	if result.SaturationScore != 0 {
		t.Errorf("expected saturation 0, got %f", result.SaturationScore)
	}
	if result.NoveltyScore != 100 {
		t.Errorf("expected novelty 100, got %f", result.NoveltyScore)
	}
	if result.Stage != types.StageEmerging {
		t.Errorf("expected stage emerging, got %s", result.Stage)
	}
	if result.Recommendation.Action != types.ActionCreate {
		t.Errorf("expected create recommendation, got %s", result.Recommendation.Action)
	}
	if len(result.TopSimilar) != 0 {
		t.Errorf("expected empty top-similar list, got %d entries", len(result.TopSimilar))
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	p := testPipeline(t)

	items := itemGroup("a", dirA, 6, 10, 60)
	items = append(items, itemGroup("b", dirB, 5, 40, 30)...)
	req := Request{ID: "a-2", Idea: "test", IdeaEmbedding: dirA, Items: items}

	first, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Error("identical input produced different results")
	}
}

func TestPipeline_TopSimilar(t *testing.T) {
	p := testPipeline(t)

	items := itemGroup("a", dirA, 8, 10, 50)
	items = append(items, makeItem("dup", dirB, 10, 50))
	items = append(items, makeItem("dup", dirB, 10, 50)) // duplicate ID
	req := Request{ID: "a-3", Idea: "test", IdeaEmbedding: dirA, Items: items}

	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.TopSimilar) > TopSimilarLimit {
		t.Fatalf("top similar exceeds limit: %d", len(result.TopSimilar))
	}
	for i := 1; i < len(result.TopSimilar); i++ {
		if result.TopSimilar[i].Similarity > result.TopSimilar[i-1].Similarity {
			t.Error("top similar not sorted by similarity descending")
		}
	}
	seen := make(map[string]bool)
	for _, s := range result.TopSimilar {
		if seen[s.ID] {
			t.Errorf("duplicate item %s in top similar", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestPipeline_MatchedClusterScores(t *testing.T) {
	p := testPipeline(t)

	// A tight cluster around the idea: high saturation signal, low novelty.
	items := itemGroup("a", dirA, 12, 10, 70)
	req := Request{ID: "a-4", Idea: "test", IdeaEmbedding: dirA, Items: items}

	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.ClusterCount != 1 {
		t.Fatalf("expected 1 cluster, got %d", result.ClusterCount)
	}
	if result.NoveltyScore > 30 {
		t.Errorf("idea inside a tight cluster should have low novelty, got %f", result.NoveltyScore)
	}
	if result.SaturationScore <= 0 {
		t.Errorf("matched cluster should produce positive saturation, got %f", result.SaturationScore)
	}
}

func TestPipeline_DegradedModeNoClusters(t *testing.T) {
	p := testPipeline(t)

	// Two orthogonal items: no density cluster forms, analysis degrades to
	// similarity-only mode instead of failing.
	items := []types.ContentItem{
		makeItem("x", dirB, 10, 50),
		makeItem("y", dirC, 10, 50),
	}
	req := Request{ID: "a-5", Idea: "test", IdeaEmbedding: dirA, Items: items}

	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("degraded mode should not error: %v", err)
	}
	if result.ClusterCount != 0 {
		t.Errorf("expected 0 clusters, got %d", result.ClusterCount)
	}
	if result.SaturationScore >= 20 {
		t.Errorf("no-cluster saturation must stay below 20, got %f", result.SaturationScore)
	}
}

func TestPipeline_DimensionMismatchFatal(t *testing.T) {
	p := testPipeline(t)

	items := []types.ContentItem{makeItem("bad", types.Embedding{1, 0}, 10, 50)}
	req := Request{ID: "a-6", Idea: "test", IdeaEmbedding: dirA, Items: items}

	if _, err := p.Run(context.Background(), req); err == nil {
		t.Error("dimension mismatch should abort the analysis")
	}
}

func TestPipeline_Cancellation(t *testing.T) {
	p := testPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := Request{ID: "a-7", Idea: "test", IdeaEmbedding: dirA, Items: itemGroup("a", dirA, 4, 10, 50)}
	if _, err := p.Run(ctx, req); err == nil {
		t.Error("cancelled context should abort the analysis")
	}
}

func TestPipeline_ScoresClamped(t *testing.T) {
	p := testPipeline(t)

	items := itemGroup("a", dirA, 250, 5, 90)
	req := Request{ID: "a-8", Idea: "test", IdeaEmbedding: dirA, Items: items}

	result, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.SaturationScore < 0 || result.SaturationScore > 100 {
		t.Errorf("saturation out of range: %f", result.SaturationScore)
	}
	if result.SaturationScore < 80 {
		t.Errorf("very large cluster should saturate above 80, got %f", result.SaturationScore)
	}
	if result.NoveltyScore < 0 || result.NoveltyScore > 100 {
		t.Errorf("novelty out of range: %f", result.NoveltyScore)
	}
	if result.Recommendation.Confidence < 0 || result.Recommendation.Confidence > 100 {
		t.Errorf("confidence out of range: %f", result.Recommendation.Confidence)
	}
}
