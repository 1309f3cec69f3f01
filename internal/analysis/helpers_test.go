package analysis

import (
	"fmt"
	"time"

	"github.com/tidescan/tidescan/pkg/types"
)

// testNow is the fixed clock used across analysis tests so results are
// reproducible.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// makeItem builds a content item with the given embedding, age in days
// before testNow, and normalized engagement score.
func makeItem(id string, emb types.Embedding, ageDays int, score float64) types.ContentItem {
	return types.ContentItem{
		ID:          id,
		Platform:    "youtube",
		Title:       "item " + id,
		PublishedAt: testNow.AddDate(0, 0, -ageDays),
		Engagement:  types.EngagementMetrics{NormalizedScore: score},
		Embedding:   emb,
	}
}

// itemGroup builds n items tightly packed around the given direction so
// they form one density cluster. Each item gets a tiny, index-dependent
// perturbation that keeps pairwise similarity well above RelatedThreshold.
func itemGroup(prefix string, base types.Embedding, n, ageDays int, score float64) []types.ContentItem {
	items := make([]types.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		emb := make(types.Embedding, len(base))
		copy(emb, base)
		emb[0] += float32(i) * 0.001
		items = append(items, makeItem(fmt.Sprintf("%s-%d", prefix, i), emb, ageDays, score))
	}
	return items
}

// refs converts a slice of items into the pointer slice the clustering
// engine consumes.
func refs(items []types.ContentItem) []*types.ContentItem {
	out := make([]*types.ContentItem, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
