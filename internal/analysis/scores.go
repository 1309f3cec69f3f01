package analysis

import (
	"time"

	"github.com/tidescan/tidescan/pkg/types"
)

const (
	// recentWindow is the "recent" window for the volume boost numerator.
	recentWindow = 30 * 24 * time.Hour

	// totalWindow is the full lookback for the volume boost denominator.
	totalWindow = 90 * 24 * time.Hour

	// recentVolumeWeight scales the recent-volume ratio into score points.
	recentVolumeWeight = 20.0
)

// SaturationScore computes how crowded the matched cluster is, in [0, 100]:
//
//	saturation = min(100, size/2 + recentVolumeBoost*20)
//
// where recentVolumeBoost is the share of the cluster's last-90-day items
// that were published in the last 30 days. With no matched cluster both terms
// are zero, so the degraded (no-cluster) case always scores below 20. A
// cluster of more than 200 items saturates the size term alone (200/2 = 100),
// so very crowded spaces score at least 80 before the clamp.
//
// The score is non-decreasing in cluster size for a fixed boost, and
// non-decreasing in the boost for a fixed size.
func SaturationScore(match *types.ClusterMatch, now time.Time) float64 {
	if match == nil || match.Cluster == nil {
		return 0
	}

	c := match.Cluster
	score := float64(c.Size) / 2

	var recent, total int
	for _, m := range c.Members {
		age := now.Sub(m.PublishedAt)
		if age < 0 || age > totalWindow {
			continue
		}
		total++
		if age <= recentWindow {
			recent++
		}
	}
	if total > 0 {
		score += float64(recent) / float64(total) * recentVolumeWeight
	}

	return clamp(score, 0, 100)
}

// NoveltyScore computes the semantic originality of the idea, in [0, 100]:
//
//	novelty = clamp(100 - maxSimilarity*100, 0, 100)
//
// maxSimilarity is the highest similarity observed between the idea and any
// cluster centroid (or any single item in degraded mode). The score is
// strictly decreasing in maxSimilarity inside the clamp bounds; an idea with
// no similar content at all scores a full 100.
func NoveltyScore(maxSimilarity float64) float64 {
	return clamp(100-maxSimilarity*100, 0, 100)
}
