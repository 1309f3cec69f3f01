package analysis

import (
	"math"
	"time"

	"github.com/tidescan/tidescan/pkg/types"
)

const (
	// DefaultTrendWindowDays is the lookback window for trend analysis.
	DefaultTrendWindowDays = 90

	// trendBucket is the bucketing cadence for the engagement time series.
	trendBucket = 7 * 24 * time.Hour
)

// Lifecycle rule thresholds (content volume and least-squares slope).
const (
	emergingMaxVolume  = 50
	growingMaxVolume   = 150
	peakMinVolume      = 150
	decliningMinVolume = 100

	emergingMinSlope  = 0.1
	growingMinSlope   = 0.05
	peakMaxAbsSlope   = 0.05
	decliningMaxSlope = -0.05
)

// AnalyzeEngagementTrend buckets a cluster's member engagement into weekly
// time-series points across the window ending at now, then derives the
// least-squares slope of aggregate engagement over the bucket index and the
// volatility (standard deviation of period-over-period deltas).
//
// Points are returned in chronological order and cover the whole window,
// including empty buckets, so the regression sees gaps as zero engagement
// rather than skipping them.
func AnalyzeEngagementTrend(cluster *types.ContentCluster, now time.Time, windowDays int) types.EngagementTrend {
	if windowDays <= 0 {
		windowDays = DefaultTrendWindowDays
	}

	window := time.Duration(windowDays) * 24 * time.Hour
	start := now.Add(-window).Truncate(trendBucket)
	bucketCount := int(now.Sub(start)/trendBucket) + 1

	points := make([]types.TimeSeriesPoint, bucketCount)
	for i := range points {
		points[i].Date = start.Add(time.Duration(i) * trendBucket)
	}

	if cluster != nil {
		for _, m := range cluster.Members {
			if m.PublishedAt.Before(start) || m.PublishedAt.After(now) {
				continue
			}
			idx := int(m.PublishedAt.Sub(start) / trendBucket)
			if idx >= bucketCount {
				idx = bucketCount - 1
			}
			points[idx].Engagement += m.Engagement.NormalizedScore
			points[idx].ContentCount++
		}
	}

	return types.EngagementTrend{
		AvgEngagement: meanEngagement(points),
		Slope:         regressionSlope(points),
		Volatility:    deltaVolatility(points),
		Points:        points,
	}
}

// meanEngagement returns the mean aggregate engagement per bucket.
func meanEngagement(points []types.TimeSeriesPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Engagement
	}
	return sum / float64(len(points))
}

// regressionSlope computes the least-squares slope of engagement over the
// bucket index. Fewer than two points have no defined slope and yield 0.
func regressionSlope(points []types.TimeSeriesPoint) float64 {
	n := float64(len(points))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Engagement
		sumXY += x * p.Engagement
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// deltaVolatility computes the standard deviation of period-over-period
// engagement deltas.
func deltaVolatility(points []types.TimeSeriesPoint) float64 {
	if len(points) < 2 {
		return 0
	}

	deltas := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		deltas = append(deltas, points[i].Engagement-points[i-1].Engagement)
	}

	var sum float64
	for _, d := range deltas {
		sum += d
	}
	mean := sum / float64(len(deltas))

	var sq float64
	for _, d := range deltas {
		sq += (d - mean) * (d - mean)
	}
	return math.Sqrt(sq / float64(len(deltas)))
}

// DetectLifecycleStage classifies a trend into a lifecycle stage from its
// content volume and engagement slope. This is a pure ordered rule chain,
// not a state machine.
//
// Precedence when multiple rules hold: Declining > Peak > Growing > Emerging.
// Combinations matched by no rule (e.g. moderate volume with a near-flat
// slope) default to Emerging, the most optimistic reading of an unclear
// signal.
func DetectLifecycleStage(trend types.EngagementTrend, contentVolume int) types.LifecycleStage {
	slope := trend.Slope

	switch {
	case contentVolume >= decliningMinVolume && slope < decliningMaxSlope:
		return types.StageDeclining
	case contentVolume >= peakMinVolume && math.Abs(slope) < peakMaxAbsSlope:
		return types.StagePeak
	case contentVolume >= emergingMaxVolume && contentVolume < growingMaxVolume && slope > growingMinSlope:
		return types.StageGrowing
	case contentVolume < emergingMaxVolume && slope > emergingMinSlope:
		return types.StageEmerging
	default:
		return types.StageEmerging
	}
}
