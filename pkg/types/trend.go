package types

import "time"

// LifecycleStage classifies where a content cluster sits in its trend
// lifecycle, derived from content volume and engagement slope.
type LifecycleStage string

const (
	// StageEmerging: low volume with rising engagement. Also the documented
	// default when no lifecycle rule matches (including the empty landscape).
	StageEmerging LifecycleStage = "emerging"

	// StageGrowing: moderate volume with sustained positive slope.
	StageGrowing LifecycleStage = "growing"

	// StagePeak: high volume with a flat engagement slope.
	StagePeak LifecycleStage = "peak"

	// StageDeclining: substantial volume with falling engagement.
	StageDeclining LifecycleStage = "declining"
)

// Valid reports whether the stage is one of the defined lifecycle stages.
func (s LifecycleStage) Valid() bool {
	switch s {
	case StageEmerging, StageGrowing, StagePeak, StageDeclining:
		return true
	}
	return false
}

// TimeSeriesPoint is one bucket of a cluster's engagement time series,
// scoped to the analysis window. Derived and read-only.
type TimeSeriesPoint struct {
	Date         time.Time `json:"date"`          // Bucket start (UTC)
	Engagement   float64   `json:"engagement"`    // Aggregate normalized engagement in the bucket
	ContentCount int       `json:"content_count"` // Items published in the bucket
}

// EngagementTrend summarizes the engagement trajectory of a cluster across
// the analysis window. Points are ordered chronologically.
type EngagementTrend struct {
	AvgEngagement float64           `json:"avg_engagement"` // Mean aggregate engagement per bucket
	Slope         float64           `json:"slope"`          // Least-squares slope of engagement over bucket index
	Volatility    float64           `json:"volatility"`     // Stddev of period-over-period engagement deltas
	Points        []TimeSeriesPoint `json:"points"`         // Chronological buckets
}
