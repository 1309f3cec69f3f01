package analysis

import (
	"fmt"
	"math"

	"github.com/tidescan/tidescan/pkg/types"
)

// Recommendation rule boundaries.
const (
	createMinNovelty = 60.0
	avoidMinSatur    = 70.0
	modifyMinSatur   = 40.0
	modifyMaxSatur   = 70.0
)

// GenerateRecommendation derives the final Create/Modify/Avoid decision from
// the two scores and the lifecycle stage. The rules are evaluated in order,
// first match wins:
//
//  1. novelty > 60 and stage Emerging/Growing  -> Create
//  2. saturation > 70 and stage Peak/Declining -> Avoid
//  3. saturation in [40, 70]                   -> Modify
//  4. otherwise                                -> Create
//
// The reasoning string always names the triggering rule with the numeric
// scores; confidence grows with the distance of the scores from the nearest
// rule boundary, clamped to [0, 100].
func GenerateRecommendation(saturation, novelty float64, stage types.LifecycleStage) types.Recommendation {
	switch {
	case novelty > createMinNovelty && (stage == types.StageEmerging || stage == types.StageGrowing):
		return types.Recommendation{
			Action:     types.ActionCreate,
			Confidence: confidenceFromMargin(novelty - createMinNovelty),
			Reasoning: fmt.Sprintf(
				"High novelty (%.0f/100) in a %s space: the idea is semantically distinct from existing content and the topic is still gaining momentum.",
				novelty, stage),
			Suggestions: []string{
				"Publish before the space crowds up",
				"Anchor the idea with the angle competitors are missing",
			},
		}

	case saturation > avoidMinSatur && (stage == types.StagePeak || stage == types.StageDeclining):
		return types.Recommendation{
			Action:     types.ActionAvoid,
			Confidence: confidenceFromMargin(saturation - avoidMinSatur),
			Reasoning: fmt.Sprintf(
				"High saturation (%.0f/100) in a %s space: the competitive cluster is crowded and past its growth phase.",
				saturation, stage),
			Suggestions: []string{
				"Look for an adjacent, less crowded angle",
				"Revisit the idea if engagement in the space recovers",
			},
		}

	case saturation >= modifyMinSatur && saturation <= modifyMaxSatur:
		// Distance to whichever edge of the [40,70] band is closer.
		margin := math.Min(saturation-modifyMinSatur, modifyMaxSatur-saturation)
		return types.Recommendation{
			Action:     types.ActionModify,
			Confidence: confidenceFromMargin(margin),
			Reasoning: fmt.Sprintf(
				"Moderate saturation (%.0f/100, novelty %.0f/100): the space has competition but room for a differentiated take.",
				saturation, novelty),
			Suggestions: []string{
				"Sharpen the hook to stand apart from the matched cluster",
				"Combine the idea with an underserved format or audience",
			},
		}

	default:
		return types.Recommendation{
			Action:     types.ActionCreate,
			Confidence: confidenceFromMargin(modifyMinSatur - saturation),
			Reasoning: fmt.Sprintf(
				"Low saturation (%.0f/100, novelty %.0f/100): no rule flags the space as crowded, so creating is the default.",
				saturation, novelty),
			Suggestions: []string{
				"Validate demand with a small-scale version first",
			},
		}
	}
}

// confidenceFromMargin maps the distance from the nearest rule boundary to a
// confidence in [0, 100]. A decision right on a boundary gets the 50 floor;
// each point of margin adds 1.5 until the cap.
func confidenceFromMargin(margin float64) float64 {
	if margin < 0 {
		margin = 0
	}
	return clamp(50+margin*1.5, 0, 100)
}
