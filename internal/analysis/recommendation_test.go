package analysis

import (
	"strings"
	"testing"

	"github.com/tidescan/tidescan/pkg/types"
)

func TestGenerateRecommendation_RuleTable(t *testing.T) {
	cases := []struct {
		name       string
		saturation float64
		novelty    float64
		stage      types.LifecycleStage
		want       types.Action
	}{
		{"saturated peak", 80, 20, types.StagePeak, types.ActionAvoid},
		{"moderate growing", 50, 40, types.StageGrowing, types.ActionModify},
		{"novel emerging", 20, 75, types.StageEmerging, types.ActionCreate},
		{"novel growing", 30, 65, types.StageGrowing, types.ActionCreate},
		{"saturated declining", 90, 10, types.StageDeclining, types.ActionAvoid},
		// Novelty rule wins over the modify band when the stage is early.
		{"novel but moderate saturation", 55, 70, types.StageEmerging, types.ActionCreate},
		// High novelty in a peaked space does not trigger Create.
		{"novel at peak", 50, 80, types.StagePeak, types.ActionModify},
		{"default create", 10, 30, types.StagePeak, types.ActionCreate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := GenerateRecommendation(tc.saturation, tc.novelty, tc.stage)
			if rec.Action != tc.want {
				t.Errorf("got %s, want %s", rec.Action, tc.want)
			}
		})
	}
}

func TestGenerateRecommendation_Reasoning(t *testing.T) {
	rec := GenerateRecommendation(80, 20, types.StagePeak)

	if len(rec.Reasoning) < 10 {
		t.Errorf("reasoning too short: %q", rec.Reasoning)
	}
	if !strings.Contains(rec.Reasoning, "80") {
		t.Errorf("reasoning should reference the saturation score: %q", rec.Reasoning)
	}
	if len(rec.Suggestions) == 0 {
		t.Error("expected at least one suggestion")
	}
}

func TestGenerateRecommendation_ConfidenceBounds(t *testing.T) {
	grid := []float64{0, 15, 40, 55, 70, 85, 100}
	stages := []types.LifecycleStage{
		types.StageEmerging, types.StageGrowing, types.StagePeak, types.StageDeclining,
	}

	for _, sat := range grid {
		for _, nov := range grid {
			for _, stage := range stages {
				rec := GenerateRecommendation(sat, nov, stage)
				if rec.Confidence < 0 || rec.Confidence > 100 {
					t.Fatalf("confidence out of range for sat=%f nov=%f stage=%s: %f",
						sat, nov, stage, rec.Confidence)
				}
				if !rec.Action.Valid() {
					t.Fatalf("invalid action for sat=%f nov=%f stage=%s", sat, nov, stage)
				}
			}
		}
	}
}

func TestGenerateRecommendation_ConfidenceGrowsWithMargin(t *testing.T) {
	near := GenerateRecommendation(72, 20, types.StagePeak)  // barely past the Avoid boundary
	far := GenerateRecommendation(95, 20, types.StagePeak)   // deep into Avoid territory

	if near.Action != types.ActionAvoid || far.Action != types.ActionAvoid {
		t.Fatal("both cases should be Avoid")
	}
	if far.Confidence <= near.Confidence {
		t.Errorf("larger margin should raise confidence: near=%f far=%f",
			near.Confidence, far.Confidence)
	}
}
