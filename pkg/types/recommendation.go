package types

// Action is the final Create/Modify/Avoid decision for a content idea.
type Action string

const (
	// ActionCreate: the idea-space is open, make the content.
	ActionCreate Action = "create"

	// ActionModify: the idea-space is partially crowded, differentiate first.
	ActionModify Action = "modify"

	// ActionAvoid: the idea-space is saturated and past its peak.
	ActionAvoid Action = "avoid"
)

// Valid reports whether the action is one of the defined decisions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionModify, ActionAvoid:
		return true
	}
	return false
}

// Recommendation is the decision produced for one analysis together with a
// human-readable rationale. Reasoning is always non-empty and references the
// scores that triggered the decision.
type Recommendation struct {
	Action      Action   `json:"action"`
	Confidence  float64  `json:"confidence"` // 0-100, distance of the scores from the nearest rule boundary
	Reasoning   string   `json:"reasoning"`
	Suggestions []string `json:"suggestions,omitempty"`
}
