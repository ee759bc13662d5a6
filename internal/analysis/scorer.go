package analysis

import (
	"math"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

var (
	weightTaskHours      = 8.0
	weightTasksCompleted = 5.0
	weightIdleHours      = 6.0
	weightSocialMedia    = 7.0
	weightBreaks         = 2.0

	// thresholds on the clamped 0-100 score
	highlyProductiveMin     = 80.0
	moderatelyProductiveMin = 50.0

	// breakdown assumes an average break of 30 minutes
	breakHoursPerBreak = 0.5
)

// Breakdown decomposes an observation into time buckets for the response payload.
type Breakdown struct {
	ProductiveHours  float64 `json:"productive_hours"`
	IdleHours        float64 `json:"idle_hours"`
	SocialMediaHours float64 `json:"social_media_hours"`
	BreakHours       float64 `json:"break_hours"`
}

// ScoreResult is the outcome of rule-based scoring for a single observation.
type ScoreResult struct {
	Score     float64   `json:"score"`
	RawScore  float64   `json:"raw_score"`
	Category  string    `json:"category"`
	Breakdown Breakdown `json:"breakdown"`
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Score computes the weighted productivity score for a record.
// Deterministic: equal records always produce equal results.
func Score(r types.ActivityRecord) ScoreResult {
	raw := r.TaskHours*weightTaskHours +
		float64(r.TasksCompleted)*weightTasksCompleted -
		r.IdleHours*weightIdleHours -
		r.SocialMediaHours*weightSocialMedia -
		float64(r.BreakFrequency)*weightBreaks

	score := clip(raw, 0, 100)

	return ScoreResult{
		Score:    score,
		RawScore: raw,
		Category: Classify(score),
		Breakdown: Breakdown{
			ProductiveHours:  r.TaskHours,
			IdleHours:        r.IdleHours,
			SocialMediaHours: r.SocialMediaHours,
			BreakHours:       float64(r.BreakFrequency) * breakHoursPerBreak,
		},
	}
}

// Classify maps a clamped score onto a category label.
func Classify(score float64) string {
	switch {
	case score >= highlyProductiveMin:
		return types.CategoryHighlyProductive
	case score >= moderatelyProductiveMin:
		return types.CategoryModeratelyProductive
	default:
		return types.CategoryFakeProductivity
	}
}
