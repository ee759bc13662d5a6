package types

// Productivity category labels shared by the rule-based scorer and the ML classifier.
const (
	CategoryHighlyProductive     = "Highly Productive"
	CategoryModeratelyProductive = "Moderately Productive"
	CategoryFakeProductivity     = "Fake Productivity"
)

// Categories lists all category labels in descending order of productivity.
var Categories = []string{
	CategoryHighlyProductive,
	CategoryModeratelyProductive,
	CategoryFakeProductivity,
}

// ActivityRecord is one observation of a user's tracked activity.
type ActivityRecord struct {
	TaskHours        float64 `json:"task_hours"`
	IdleHours        float64 `json:"idle_hours"`
	SocialMediaHours float64 `json:"social_media_hours"`
	BreakFrequency   int     `json:"break_frequency"`
	TasksCompleted   int     `json:"tasks_completed"`
}

// Clamped returns a copy with negative metric values coerced to zero.
// Missing or malformed input never fails at the field level.
func (r ActivityRecord) Clamped() ActivityRecord {
	if r.TaskHours < 0 {
		r.TaskHours = 0
	}
	if r.IdleHours < 0 {
		r.IdleHours = 0
	}
	if r.SocialMediaHours < 0 {
		r.SocialMediaHours = 0
	}
	if r.BreakFrequency < 0 {
		r.BreakFrequency = 0
	}
	if r.TasksCompleted < 0 {
		r.TasksCompleted = 0
	}
	return r
}

// ActivityData is the camelCase request payload for a single observation.
type ActivityData struct {
	TaskHours        float64 `json:"taskHours"`
	IdleHours        float64 `json:"idleHours"`
	SocialMediaUsage float64 `json:"socialMediaUsage"`
	BreakFrequency   int     `json:"breakFrequency"`
	TasksCompleted   int     `json:"tasksCompleted"`
}

// Record converts the wire payload to the internal record shape.
func (d ActivityData) Record() ActivityRecord {
	return ActivityRecord{
		TaskHours:        d.TaskHours,
		IdleHours:        d.IdleHours,
		SocialMediaHours: d.SocialMediaUsage,
		BreakFrequency:   d.BreakFrequency,
		TasksCompleted:   d.TasksCompleted,
	}
}

// AnalyzeRequest represents the request structure for the analyze endpoints.
type AnalyzeRequest struct {
	UserID              string       `json:"userId"`
	ActivityData        ActivityData `json:"activityData" binding:"required"`
	UseMLClassification bool         `json:"useMlClassification"`
	SaveToHistory       *bool        `json:"saveToHistory"`
}

// SessionRequest represents the request structure for the session endpoint.
type SessionRequest struct {
	UserID string `json:"userId" binding:"required"`
}
