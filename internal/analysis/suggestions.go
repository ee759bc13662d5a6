package analysis

import "github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"

// Suggestion rule thresholds. Rules read raw metrics only, never the
// computed score, so tuning weights cannot silently change advice.
var (
	socialMediaLimit   = 2.0
	idleHoursLimit     = 1.0
	taskHoursFloor     = 4.0
	breakFrequencyCap  = 8
	tasksCompletedGoal = 3
)

var affirmations = []string{
	"Excellent work! Maintain your current productivity habits.",
	"Consider mentoring others with your productivity strategies.",
}

// Suggest evaluates the advice rules against a record. Rules fire
// independently in a fixed order, each contributing at most one message.
// When no rule fires the caller gets the two affirmation messages instead;
// affirmations and rule messages never mix.
func Suggest(r types.ActivityRecord) []string {
	suggestions := make([]string, 0, 5)

	if r.SocialMediaHours > socialMediaLimit {
		suggestions = append(suggestions, "Reduce social media usage to improve focus. Try scheduling specific times for checking social platforms.")
	}
	if r.IdleHours > idleHoursLimit {
		suggestions = append(suggestions, "Minimize idle time by planning your work sessions and taking structured breaks.")
	}
	if r.TaskHours < taskHoursFloor {
		suggestions = append(suggestions, "Increase focused work time. Aim for at least 4 hours of concentrated task work daily.")
	}
	if r.BreakFrequency > breakFrequencyCap {
		suggestions = append(suggestions, "Take fewer but longer breaks. Frequent interruptions can hurt deep work.")
	}
	if r.TasksCompleted < tasksCompletedGoal {
		suggestions = append(suggestions, "Break large tasks into smaller, completable chunks to build momentum.")
	}

	if len(suggestions) == 0 {
		return append(suggestions, affirmations...)
	}
	return suggestions
}
