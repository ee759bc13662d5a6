package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

// HistoryEntry is one persisted analysis result
type HistoryEntry struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	ProductivityScore float64   `json:"productivity_score" db:"productivity_score"`
	CategoryRuleBased string    `json:"category_rule_based" db:"category_rule_based"`
	CategoryML        string    `json:"category_ml,omitempty" db:"category_ml"`
	ConfidenceScore   *float64  `json:"confidence_score,omitempty" db:"confidence_score"`
	TaskHours         float64   `json:"task_hours" db:"task_hours"`
	TasksCompleted    int       `json:"tasks_completed" db:"tasks_completed"`
	IdleHours         float64   `json:"idle_hours" db:"idle_hours"`
	SocialMediaHours  float64   `json:"social_media_hours" db:"social_media_hours"`
	BreakFrequency    int       `json:"break_frequency" db:"break_frequency"`
	Suggestions       []string  `json:"suggestions" db:"suggestions"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// historyEntryWire mirrors HistoryEntry plus the legacy field names that
// older clients still send. Normalization happens only here, at the storage
// boundary; everything above it sees canonical names.
type historyEntryWire struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	ProductivityScore *float64  `json:"productivity_score"`
	LegacyScore       *float64  `json:"score"`
	CategoryRuleBased string    `json:"category_rule_based"`
	LegacyCategory    string    `json:"category"`
	CategoryML        string    `json:"category_ml"`
	ConfidenceScore   *float64  `json:"confidence_score"`
	TaskHours         float64   `json:"task_hours"`
	TasksCompleted    int       `json:"tasks_completed"`
	IdleHours         float64   `json:"idle_hours"`
	SocialMediaHours  float64   `json:"social_media_hours"`
	BreakFrequency    int       `json:"break_frequency"`
	Suggestions       []string  `json:"suggestions"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UnmarshalJSON accepts `score` and `category` as aliases for
// `productivity_score` and `category_rule_based`. Canonical names win
// when both are present.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var wire historyEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	h.ID = wire.ID
	h.UserID = wire.UserID
	h.CategoryML = wire.CategoryML
	h.ConfidenceScore = wire.ConfidenceScore
	h.TaskHours = wire.TaskHours
	h.TasksCompleted = wire.TasksCompleted
	h.IdleHours = wire.IdleHours
	h.SocialMediaHours = wire.SocialMediaHours
	h.BreakFrequency = wire.BreakFrequency
	h.Suggestions = wire.Suggestions
	h.CreatedAt = wire.CreatedAt
	h.UpdatedAt = wire.UpdatedAt

	switch {
	case wire.ProductivityScore != nil:
		h.ProductivityScore = *wire.ProductivityScore
	case wire.LegacyScore != nil:
		h.ProductivityScore = *wire.LegacyScore
	}

	h.CategoryRuleBased = wire.CategoryRuleBased
	if h.CategoryRuleBased == "" {
		h.CategoryRuleBased = wire.LegacyCategory
	}

	return nil
}

// Record reconstructs the activity observation stored in this entry
func (h *HistoryEntry) Record() types.ActivityRecord {
	return types.ActivityRecord{
		TaskHours:        h.TaskHours,
		IdleHours:        h.IdleHours,
		SocialMediaHours: h.SocialMediaHours,
		BreakFrequency:   h.BreakFrequency,
		TasksCompleted:   h.TasksCompleted,
	}
}

// NewHistoryEntry creates an entry with a generated ID and timestamps
func NewHistoryEntry(userID string, record types.ActivityRecord, score float64, category string, suggestions []string) *HistoryEntry {
	now := time.Now().UTC()
	return &HistoryEntry{
		ID:                uuid.New().String(),
		UserID:            userID,
		ProductivityScore: score,
		CategoryRuleBased: category,
		TaskHours:         record.TaskHours,
		TasksCompleted:    record.TasksCompleted,
		IdleHours:         record.IdleHours,
		SocialMediaHours:  record.SocialMediaHours,
		BreakFrequency:    record.BreakFrequency,
		Suggestions:       suggestions,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// HistoryStats summarizes a user's history window
type HistoryStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Trend  string  `json:"trend"`
	Change float64 `json:"change"`
	Window int     `json:"window_days"`
}
