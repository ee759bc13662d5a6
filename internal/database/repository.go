package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	defaultListLimit = 100
)

// Repository handles history persistence
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Append inserts one history entry
func (r *Repository) Append(ctx context.Context, entry *HistoryEntry) error {
	suggestionsJSON, err := json.Marshal(entry.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}

	stmt, err := r.db.GetPreparedStatement("insert_history")
	if err != nil {
		return err
	}

	var confidence sql.NullFloat64
	if entry.ConfidenceScore != nil {
		confidence = sql.NullFloat64{Float64: *entry.ConfidenceScore, Valid: true}
	}

	_, err = stmt.ExecContext(ctx,
		entry.ID, entry.UserID, entry.ProductivityScore, entry.CategoryRuleBased,
		nullString(entry.CategoryML), confidence, entry.TaskHours, entry.TasksCompleted,
		entry.IdleHours, entry.SocialMediaHours, entry.BreakFrequency,
		string(suggestionsJSON), entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// List returns a user's history ordered newest first.
// Non-positive limit falls back to the default page size.
func (r *Repository) List(ctx context.Context, userID string, limit, offset int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	stmt, err := r.db.GetPreparedStatement("get_history")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListWindow returns all entries for a user newer than the window cutoff,
// newest first. windowDays <= 0 means no cutoff.
func (r *Repository) ListWindow(ctx context.Context, userID string, windowDays int) ([]*HistoryEntry, error) {
	if windowDays <= 0 {
		return r.listAll(ctx, userID)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)

	stmt, err := r.db.GetPreparedStatement("get_history_window")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query history window: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *Repository) listAll(ctx context.Context, userID string) ([]*HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, productivity_score, category_rule_based, category_ml,
			confidence_score, task_hours, tasks_completed, idle_hours,
			social_media_hours, break_frequency, suggestions, created_at, updated_at
		FROM productivity_history WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteAll removes every entry for a user and returns how many were deleted
func (r *Repository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	stmt, err := r.db.GetPreparedStatement("delete_history")
	if err != nil {
		return 0, err
	}

	result, err := stmt.ExecContext(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}

	return deleted, nil
}

// Count returns the number of entries stored for a user
func (r *Repository) Count(ctx context.Context, userID string) (int, error) {
	stmt, err := r.db.GetPreparedStatement("count_history")
	if err != nil {
		return 0, err
	}

	var count int
	if err := stmt.QueryRowContext(ctx, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}

	return count, nil
}

// Stats computes summary statistics over a user's history window
func (r *Repository) Stats(ctx context.Context, userID string, windowDays int) (*HistoryStats, error) {
	entries, err := r.ListWindow(ctx, userID, windowDays)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(entries)
	stats.Window = windowDays
	return stats, nil
}

// ComputeStats summarizes scores for a set of entries. Trend compares the
// mean of the chronologically later half against the earlier half; a
// positive change is improving, zero or negative is declining.
func ComputeStats(entries []*HistoryEntry) *HistoryStats {
	stats := &HistoryStats{Trend: "declining"}
	if len(entries) == 0 {
		return stats
	}

	scores := make([]float64, len(entries))
	sum := 0.0
	stats.Min = entries[0].ProductivityScore
	stats.Max = entries[0].ProductivityScore
	for i, e := range entries {
		scores[i] = e.ProductivityScore
		sum += e.ProductivityScore
		if e.ProductivityScore < stats.Min {
			stats.Min = e.ProductivityScore
		}
		if e.ProductivityScore > stats.Max {
			stats.Max = e.ProductivityScore
		}
	}

	stats.Count = len(entries)
	stats.Mean = sum / float64(len(entries))
	stats.Median = median(scores)
	stats.Trend, stats.Change = Trend(entries)

	return stats
}

// Trend splits entries into chronological halves and compares mean scores.
// Entries arrive newest first; the split happens on the time-ordered view.
func Trend(entries []*HistoryEntry) (string, float64) {
	if len(entries) < 2 {
		return "declining", 0
	}

	ordered := make([]*HistoryEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	mid := len(ordered) / 2
	first := meanScore(ordered[:mid])
	second := meanScore(ordered[mid:])

	change := second - first
	if change > 0 {
		return "improving", change
	}
	return "declining", change
}

func meanScore(entries []*HistoryEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entries {
		sum += e.ProductivityScore
	}
	return sum / float64(len(entries))
}

func median(scores []float64) float64 {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func scanEntries(rows *sql.Rows) ([]*HistoryEntry, error) {
	entries := make([]*HistoryEntry, 0)
	for rows.Next() {
		var entry HistoryEntry
		var categoryML sql.NullString
		var confidence sql.NullFloat64
		var suggestionsJSON sql.NullString

		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.ProductivityScore, &entry.CategoryRuleBased,
			&categoryML, &confidence, &entry.TaskHours, &entry.TasksCompleted,
			&entry.IdleHours, &entry.SocialMediaHours, &entry.BreakFrequency,
			&suggestionsJSON, &entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		if categoryML.Valid {
			entry.CategoryML = categoryML.String
		}
		if confidence.Valid {
			v := confidence.Float64
			entry.ConfidenceScore = &v
		}
		if suggestionsJSON.Valid && suggestionsJSON.String != "" {
			if err := json.Unmarshal([]byte(suggestionsJSON.String), &entry.Suggestions); err != nil {
				return nil, fmt.Errorf("failed to decode suggestions: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	return entries, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
