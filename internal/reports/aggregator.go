package reports

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/database"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

// Sort orders accepted by Build
const (
	SortByDate  = "date"
	SortByScore = "score"
)

// exportHeader is the fixed column order for CSV exports
var exportHeader = []string{
	"Date",
	"Productivity Score",
	"Category (Rule-based)",
	"Category (ML)",
	"Task Hours",
	"Tasks Completed",
	"Idle Hours",
	"Social Media Hours",
	"Break Frequency",
}

// CategoryStat is one category's share of a report
type CategoryStat struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// TrendStat describes score movement across the report window
type TrendStat struct {
	Direction string  `json:"direction"`
	Change    float64 `json:"change"`
}

// Report is the aggregated view over a user's history window
type Report struct {
	UserID       string                   `json:"user_id"`
	TotalEntries int                      `json:"total_entries"`
	Entries      []*database.HistoryEntry `json:"entries"`
	Distribution map[string]CategoryStat  `json:"category_distribution"`
	Trend        TrendStat                `json:"trend"`
}

// Build aggregates history entries into a report. filterCategory narrows to
// one rule-based category when non-empty; sortBy is "date" (timestamp desc,
// the default) or "score" (score desc). Sorting is stable so equal keys keep
// their stored order.
func Build(userID string, entries []*database.HistoryEntry, filterCategory, sortBy string) *Report {
	filtered := entries
	if filterCategory != "" {
		filtered = make([]*database.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			if e.CategoryRuleBased == filterCategory {
				filtered = append(filtered, e)
			}
		}
	}

	sorted := make([]*database.HistoryEntry, len(filtered))
	copy(sorted, filtered)
	switch sortBy {
	case SortByScore:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ProductivityScore > sorted[j].ProductivityScore
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	}

	direction, change := database.Trend(filtered)

	return &Report{
		UserID:       userID,
		TotalEntries: len(sorted),
		Entries:      sorted,
		Distribution: distribution(sorted),
		Trend:        TrendStat{Direction: direction, Change: change},
	}
}

// distribution counts entries per category; every category appears even at
// zero, and percentages are rounded to one decimal.
func distribution(entries []*database.HistoryEntry) map[string]CategoryStat {
	dist := make(map[string]CategoryStat, len(types.Categories))

	counts := make(map[string]int, len(types.Categories))
	for _, e := range entries {
		counts[e.CategoryRuleBased]++
	}

	total := len(entries)
	for _, category := range types.Categories {
		stat := CategoryStat{Count: counts[category]}
		if total > 0 {
			stat.Percent = math.Round(float64(stat.Count)/float64(total)*1000) / 10
		}
		dist[category] = stat
	}

	return dist
}

// ExportCSV renders entries as a downloadable CSV with a fixed header
func ExportCSV(entries []*database.HistoryEntry) string {
	var b strings.Builder
	b.WriteString(strings.Join(exportHeader, ","))
	b.WriteString("\n")

	for _, e := range entries {
		row := []string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			formatFloat(e.ProductivityScore),
			e.CategoryRuleBased,
			e.CategoryML,
			formatFloat(e.TaskHours),
			fmt.Sprintf("%d", e.TasksCompleted),
			formatFloat(e.IdleHours),
			formatFloat(e.SocialMediaHours),
			fmt.Sprintf("%d", e.BreakFrequency),
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}

	return b.String()
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%g", v)
}
