package csvio

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/ZanzyTHEbar/fake-productivity-detector/internal/errors"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

// Column names expected in uploaded CSVs. Matching is case-sensitive.
const (
	ColTaskHours      = "Task_Hours"
	ColIdleHours      = "Idle_Hours"
	ColSocialMedia    = "Social_Media_Usage"
	ColBreakFrequency = "Break_Frequency"
	ColTasksCompleted = "Tasks_Completed"
)

var requiredColumns = []string{ColTaskHours, ColIdleHours}

var knownColumns = []string{
	ColTaskHours,
	ColIdleHours,
	ColSocialMedia,
	ColBreakFrequency,
	ColTasksCompleted,
}

// ValidationResult is the outcome of a structural check on an uploaded CSV.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// Parse decodes raw CSV content into activity records, one per data row,
// preserving file order. Task_Hours and Idle_Hours must be present in the
// header or the whole upload is rejected before any row is processed.
// Missing optional columns and malformed or negative cells coerce to zero.
func Parse(raw string) ([]types.ActivityRecord, error) {
	header, rows, err := split(raw)
	if err != nil {
		return nil, err
	}

	if missing := missingRequired(header); len(missing) > 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	records := make([]types.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, types.ActivityRecord{
			TaskHours:        cellFloat(row, index, ColTaskHours),
			IdleHours:        cellFloat(row, index, ColIdleHours),
			SocialMediaHours: cellFloat(row, index, ColSocialMedia),
			BreakFrequency:   cellInt(row, index, ColBreakFrequency),
			TasksCompleted:   cellInt(row, index, ColTasksCompleted),
		})
	}

	return records, nil
}

// Validate performs the structural check behind POST /csv/validate without
// scoring anything.
func Validate(raw string) ValidationResult {
	header, rows, err := split(raw)
	if err != nil {
		return ValidationResult{Valid: false, Errors: []string{err.Error()}}
	}

	result := ValidationResult{
		Valid:    true,
		RowCount: len(rows),
		Columns:  header,
	}

	if missing := missingRequired(header); len(missing) > 0 {
		result.Valid = false
		result.MissingColumns = missing
		result.Errors = append(result.Errors,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	if len(rows) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "no data rows found")
	}

	return result
}

func split(raw string) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewValidationError("malformed CSV content", err.Error())
	}
	if len(all) == 0 {
		return nil, nil, apperrors.NewValidationError("empty CSV content")
	}

	header = make([]string, len(all[0]))
	for i, col := range all[0] {
		header[i] = strings.TrimSpace(col)
	}
	return header, all[1:], nil
}

func missingRequired(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func cellFloat(row []string, index map[string]int, col string) float64 {
	i, ok := index[col]
	if !ok || i >= len(row) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func cellInt(row []string, index map[string]int, col string) int {
	// Integer columns tolerate float-formatted cells the same way.
	return int(cellFloat(row, index, col))
}
