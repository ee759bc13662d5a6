package analysis

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/csvio"
	apperrors "github.com/ZanzyTHEbar/fake-productivity-detector/internal/errors"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

// BatchSummary aggregates the successful rows of a batch
type BatchSummary struct {
	AverageScore         float64        `json:"average_score"`
	HighestScore         float64        `json:"highest_score"`
	LowestScore          float64        `json:"lowest_score"`
	CategoryDistribution map[string]int `json:"category_distribution"`
}

// BatchReport is the outcome of analyzing an uploaded CSV
type BatchReport struct {
	TotalRecords int          `json:"total_records"`
	Processed    int          `json:"processed"`
	Failed       int          `json:"failed"`
	Results      []*Result    `json:"results"`
	Errors       []string     `json:"errors,omitempty"`
	Summary      BatchSummary `json:"summary"`
}

// BatchService analyzes uploaded CSVs row by row
type BatchService struct {
	service *Service
}

// NewBatchService creates a batch analysis service
func NewBatchService(service *Service) *BatchService {
	return &BatchService{service: service}
}

// AnalyzeBatch parses raw CSV content and analyzes each row in file order.
// Structural problems (missing required columns, malformed CSV) fail the
// whole upload; a row that fails during analysis is counted and skipped
// without aborting the batch. Every successful row is persisted.
func (b *BatchService) AnalyzeBatch(ctx context.Context, userID, rawCSV string, useML bool) (*BatchReport, error) {
	records, err := csvio.Parse(rawCSV)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{
		TotalRecords: len(records),
		Results:      make([]*Result, 0, len(records)),
	}

	for i, record := range records {
		result, rowErr := b.analyzeRow(ctx, userID, record, useML)
		if rowErr != nil {
			report.Failed++
			appErr := apperrors.NewRowProcessingError(i+1, rowErr)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", appErr.Error(), rowErr))
			continue
		}
		report.Processed++
		report.Results = append(report.Results, result)
	}

	report.Summary = summarize(report.Results)

	return report, nil
}

func (b *BatchService) analyzeRow(ctx context.Context, userID string, record types.ActivityRecord, useML bool) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic during row analysis: %v", r)
		}
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	return b.service.Analyze(ctx, userID, record, Options{
		UseML:         useML,
		SaveToHistory: true,
	}), nil
}

func summarize(results []*Result) BatchSummary {
	summary := BatchSummary{
		CategoryDistribution: map[string]int{},
	}
	for _, category := range types.Categories {
		summary.CategoryDistribution[category] = 0
	}

	if len(results) == 0 {
		return summary
	}

	sum := 0.0
	summary.HighestScore = results[0].ProductivityScore
	summary.LowestScore = results[0].ProductivityScore
	for _, r := range results {
		sum += r.ProductivityScore
		if r.ProductivityScore > summary.HighestScore {
			summary.HighestScore = r.ProductivityScore
		}
		if r.ProductivityScore < summary.LowestScore {
			summary.LowestScore = r.ProductivityScore
		}
		summary.CategoryDistribution[r.CategoryRuleBased]++
	}
	summary.AverageScore = sum / float64(len(results))

	return summary
}
