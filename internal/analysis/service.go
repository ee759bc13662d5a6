package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/database"
	apperrors "github.com/ZanzyTHEbar/fake-productivity-detector/internal/errors"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/monitoring"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

// Classifier is the capability interface for the external ML model.
// Implementations live in internal/adapters; absence or failure is never
// fatal to an analysis.
type Classifier interface {
	Predict(ctx context.Context, record types.ActivityRecord) (label string, confidence float64, err error)
}

// HistoryStore is the persistence surface the analysis pipeline needs
type HistoryStore interface {
	Append(ctx context.Context, entry *database.HistoryEntry) error
}

// Options controls the optional stages of an analysis
type Options struct {
	UseML         bool
	SaveToHistory bool
}

// Result is the full outcome of analyzing one observation
type Result struct {
	UserID            string    `json:"user_id,omitempty"`
	ProductivityScore float64   `json:"productivity_score"`
	RawScore          float64   `json:"raw_score"`
	CategoryRuleBased string    `json:"category_rule_based"`
	CategoryML        string    `json:"category_ml,omitempty"`
	ConfidenceScore   *float64  `json:"confidence_score,omitempty"`
	Breakdown         Breakdown `json:"breakdown"`
	Suggestions       []string  `json:"suggestions"`
	SavedToHistory    bool      `json:"saved_to_history"`
	SaveError         string    `json:"save_error,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Service orchestrates scoring, suggestions, classification and persistence
type Service struct {
	classifier Classifier
	store      HistoryStore
	metrics    *monitoring.Metrics
	logger     *slog.Logger
}

// NewService creates an analysis service. classifier, store and metrics may
// be nil; the corresponding stages are skipped.
func NewService(classifier Classifier, store HistoryStore, metrics *monitoring.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		classifier: classifier,
		store:      store,
		metrics:    metrics,
		logger:     logger,
	}
}

// Analyze runs the full pipeline for one observation: clamp, score,
// suggest, optionally classify, optionally persist. A persistence failure
// never discards the computed result.
func (s *Service) Analyze(ctx context.Context, userID string, record types.ActivityRecord, opts Options) *Result {
	record = record.Clamped()

	scored := Score(record)
	result := &Result{
		UserID:            userID,
		ProductivityScore: scored.Score,
		RawScore:          scored.RawScore,
		CategoryRuleBased: scored.Category,
		Breakdown:         scored.Breakdown,
		Suggestions:       Suggest(record),
		Timestamp:         time.Now().UTC(),
	}

	if opts.UseML && s.classifier != nil {
		label, confidence, err := s.classifier.Predict(ctx, record)
		if s.metrics != nil {
			s.metrics.RecordClassifierCall(err == nil)
		}
		if err != nil {
			appErr := apperrors.NewClassifierError("prediction failed", err)
			s.logger.Info("classifier unavailable, continuing without ML category",
				"user_id", userID, "error", appErr)
		} else {
			result.CategoryML = label
			result.ConfidenceScore = &confidence
		}
	}

	if opts.SaveToHistory && s.store != nil {
		entry := database.NewHistoryEntry(userID, record, result.ProductivityScore, result.CategoryRuleBased, result.Suggestions)
		entry.CategoryML = result.CategoryML
		entry.ConfidenceScore = result.ConfidenceScore

		if err := s.store.Append(ctx, entry); err != nil {
			s.logger.Error("failed to save analysis to history",
				"user_id", userID, "error", err)
			result.SaveError = err.Error()
		} else {
			result.SavedToHistory = true
		}
	}

	return result
}
