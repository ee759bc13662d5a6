package errors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	cause := errors.New("underlying failure")

	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		contains string
	}{
		{
			name:     "validation",
			err:      NewValidationError("userId is required"),
			category: CategoryValidation,
			status:   http.StatusBadRequest,
			contains: "[VALIDATION_ERROR] userId is required",
		},
		{
			name:     "row processing",
			err:      NewRowProcessingError(3, cause),
			category: CategoryRowProcessing,
			status:   http.StatusUnprocessableEntity,
			contains: "failed to process row 3",
		},
		{
			name:     "persistence",
			err:      NewPersistenceError("insert failed", cause),
			category: CategoryPersistence,
			status:   http.StatusInternalServerError,
			contains: "[PERSISTENCE_ERROR]",
		},
		{
			name:     "classifier",
			err:      NewClassifierError("prediction failed", cause),
			category: CategoryClassifier,
			status:   http.StatusBadGateway,
			contains: "[CLASSIFIER_ERROR] prediction failed",
		},
		{
			name:     "rate limit",
			err:      NewRateLimitError("30"),
			category: CategoryRateLimit,
			status:   http.StatusTooManyRequests,
			contains: "[RATE_LIMIT_EXCEEDED] Rate limit exceeded",
		},
		{
			name:     "internal",
			err:      NewInternalError("boom", cause),
			category: CategoryInternal,
			status:   http.StatusInternalServerError,
			contains: "[INTERNAL_ERROR]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestToAppErrorPassesThrough(t *testing.T) {
	original := NewValidationError("bad input")

	converted := ToAppError(original)
	assert.Same(t, original, converted)
}

func TestToAppErrorClassifiesByMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
	}{
		{"sql failure", errors.New("sql: no rows in result set"), CategoryPersistence},
		{"database failure", errors.New("database is locked"), CategoryPersistence},
		{"cancelled context", context.Canceled, CategoryInternal},
		{"deadline exceeded", context.DeadlineExceeded, CategoryInternal},
		{"unknown", errors.New("something odd"), CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
		})
	}
}

func TestToAppErrorNil(t *testing.T) {
	assert.Nil(t, ToAppError(nil))
}
