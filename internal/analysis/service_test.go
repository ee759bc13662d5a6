package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/database"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/monitoring"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

type fakeStore struct {
	entries []*database.HistoryEntry
	err     error
}

func (f *fakeStore) Append(_ context.Context, entry *database.HistoryEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeClassifier struct {
	label      string
	confidence float64
	err        error
	calls      int
}

func (f *fakeClassifier) Predict(_ context.Context, _ types.ActivityRecord) (string, float64, error) {
	f.calls++
	return f.label, f.confidence, f.err
}

var busyDay = types.ActivityRecord{
	TaskHours: 7, IdleHours: 0.5, SocialMediaHours: 0.5,
	BreakFrequency: 3, TasksCompleted: 9,
}

func TestAnalyzeSavesToHistory(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(nil, store, nil, nil)

	result := svc.Analyze(context.Background(), "user-1", busyDay, Options{SaveToHistory: true})

	assert.True(t, result.SavedToHistory)
	assert.Empty(t, result.SaveError)
	require.Len(t, store.entries, 1)

	entry := store.entries[0]
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, result.ProductivityScore, entry.ProductivityScore)
	assert.Equal(t, result.CategoryRuleBased, entry.CategoryRuleBased)
	assert.Equal(t, result.Suggestions, entry.Suggestions)
	assert.NotEmpty(t, entry.ID)
}

func TestAnalyzePersistenceFailureKeepsResult(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	svc := NewService(nil, store, nil, nil)

	result := svc.Analyze(context.Background(), "user-1", busyDay, Options{SaveToHistory: true})

	// The computed result survives the failed save
	assert.Greater(t, result.ProductivityScore, 0.0)
	assert.NotEmpty(t, result.CategoryRuleBased)
	assert.False(t, result.SavedToHistory)
	assert.Contains(t, result.SaveError, "disk full")
}

func TestAnalyzeSkipsPersistenceWhenDisabled(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(nil, store, nil, nil)

	result := svc.Analyze(context.Background(), "user-1", busyDay, Options{SaveToHistory: false})

	assert.False(t, result.SavedToHistory)
	assert.Empty(t, store.entries)
}

func TestAnalyzeWithClassifier(t *testing.T) {
	classifier := &fakeClassifier{label: types.CategoryHighlyProductive, confidence: 0.93}
	svc := NewService(classifier, nil, nil, nil)

	result := svc.Analyze(context.Background(), "user-1", busyDay, Options{UseML: true})

	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, types.CategoryHighlyProductive, result.CategoryML)
	require.NotNil(t, result.ConfidenceScore)
	assert.InDelta(t, 0.93, *result.ConfidenceScore, 1e-9)
}

func TestAnalyzeClassifierFailureIsNotFatal(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("connection refused")}
	svc := NewService(classifier, nil, nil, nil)

	result := svc.Analyze(context.Background(), "user-1", busyDay, Options{UseML: true})

	assert.Empty(t, result.CategoryML)
	assert.Nil(t, result.ConfidenceScore)
	assert.Greater(t, result.ProductivityScore, 0.0)
	assert.NotEmpty(t, result.Suggestions)
}

func TestAnalyzeClassifierSkippedWithoutOptIn(t *testing.T) {
	classifier := &fakeClassifier{label: types.CategoryHighlyProductive, confidence: 0.9}
	svc := NewService(classifier, nil, nil, nil)

	result := svc.Analyze(context.Background(), "user-1", busyDay, Options{UseML: false})

	assert.Equal(t, 0, classifier.calls)
	assert.Empty(t, result.CategoryML)
}

func TestAnalyzeRecordsClassifierMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()

	healthy := &fakeClassifier{label: types.CategoryHighlyProductive, confidence: 0.9}
	NewService(healthy, nil, metrics, nil).Analyze(context.Background(), "user-1", busyDay, Options{UseML: true})

	broken := &fakeClassifier{err: errors.New("connection refused")}
	NewService(broken, nil, metrics, nil).Analyze(context.Background(), "user-1", busyDay, Options{UseML: true})

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats["classifier_calls"])
	assert.Equal(t, int64(1), stats["classifier_errors"])
}

func TestAnalyzeClampsNegativeInput(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)

	negative := types.ActivityRecord{TaskHours: -5, IdleHours: -1, TasksCompleted: -3}
	result := svc.Analyze(context.Background(), "user-1", negative, Options{})

	assert.Equal(t, 0.0, result.ProductivityScore)
	assert.Equal(t, types.CategoryFakeProductivity, result.CategoryRuleBased)
	assert.Equal(t, 0.0, result.Breakdown.ProductiveHours)
}

func TestAnalyzeResultWireFormat(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)

	result := svc.Analyze(context.Background(), "user-1", busyDay, Options{})
	assert.False(t, result.Timestamp.IsZero())

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Contains(t, payload, "productivity_score")
	assert.Contains(t, payload, "category_rule_based")
	assert.Contains(t, payload, "timestamp")
	assert.Contains(t, payload, "saved_to_history")
	assert.NotContains(t, payload, "score")
	assert.NotContains(t, payload, "category")
}
