package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

var testRecord = types.ActivityRecord{
	TaskHours: 7, IdleHours: 1, SocialMediaHours: 0.5,
	BreakFrequency: 3, TasksCompleted: 9,
}

func TestPredictSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 7.0, payload["task_hours"])
		assert.Equal(t, 9.0, payload["tasks_completed"])

		json.NewEncoder(w).Encode(map[string]any{
			"predicted_category": types.CategoryHighlyProductive,
			"confidence":         0.93,
		})
	}))
	defer server.Close()

	classifier := NewHTTPClassifier(server.URL)
	label, confidence, err := classifier.Predict(context.Background(), testRecord)

	require.NoError(t, err)
	assert.Equal(t, types.CategoryHighlyProductive, label)
	assert.InDelta(t, 0.93, confidence, 1e-9)
}

func TestPredictServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	classifier := NewHTTPClassifier(server.URL)
	_, _, err := classifier.Predict(context.Background(), testRecord)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestPredictEmptyCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"confidence": 0.5})
	}))
	defer server.Close()

	classifier := NewHTTPClassifier(server.URL)
	_, _, err := classifier.Predict(context.Background(), testRecord)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty category")
}

func TestPredictUnreachableService(t *testing.T) {
	classifier := NewHTTPClassifier("http://127.0.0.1:1")

	_, _, err := classifier.Predict(context.Background(), testRecord)
	assert.Error(t, err)
}

func TestPredictCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"predicted_category": "x", "confidence": 1})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classifier := NewHTTPClassifier(server.URL)
	_, _, err := classifier.Predict(ctx, testRecord)
	assert.Error(t, err)
}
