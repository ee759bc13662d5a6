package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

// predictRequest is the payload sent to the classifier service
type predictRequest struct {
	TaskHours        float64 `json:"task_hours"`
	IdleHours        float64 `json:"idle_hours"`
	SocialMediaHours float64 `json:"social_media_hours"`
	BreakFrequency   int     `json:"break_frequency"`
	TasksCompleted   int     `json:"tasks_completed"`
}

// predictResponse is the classifier service's answer
type predictResponse struct {
	PredictedCategory string  `json:"predicted_category"`
	Confidence        float64 `json:"confidence"`
}

// HTTPClassifier calls an external ML classifier service over HTTP.
// It satisfies the analysis Classifier interface; callers treat any
// error as "no ML category available".
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClassifier creates a classifier adapter for the given base URL
func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Predict sends an observation to the classifier and returns its label
// and confidence.
func (h *HTTPClassifier) Predict(ctx context.Context, record types.ActivityRecord) (string, float64, error) {
	payload, err := json.Marshal(predictRequest{
		TaskHours:        record.TaskHours,
		IdleHours:        record.IdleHours,
		SocialMediaHours: record.SocialMediaHours,
		BreakFrequency:   record.BreakFrequency,
		TasksCompleted:   record.TasksCompleted,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode predict request: %w", err)
	}

	url := h.baseURL + "/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", 0, fmt.Errorf("classifier error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var prediction predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return "", 0, fmt.Errorf("failed to decode prediction: %w", err)
	}

	if prediction.PredictedCategory == "" {
		return "", 0, fmt.Errorf("classifier returned empty category")
	}

	return prediction.PredictedCategory, prediction.Confidence, nil
}
