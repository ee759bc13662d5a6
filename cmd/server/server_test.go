package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/analysis"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/auth"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/cache"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/database"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/monitoring"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	logger := monitoring.NewLogger()
	metrics := monitoring.NewMetrics()
	svc := analysis.NewService(nil, repo, metrics, logger.Logger)

	return &app{
		db:       db,
		repo:     repo,
		service:  svc,
		batch:    analysis.NewBatchService(svc),
		sessions: auth.NewSessionService("test-secret"),
		cache:    cache.NewCache(5 * time.Minute),
		metrics:  metrics,
		logger:   logger,
	}
}

func doRequest(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func analyzeBody(userID string, taskHours, idleHours float64, saveToHistory *bool) []byte {
	payload := map[string]any{
		"userId": userID,
		"activityData": map[string]any{
			"taskHours":        taskHours,
			"idleHours":        idleHours,
			"socialMediaUsage": 0.5,
			"breakFrequency":   3,
			"tasksCompleted":   9,
		},
	}
	if saveToHistory != nil {
		payload["saveToHistory"] = *saveToHistory
	}
	body, _ := json.Marshal(payload)
	return body
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "metrics")
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/analyze", analyzeBody("user-1", 7, 0.5, nil), nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 88.5, resp["productivity_score"])
	assert.Equal(t, types.CategoryHighlyProductive, resp["category_rule_based"])
	assert.Equal(t, true, resp["saved_to_history"])
	assert.NotEmpty(t, resp["timestamp"])
	assert.NotEmpty(t, resp["suggestions"])
}

func TestAnalyzeEndpointOptOutOfPersistence(t *testing.T) {
	testApp := newTestApp(t)
	router := testApp.setupRouter()

	noSave := false
	w := doRequest(router, http.MethodPost, "/analyze", analyzeBody("user-1", 7, 0.5, &noSave), nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["saved_to_history"])

	count, err := testApp.repo.Count(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAnalyzeEndpointMissingActivityData(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/analyze", []byte(`{"userId": "user-1"}`), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeEndpointDefaultsAnonymousUser(t *testing.T) {
	testApp := newTestApp(t)
	router := testApp.setupRouter()

	w := doRequest(router, http.MethodPost, "/analyze", analyzeBody("", 6, 1, nil), nil)
	require.Equal(t, http.StatusOK, w.Code)

	count, err := testApp.repo.Count(context.Background(), "anonymous")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQuickAnalyzeNeverPersists(t *testing.T) {
	testApp := newTestApp(t)
	router := testApp.setupRouter()

	w := doRequest(router, http.MethodPost, "/analyze/quick", analyzeBody("user-1", 7, 0.5, nil), nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["saved_to_history"])

	count, err := testApp.repo.Count(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestQuickAnalyzeIsCached(t *testing.T) {
	testApp := newTestApp(t)
	router := testApp.setupRouter()

	body := analyzeBody("user-1", 7, 0.5, nil)
	first := doRequest(router, http.MethodPost, "/analyze/quick", body, nil)
	second := doRequest(router, http.MethodPost, "/analyze/quick", body, nil)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	// First request populated the cache, second was served from it
	assert.Equal(t, 1, testApp.cache.Size())
	stats := testApp.metrics.GetStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
}

func multipartCSV(t *testing.T, fields map[string]string, csvContent string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("file", "activity.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvContent))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestUploadCSVEndpoint(t *testing.T) {
	testApp := newTestApp(t)
	router := testApp.setupRouter()

	csvContent := "Task_Hours,Idle_Hours,Social_Media_Usage,Break_Frequency,Tasks_Completed\n9,0.5,0.5,2,15\n3,4,4,10,2\n"
	buf, contentType := multipartCSV(t, map[string]string{"user_id": "user-1"}, csvContent)

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2.0, resp["total_records"])
	assert.Equal(t, 2.0, resp["processed"])
	assert.Equal(t, 0.0, resp["failed"])
	assert.Contains(t, resp, "summary")

	// Batch rows are persisted
	count, err := testApp.repo.Count(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUploadCSVMissingRequiredColumn(t *testing.T) {
	router := newTestApp(t).setupRouter()

	buf, contentType := multipartCSV(t, nil, "Task_Hours,Social_Media_Usage\n5,1\n")

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Idle_Hours")
}

func TestUploadCSVMissingFile(t *testing.T) {
	router := newTestApp(t).setupRouter()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("user_id", "user-1"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCSVTemplateEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/csv/template", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "productivity_template.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Task_Hours,Idle_Hours,Social_Media_Usage,Break_Frequency,Tasks_Completed"))
}

func TestCSVValidateEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	buf, contentType := multipartCSV(t, nil, "Task_Hours,Social_Media_Usage\n5,1\n")

	req := httptest.NewRequest(http.MethodPost, "/csv/validate", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["valid"])
	assert.Contains(t, fmt.Sprint(resp["missing_columns"]), "Idle_Hours")
}

func TestHistoryLifecycle(t *testing.T) {
	router := newTestApp(t).setupRouter()

	// Save two analyses
	for i := 0; i < 2; i++ {
		w := doRequest(router, http.MethodPost, "/analyze", analyzeBody("user-1", 7, 0.5, nil), nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// List them
	w := doRequest(router, http.MethodGet, "/history/user-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, "user-1", listResp["user_id"])
	assert.Equal(t, 2.0, listResp["total_records"])
	assert.Len(t, listResp["history"], 2)

	// Stats over the window
	w = doRequest(router, http.MethodGet, "/history/user-1/stats?days=7", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var statsResp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statsResp))
	stats := statsResp["stats"].(map[string]any)
	assert.Equal(t, 2.0, stats["count"])
	assert.Equal(t, 88.5, stats["mean"])
	assert.Equal(t, 7.0, stats["window_days"])

	// Delete everything
	w = doRequest(router, http.MethodDelete, "/history/user-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var deleteResp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleteResp))
	assert.Equal(t, true, deleteResp["success"])
	assert.Equal(t, 2.0, deleteResp["deleted_count"])
	assert.Contains(t, deleteResp["message"], "2")

	// Now empty
	w = doRequest(router, http.MethodGet, "/history/user-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, 0.0, listResp["total_records"])
}

func TestHistoryEmptyUser(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/history/ghost", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp["total_records"])
}

func TestReportEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/analyze", analyzeBody("user-1", 7, 0.5, nil), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/reports/user-1?sort=score", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp["user_id"])
	assert.Equal(t, 1.0, resp["total_entries"])
	assert.Contains(t, resp, "category_distribution")
	assert.Contains(t, resp, "trend")
}

func TestReportEndpointRejectsBadSort(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/reports/user-1?sort=alphabetical", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportExportEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/analyze", analyzeBody("user-1", 7, 0.5, nil), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/reports/user-1/export", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "productivity_report.csv")

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Date,Productivity Score"))
	assert.Contains(t, lines[1], "Highly Productive")
}

func TestSessionEndpointAndAuthenticatedRequest(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/auth/session", []byte(`{"userId": "user-1"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	token, ok := resp["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	assert.Equal(t, "user-1", resp["user_id"])

	headers := map[string]string{"Authorization": "Bearer " + token}
	w = doRequest(router, http.MethodPost, "/analyze", analyzeBody("user-1", 6, 1, nil), headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionEndpointRequiresUserID(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/auth/session", []byte(`{}`), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionEndpointRejectsWhitespaceUserID(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodPost, "/auth/session", []byte(`{"userId": "   "}`), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "token")
}

func TestInvalidTokenRejected(t *testing.T) {
	router := newTestApp(t).setupRouter()

	headers := map[string]string{"Authorization": "Bearer not.a.token"}
	w := doRequest(router, http.MethodGet, "/health", nil, headers)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	doRequest(router, http.MethodPost, "/analyze", analyzeBody("user-1", 6, 1, nil), nil)
	w := doRequest(router, http.MethodGet, "/metrics", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp["analysis_count"])
	assert.GreaterOrEqual(t, resp["total_requests"].(float64), 1.0)
}

func TestCacheStatsEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/cache/stats", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_items")
}

func TestRateLimitStatsWithoutLimiter(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/ratelimit/stats", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)
}

func TestDatabasePoolStatsEndpoint(t *testing.T) {
	router := newTestApp(t).setupRouter()

	w := doRequest(router, http.MethodGet, "/pools/database", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stats")
}
