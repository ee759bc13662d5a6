package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/analysis"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/auth"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/cache"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/csvio"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/database"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/errors"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/monitoring"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/ratelimit"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/reports"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/types"
)

const (
	maxUploadBytes = 5 << 20 // 5MB CSV upload cap
	defaultUserID  = "anonymous"
)

// app bundles the services the HTTP handlers need
type app struct {
	db       *database.DB
	repo     *database.Repository
	service  *analysis.Service
	batch    *analysis.BatchService
	sessions *auth.SessionService
	limiter  *ratelimit.RateLimiter
	cache    *cache.Cache
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	cors     []string
}

// setupRouter wires middleware and routes onto a fresh gin engine
func (a *app) setupRouter() *gin.Engine {
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(a.cors) > 0 {
		corsConfig.AllowOrigins = a.cors
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(a.sessions.Middleware())

	if a.limiter != nil {
		r.Use(a.limiter.IPRateLimitMiddleware())
		r.Use(a.limiter.UserRateLimitMiddleware())
	}

	if a.cache != nil {
		r.Use(a.cache.Middleware(a.metrics))
	}

	r.POST("/auth/session", a.handleCreateSession)

	r.POST("/analyze", a.handleAnalyze)
	r.POST("/analyze/quick", a.handleAnalyzeQuick)

	r.POST("/upload-csv", a.handleUploadCSV)
	r.GET("/csv/template", a.handleCSVTemplate)
	r.POST("/csv/validate", a.handleCSVValidate)

	r.GET("/history/:userId", a.handleGetHistory)
	r.DELETE("/history/:userId", a.handleDeleteHistory)
	r.GET("/history/:userId/stats", a.handleHistoryStats)

	r.GET("/reports/:userId", a.handleGetReport)
	r.GET("/reports/:userId/export", a.handleExportReport)

	r.GET("/health", a.handleHealth)
	r.GET("/metrics", a.handleMetrics)
	r.GET("/cache/stats", a.handleCacheStats)
	r.GET("/ratelimit/stats", a.handleRateLimitStats)
	r.GET("/pools/database", a.handleDatabasePoolStats)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// handleCreateSession issues a JWT for the given userId
func (a *app) handleCreateSession(c *gin.Context) {
	var req types.SessionRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("userId is required")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		appErr := errors.NewValidationError("userId is required")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	token, err := a.sessions.GenerateToken(userID)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"user_id":    userID,
		"expires_in": int((24 * time.Hour).Seconds()),
	})
}

// handleAnalyze scores one observation and persists it unless opted out
func (a *app) handleAnalyze(c *gin.Context) {
	a.analyze(c, true)
}

// handleAnalyzeQuick scores one observation without ever persisting it.
// Responses are cacheable because the handler is pure.
func (a *app) handleAnalyzeQuick(c *gin.Context) {
	a.analyze(c, false)
}

func (a *app) analyze(c *gin.Context, allowSave bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	start := time.Now()

	var req types.AnalyzeRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid analyze request", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = defaultUserID
	}

	save := allowSave
	if allowSave && req.SaveToHistory != nil {
		save = *req.SaveToHistory
	}

	result := a.service.Analyze(ctx, userID, req.ActivityData.Record(), analysis.Options{
		UseML:         req.UseMLClassification,
		SaveToHistory: save,
	})

	a.metrics.IncrementAnalysis()
	if result.SavedToHistory {
		a.metrics.IncrementHistoryWrite()
	}
	a.logger.AnalysisLogger(userID, result.ProductivityScore, result.CategoryRuleBased,
		req.UseMLClassification, result.SavedToHistory, time.Since(start))

	c.JSON(http.StatusOK, result)
}

// handleUploadCSV analyzes a multipart CSV upload row by row
func (a *app) handleUploadCSV(c *gin.Context) {
	start := time.Now()

	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		userID = defaultUserID
	}
	useML := c.PostForm("use_ml") == "true"

	raw, appErr := readUpload(c)
	if appErr != nil {
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	report, err := a.batch.AnalyzeBatch(c.Request.Context(), userID, raw, useML)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.metrics.RecordBatchRows(report.Processed, report.Failed)
	a.logger.BatchLogger(userID, report.TotalRecords, report.Processed, report.Failed, time.Since(start))

	c.JSON(http.StatusOK, report)
}

// handleCSVTemplate serves the downloadable example CSV
func (a *app) handleCSVTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="productivity_template.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(csvio.Template()))
}

// handleCSVValidate checks an upload's structure without scoring it
func (a *app) handleCSVValidate(c *gin.Context) {
	raw, appErr := readUpload(c)
	if appErr != nil {
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	result := csvio.Validate(raw)
	c.JSON(http.StatusOK, result)
}

// handleGetHistory lists a user's saved analyses, newest first
func (a *app) handleGetHistory(c *gin.Context) {
	userID := c.Param("userId")
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)

	entries, err := a.repo.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		appErr := errors.NewPersistenceError("failed to read history", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.metrics.IncrementHistoryRead()

	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"total_records": len(entries),
		"history":       entries,
	})
}

// handleDeleteHistory removes all of a user's entries
func (a *app) handleDeleteHistory(c *gin.Context) {
	userID := c.Param("userId")

	deleted, err := a.repo.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		appErr := errors.NewPersistenceError("failed to delete history", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("Deleted %d history entries for user %s", deleted, userID),
		"deleted_count": deleted,
	})
}

// handleHistoryStats summarizes a user's history window
func (a *app) handleHistoryStats(c *gin.Context) {
	userID := c.Param("userId")
	days := queryInt(c, "days", 30)

	stats, err := a.repo.Stats(c.Request.Context(), userID, days)
	if err != nil {
		appErr := errors.NewPersistenceError("failed to compute history stats", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.metrics.IncrementHistoryRead()

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"stats":   stats,
	})
}

// handleGetReport aggregates a user's history into a filtered, sorted report
func (a *app) handleGetReport(c *gin.Context) {
	userID := c.Param("userId")
	days := queryInt(c, "days", 30)
	category := c.Query("category")
	sortBy := c.DefaultQuery("sort", reports.SortByDate)

	if sortBy != reports.SortByDate && sortBy != reports.SortByScore {
		appErr := errors.NewValidationError("sort must be 'date' or 'score'")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	entries, err := a.repo.ListWindow(c.Request.Context(), userID, days)
	if err != nil {
		appErr := errors.NewPersistenceError("failed to read history", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.metrics.IncrementHistoryRead()

	c.JSON(http.StatusOK, reports.Build(userID, entries, category, sortBy))
}

// handleExportReport serves a report window as a CSV download
func (a *app) handleExportReport(c *gin.Context) {
	userID := c.Param("userId")
	days := queryInt(c, "days", 30)
	category := c.Query("category")
	sortBy := c.DefaultQuery("sort", reports.SortByDate)

	entries, err := a.repo.ListWindow(c.Request.Context(), userID, days)
	if err != nil {
		appErr := errors.NewPersistenceError("failed to read history", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	report := reports.Build(userID, entries, category, sortBy)

	c.Header("Content-Disposition", `attachment; filename="productivity_report.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(reports.ExportCSV(report.Entries)))
}

func (a *app) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"metrics":   a.metrics.GetStats(),
	})
}

func (a *app) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, a.metrics.GetStats())
}

func (a *app) handleCacheStats(c *gin.Context) {
	if a.cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, a.cache.Stats())
}

func (a *app) handleRateLimitStats(c *gin.Context) {
	if a.limiter == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	stats := a.limiter.GetStats()
	stats["blocks"] = a.metrics.GetRateLimitStats()
	c.JSON(http.StatusOK, stats)
}

func (a *app) handleDatabasePoolStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pool":  "database",
		"stats": a.db.GetPoolStats(),
	})
}

// readUpload extracts the "file" part of a multipart upload as a string
func readUpload(c *gin.Context) (string, *errors.AppError) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", errors.NewValidationError("missing file upload", err.Error())
	}

	if fileHeader.Size > maxUploadBytes {
		return "", errors.NewValidationError("file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", errors.NewValidationError("failed to open upload", err.Error())
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", errors.NewValidationError("failed to read upload", err.Error())
	}

	return string(raw), nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
