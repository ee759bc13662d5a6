package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/adapters"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/analysis"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/auth"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/cache"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/database"
	apperrors "github.com/ZanzyTHEbar/fake-productivity-detector/internal/errors"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/monitoring"
	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/ratelimit"
)

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	jwtSecret := getEnvOrDefault("JWT_SECRET", "your-super-secret-jwt-key-change-in-production")
	port := getEnvOrDefault("PORT", "8080")
	classifierURL := os.Getenv("CLASSIFIER_URL")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvIntOrDefault("REDIS_DB", 0)
	corsOrigins := splitCommaList(os.Getenv("CORS_ORIGINS"))

	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer apperrors.SafeClose(db, "database")

	repo := database.NewRepository(db)

	// Optional external ML classifier
	var classifier analysis.Classifier
	if classifierURL != "" {
		classifier = adapters.NewHTTPClassifier(classifierURL)
		slog.Info("External classifier configured", "url", classifierURL)
	} else {
		slog.Info("No classifier configured, ML classification disabled")
	}

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	service := analysis.NewService(classifier, repo, appMetrics, appLogger.Logger)
	batch := analysis.NewBatchService(service)

	sessions := auth.NewSessionService(jwtSecret)

	// Rate limiting: Redis when configured, in-memory fallback otherwise
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	// Response cache for the pure quick-analysis endpoint (15 minutes TTL)
	appCache := cache.NewCache(15 * time.Minute)

	application := &app{
		db:       db,
		repo:     repo,
		service:  service,
		batch:    batch,
		sessions: sessions,
		limiter:  limiter,
		cache:    appCache,
		metrics:  appMetrics,
		logger:   appLogger,
		cors:     corsOrigins,
	}

	r := application.setupRouter()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apperrors.SafeClose(redisClient, "redis client")

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func splitCommaList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
