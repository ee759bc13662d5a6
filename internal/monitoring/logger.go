package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new enhanced logger
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// AnalysisLogger logs single-observation analysis details
func (l *Logger) AnalysisLogger(userID string, score float64, category string, usedML, saved bool, duration time.Duration) {
	l.Info("Analysis Completed",
		"user_id", userID,
		"score", score,
		"category", category,
		"used_ml", usedML,
		"saved_to_history", saved,
		"duration_ms", duration.Milliseconds(),
	)
}

// BatchLogger logs CSV batch analysis details
func (l *Logger) BatchLogger(userID string, totalRecords, processed, failed int, duration time.Duration) {
	l.Info("Batch Analysis Completed",
		"user_id", userID,
		"total_records", totalRecords,
		"processed", processed,
		"failed", failed,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// ClassifierLogger logs external classifier calls
func (l *Logger) ClassifierLogger(userID string, duration time.Duration, success bool) {
	if success {
		l.Info("Classifier Call",
			"user_id", userID,
			"duration_ms", duration.Milliseconds(),
			"success", true,
		)
		return
	}
	l.Warn("Classifier Call",
		"user_id", userID,
		"duration_ms", duration.Milliseconds(),
		"success", false,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	keyHash := key
	if len(keyHash) > 8 {
		keyHash = keyHash[:8] + "..."
	}
	l.Debug("Cache Operation",
		"operation", operation,
		"key_hash", keyHash,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	l.Logger = slog.New(handler)
}

var startTime = time.Now()
