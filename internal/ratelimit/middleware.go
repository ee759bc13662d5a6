package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/fake-productivity-detector/internal/errors"
)

// analysisEndpoints are the endpoints covered by the per-user daily quota
var analysisEndpoints = map[string]bool{
	"/analyze":       true,
	"/analyze/quick": true,
	"/upload-csv":    true,
}

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		result, err := rl.AllowIP(ctx, ip)
		if err != nil {
			// Never block a request on rate limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}

			retryAfter := int(result.RetryAfter.Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			appErr := apperrors.NewRateLimitError(strconv.Itoa(retryAfter))
			c.JSON(appErr.HTTPStatus, gin.H{
				"error":       appErr.Error(),
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per minute", result.Limit),
				"retry_after": retryAfter,
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserRateLimitMiddleware enforces the per-user daily analysis quota
func (rl *RateLimiter) UserRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !analysisEndpoints[c.Request.URL.Path] {
			c.Next()
			return
		}

		// Set by the session middleware when a bearer token is present
		userID, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}

		userIDStr, ok := userID.(string)
		if !ok || userIDStr == "" {
			slog.Warn("Invalid user ID type in context")
			c.Next()
			return
		}

		ctx := c.Request.Context()

		result, err := rl.AllowUser(ctx, userIDStr)
		if err != nil {
			slog.Error("User rate limit check failed", "user_id", userIDStr, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-User-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-User-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-User-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitUserBlock()
			}

			retryAfter := int(result.RetryAfter.Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			appErr := apperrors.NewRateLimitError(strconv.Itoa(retryAfter))
			c.JSON(appErr.HTTPStatus, gin.H{
				"error":       appErr.Error(),
				"message":     fmt.Sprintf("You have used all %d analyses for today", result.Limit),
				"reset_at":    result.ResetAt.Unix(),
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
