package cache

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/fake-productivity-detector/internal/monitoring"
)

// quickAnalyzePath is the only endpoint served from cache. Quick analysis
// is pure: identical request bodies always score identically and nothing
// is persisted, so replaying a stored response is safe. The persisting
// analysis endpoints must always execute.
const quickAnalyzePath = "/analyze/quick"

type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// Cache stores serialized responses keyed by a digest of the request body.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// NewCache creates a cache whose entries live for ttl
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
	go c.evictLoop()
	return c
}

// evictLoop drops expired entries once per TTL period
func (c *Cache) evictLoop() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, e := range c.entries {
			if e.expired() {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}

func (c *Cache) keyFor(body []byte) string {
	return fmt.Sprintf("%x", md5.Sum(body))
}

// Get returns the stored response for key if it has not expired
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired() {
		return nil, false
	}
	return e.data, true
}

// Set stores a response under key with the cache's TTL
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	c.entries[key] = entry{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Size returns the number of stored entries, expired ones included
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports cache occupancy for the ops endpoint
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expired := 0
	for _, e := range c.entries {
		if e.expired() {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   len(c.entries),
		"expired_items": expired,
		"active_items":  len(c.entries) - expired,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Middleware replays cached quick-analysis responses and records fresh ones.
// Every other route passes through untouched.
func (c *Cache) Middleware(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || ctx.Request.URL.Path != quickAnalyzePath {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := c.keyFor(body)
		if data, ok := c.Get(key); ok {
			slog.Debug("quick analysis served from cache", "key", key[:8])
			metrics.IncrementCacheHit()
			ctx.Data(http.StatusOK, "application/json", data)
			ctx.Abort()
			return
		}
		metrics.IncrementCacheMiss()

		capture := &captureWriter{ResponseWriter: ctx.Writer, buf: &bytes.Buffer{}}
		ctx.Writer = capture
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			c.Set(key, capture.buf.Bytes())
		}
	}
}

// captureWriter tees the response body so a successful reply can be cached
type captureWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.buf.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
