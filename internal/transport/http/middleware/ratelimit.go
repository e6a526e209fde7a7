package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"apicatalog/internal/transport/http/response"
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
}

// NewRateLimiter returns nil when perMinute <= 0, which disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst), lastAccess: now}
		rl.limiters[key] = entry
		rl.evictIdle(now)
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// evictIdle drops buckets not touched within idleTTL. Caller holds mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, e := range rl.limiters {
		if now.Sub(e.lastAccess) > rl.idleTTL {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		if !rl.Allow(c.ClientIP()) {
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
