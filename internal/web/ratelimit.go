package web

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"warpgen/internal/api"
)

// Rate limit defaults, per client IP per window.
const (
	rateWindow        = time.Minute
	generalRateLimit  = 120
	generateRateLimit = 20
)

// RateLimiter enforces a sliding-window request budget per client IP.
// Safe for concurrent use.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	history map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it fits the budget,
// the budget left afterwards, and how long until the next slot frees up.
func (rl *RateLimiter) Allow(key string) (ok bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.history[key][:0]
	for _, at := range rl.history[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= rl.limit {
		rl.history[key] = kept
		// The oldest kept request leaves the window first.
		return false, 0, kept[0].Sub(cutoff)
	}

	kept = append(kept, now)
	rl.history[key] = kept
	return true, rl.limit - len(kept), 0
}

// Middleware rejects requests over budget with 429 and advertises the
// budget on every response.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining, retryAfter := rl.Allow(api.ClientIP(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Window", strconv.Itoa(int(rl.window.Seconds())))

		if !ok {
			seconds := int(retryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.JSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
