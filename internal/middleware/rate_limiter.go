package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type window struct {
	count int
	start time.Time
}

// RateLimiter is a fixed-window in-memory limiter, used to cap webhook
// deliveries per client. Windows live in a plain map; Cleanup reclaims
// expired ones.
type RateLimiter struct {
	maxRequests int
	interval    time.Duration
	mu          sync.Mutex
	windows     map[string]*window
}

func NewRateLimiter(maxRequests int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		interval:    interval,
		windows:     make(map[string]*window),
	}
}

// Allow reports whether key may proceed and increments its counter. When
// blocked, retryAfter says how long until the window resets.
func (rl *RateLimiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, exists := rl.windows[key]

	if !exists || now.Sub(w.start) >= rl.interval {
		rl.windows[key] = &window{count: 1, start: now}
		return true, 0
	}

	if w.count >= rl.maxRequests {
		return false, rl.interval - now.Sub(w.start)
	}

	w.count++
	return true, 0
}

// Cleanup removes expired windows and returns how many were dropped.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.interval {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// RateLimit returns a Gin middleware enforcing rl per client IP.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := rl.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":      429,
				"message":   "Too many requests, please try again later",
				"timestamp": time.Now(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
