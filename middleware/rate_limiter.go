package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per client in fixed windows. Clients are keyed
// by user id when the request carries one, by IP otherwise.
type RateLimiter struct {
	mu           sync.Mutex
	requestCount map[string]int
	windowStart  time.Time
	limit        int
	window       time.Duration
	now          func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requestCount: make(map[string]int),
		limit:        limit,
		window:       window,
		now:          time.Now,
	}
}

func clientKey(c *gin.Context) string {
	if userID := c.GetHeader(UserIDHeader); userID != "" {
		return "user:" + userID
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		ip = c.ClientIP()
	}
	return "ip:" + ip
}

// Allow records one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.windowStart) >= rl.window {
		rl.requestCount = make(map[string]int)
		rl.windowStart = now
	}
	rl.requestCount[key]++
	return rl.requestCount[key] <= rl.limit
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(clientKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too Many Requests",
				"message": "Rate limit exceeded. Please wait before making more requests.",
			})
			return
		}
		c.Next()
	}
}

// Global rate limiter instances for different endpoints
var (
	GlobalRateLimiter = NewRateLimiter(100, 1*time.Minute) // 100 requests per minute
	StrictRateLimiter = NewRateLimiter(10, 1*time.Minute)  // 10 requests per minute for analysis calls
)
