package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	maxTrackedClients = 1000
	clientTTL         = 5 * time.Minute
)

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
}

// RateLimit gives each client IP its own token bucket. Buckets of idle
// clients expire from the table.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	limiters := expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientTTL)
	var mu sync.Mutex
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(limit, burst)
			limiters.Add(ip, limiter)
		}
		return limiter
	}

	return func(c *gin.Context) {
		limiter := limiterFor(c.ClientIP())

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
