package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
)

// RateLimiter is a token bucket.
type RateLimiter struct {
	tokens     int
	maxTokens  int
	lastRefill time.Time
	refillRate time.Duration
	mu         sync.Mutex
}

// NewRateLimiter creates a bucket holding maxTokens, refilling one token
// every refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		lastRefill: time.Now(),
		refillRate: refillRate,
	}
}

// Allow consumes a token when one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)

	if elapsed >= rl.refillRate {
		tokensToAdd := int(elapsed / rl.refillRate)
		if rl.tokens+tokensToAdd > rl.maxTokens {
			rl.tokens = rl.maxTokens
		} else {
			rl.tokens += tokensToAdd
		}
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	return false
}

// RateLimit limits requests per authenticated user. Requests without an
// identity (before RequireUser) fall back to the client IP.
func RateLimit(maxTokens int, refillRate time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*RateLimiter)

	return func(c *gin.Context) {
		key := c.GetHeader(UserIDHeader)
		if key == "" {
			key = c.ClientIP()
		}

		mu.Lock()
		limiter, ok := limiters[key]
		if !ok {
			limiter = NewRateLimiter(maxTokens, refillRate)
			limiters[key] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			appErr := apperrors.NewAppError(apperrors.ErrorTypeValidation, "RATE_LIMITED", "too many requests")
			appErr.HTTPStatus = http.StatusTooManyRequests
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr})
			return
		}

		c.Next()
	}
}
