// Package clients provides rate limiting implementations
package clients

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// RateLimiter defines the interface for rate limiting implementations
type RateLimiter interface {
	// Allow checks if a request is allowed now
	Allow() bool

	// Wait blocks until a request is allowed or ctx ends
	Wait(ctx context.Context) error

	// GetStats returns rate limiter statistics
	GetStats() RateLimiterStats
}

// RateLimiterStats provides statistics about rate limiter state
type RateLimiterStats struct {
	Rate            float64       `json:"rate"`
	Burst           int           `json:"burst"`
	AllowedRequests int64         `json:"allowed_requests"`
	BlockedRequests int64         `json:"blocked_requests"`
	TotalWaitTime   time.Duration `json:"total_wait_time"`
}

// TokenBucketRateLimiter is a token bucket backed by golang.org/x/time/rate
type TokenBucketRateLimiter struct {
	limiter *rate.Limiter

	allowedRequests int64
	blockedRequests int64
	totalWaitTime   int64
}

// NewRateLimiter creates a rate limiter allowing perSecond requests per
// second with bursts of up to burst requests
func NewRateLimiter(perSecond float64, burst int) *TokenBucketRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucketRateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow checks if a request is allowed immediately
func (tb *TokenBucketRateLimiter) Allow() bool {
	if tb.limiter.Allow() {
		atomic.AddInt64(&tb.allowedRequests, 1)
		return true
	}
	atomic.AddInt64(&tb.blockedRequests, 1)
	return false
}

// Wait blocks until a request is allowed
func (tb *TokenBucketRateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := tb.limiter.Wait(ctx); err != nil {
		atomic.AddInt64(&tb.blockedRequests, 1)
		errType := errors.ErrorTypeRateLimit
		if ctx.Err() != nil {
			errType = errors.ErrorTypeCanceled
		}
		return errors.Wrap(err, errType, "rate limiter wait aborted")
	}
	atomic.AddInt64(&tb.allowedRequests, 1)
	atomic.AddInt64(&tb.totalWaitTime, int64(time.Since(start)))
	return nil
}

// GetStats returns rate limiter statistics
func (tb *TokenBucketRateLimiter) GetStats() RateLimiterStats {
	return RateLimiterStats{
		Rate:            float64(tb.limiter.Limit()),
		Burst:           tb.limiter.Burst(),
		AllowedRequests: atomic.LoadInt64(&tb.allowedRequests),
		BlockedRequests: atomic.LoadInt64(&tb.blockedRequests),
		TotalWaitTime:   time.Duration(atomic.LoadInt64(&tb.totalWaitTime)),
	}
}
