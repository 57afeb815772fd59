// Package ratelimit paces Discord API requests using the X-RateLimit response
// headers. It never retries a request; callers see 429s as errors.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBurst is the burst allowed by the process-wide limiter
const DefaultBurst = 10

// Bucket tracks the rate limit window of one route
type Bucket struct {
	Remaining int       // Requests remaining in current window, -1 when unknown
	Limit     int       // Total requests allowed per window, 0 when unknown
	ResetAt   time.Time // When the window resets
	mu        sync.Mutex
}

// Status is a snapshot of a route bucket
type Status struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
	Exhausted bool
}

// RateLimiter combines a global token bucket with per-route windows
type RateLimiter struct {
	global  *rate.Limiter
	buckets map[string]*Bucket // route -> bucket
	mu      sync.RWMutex
	logger  *zap.Logger
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests globally
func NewRateLimiter(perSecond int, logger *zap.Logger) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 50
	}
	return &RateLimiter{
		global:  rate.NewLimiter(rate.Limit(perSecond), DefaultBurst),
		buckets: make(map[string]*Bucket),
		logger:  logger,
		now:     time.Now,
	}
}

// getBucket retrieves or creates a bucket for a route
func (rl *RateLimiter) getBucket(route string) *Bucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[route]
	rl.mu.RUnlock()
	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, exists := rl.buckets[route]; exists {
		return bucket
	}
	bucket = &Bucket{Remaining: -1}
	rl.buckets[route] = bucket
	return bucket
}

// Wait blocks while the route window is exhausted, then takes a global token.
// It returns early with the context error when ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, route string) error {
	bucket := rl.getBucket(route)

	bucket.mu.Lock()
	var waitDuration time.Duration
	now := rl.now()
	if bucket.Remaining == 0 && now.Before(bucket.ResetAt) {
		waitDuration = bucket.ResetAt.Sub(now)
	}
	bucket.mu.Unlock()

	if waitDuration > 0 {
		rl.logger.Warn("Rate limit exhausted, waiting",
			zap.String("route", route),
			zap.Duration("wait_duration", waitDuration),
		)
		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := rl.global.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if bucket.Limit > 0 && !rl.now().Before(bucket.ResetAt) {
		// Window rolled over since the last response; assume it refilled.
		bucket.Remaining = bucket.Limit
	}
	if bucket.Remaining > 0 {
		bucket.Remaining--
	}
	return nil
}

// UpdateFromHeaders updates the route bucket from Discord response headers
func (rl *RateLimiter) UpdateFromHeaders(route string, headers http.Header) {
	limit := headers.Get("X-RateLimit-Limit")
	remaining := headers.Get("X-RateLimit-Remaining")
	if limit == "" && remaining == "" {
		return
	}

	bucket := rl.getBucket(route)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if val, err := strconv.Atoi(remaining); err == nil {
		bucket.Remaining = val
	}
	if val, err := strconv.Atoi(limit); err == nil {
		bucket.Limit = val
	}

	// Reset-After is relative and immune to clock skew, so prefer it
	if secs, ok := parseSeconds(headers.Get("X-RateLimit-Reset-After")); ok {
		bucket.ResetAt = rl.now().Add(secs)
	} else if epoch, err := strconv.ParseFloat(headers.Get("X-RateLimit-Reset"), 64); err == nil {
		sec, frac := math.Modf(epoch)
		bucket.ResetAt = time.Unix(int64(sec), int64(frac*1e9))
	}

	rl.logger.Debug("Updated rate limit from headers",
		zap.String("route", route),
		zap.Int("remaining", bucket.Remaining),
		zap.Int("limit", bucket.Limit),
		zap.Time("reset_at", bucket.ResetAt),
	)
}

// Observe429 marks the route exhausted until retryAfter has elapsed
func (rl *RateLimiter) Observe429(route string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = time.Second
	}

	bucket := rl.getBucket(route)

	bucket.mu.Lock()
	bucket.Remaining = 0
	bucket.ResetAt = rl.now().Add(retryAfter)
	bucket.mu.Unlock()

	rl.logger.Warn("Rate limited by Discord API",
		zap.String("route", route),
		zap.Duration("retry_after", retryAfter),
	)
}

// Status returns the current state of a route bucket
func (rl *RateLimiter) Status(route string) Status {
	bucket := rl.getBucket(route)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	return Status{
		Remaining: bucket.Remaining,
		Limit:     bucket.Limit,
		ResetAt:   bucket.ResetAt,
		Exhausted: bucket.Remaining == 0 && rl.now().Before(bucket.ResetAt),
	}
}

// Reset clears all route buckets
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.buckets = make(map[string]*Bucket)
	rl.logger.Debug("Rate limiter reset")
}

// ParseRetryAfter reads a Retry-After style value in (possibly fractional)
// seconds
func ParseRetryAfter(value string) (time.Duration, bool) {
	return parseSeconds(value)
}

func parseSeconds(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}
