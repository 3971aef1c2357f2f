// Package ratelimit controls the pace of outbound operations such as
// HTTP requests and WebSocket control messages sent to the broker.
//
// It wraps Uber's token bucket limiter behind a small interface so the
// limiting strategy can be swapped or faked in tests. Rate limits are
// expressed as an operation count per interval and may be adjusted at
// runtime.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
)

// Rate describes an allowance of Limit operations per Interval.
// For example {Limit: 120, Interval: time.Minute} permits two
// operations per second on average.
type Rate struct {
	Limit    int
	Interval time.Duration
}

// RateLimiter paces operations according to a configured Rate.
type RateLimiter interface {
	// Wait blocks until an operation is permitted or the context is
	// cancelled. It must be called before each rate-limited operation.
	Wait(ctx context.Context) error

	// SetLimit replaces the current rate configuration. Returns an
	// error if the rate is invalid.
	SetLimit(limit Rate) error
}

// uberLimiter implements RateLimiter on top of go.uber.org/ratelimit.
type uberLimiter struct {
	limiter ratelimit.Limiter
	rate    Rate
}

// NewTokenBucketLimiter creates a token bucket limiter for the given
// rate. The rate is converted to operations per second as required by
// the underlying implementation.
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	rps := float64(rate.Limit) / rate.Interval.Seconds()
	return &uberLimiter{
		limiter: ratelimit.New(int(rps)),
		rate:    rate,
	}
}

// Wait implements the RateLimiter interface.
func (l *uberLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	default:
		l.limiter.Take()
		return nil
	}
}

// SetLimit implements the RateLimiter interface.
func (l *uberLimiter) SetLimit(rate Rate) error {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}
	rps := float64(rate.Limit) / rate.Interval.Seconds()
	l.limiter = ratelimit.New(int(rps))
	l.rate = rate
	return nil
}
