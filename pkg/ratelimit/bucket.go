package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket grants capacity requests per period. The whole bucket
// refills at once when a period has elapsed since windowStart.
type TokenBucket struct {
	mu          sync.Mutex
	capacity    int
	tokens      int
	period      time.Duration
	windowStart time.Time
	now         func() time.Time
}

// NewTokenBucket returns a full bucket
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:    capacity,
		tokens:      capacity,
		period:      period,
		windowStart: time.Now(),
		now:         time.Now,
	}
}

// PerMinute returns a bucket allowing n requests per minute
func PerMinute(n int) *TokenBucket {
	return NewTokenBucket(n, time.Minute)
}

func (tb *TokenBucket) Allow() bool {
	ok, _ := tb.take()
	return ok
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return waitFor(ctx, tb.take)
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens = tb.capacity
	tb.windowStart = tb.now()
}

// Observe reconciles the bucket with Reddit's X-Ratelimit-Remaining and
// X-Ratelimit-Reset headers. The bucket never holds more tokens than the
// server has left, and an exhausted server quota keeps it empty until
// reset has passed.
func (tb *TokenBucket) Observe(remaining int, reset time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	tb.tokens = max(min(tb.tokens, remaining), 0)
	if remaining <= 0 && reset > 0 {
		tb.windowStart = tb.now().Add(reset - tb.period)
	}
}

// Remaining returns the tokens currently available
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

func (tb *TokenBucket) take() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}
	return false, tb.windowStart.Add(tb.period).Sub(tb.now())
}

func (tb *TokenBucket) refill() {
	if now := tb.now(); now.Sub(tb.windowStart) >= tb.period {
		tb.tokens = tb.capacity
		tb.windowStart = now
	}
}
