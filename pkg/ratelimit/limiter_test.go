package ratelimit

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBucket(capacity int, period time.Duration) (*TokenBucket, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tb := NewTokenBucket(capacity, period)
	tb.now = clock.now
	tb.windowStart = clock.t
	return tb, clock
}

func TestTokenBucket(t *testing.T) {
	tb, clock := newTestBucket(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	clock.advance(time.Minute)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after the period")
	}

	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestTokenBucketObserveLowersTokens(t *testing.T) {
	tb, clock := newTestBucket(60, time.Minute)

	tb.Observe(3, 5*time.Minute)
	if got := tb.Remaining(); got != 3 {
		t.Fatalf("Expected 3 tokens after observing server quota, got %d", got)
	}

	// A higher server count never raises the local bucket.
	tb.Observe(100, time.Minute)
	if got := tb.Remaining(); got != 3 {
		t.Errorf("Expected tokens to stay at 3, got %d", got)
	}

	clock.advance(time.Minute)
	if got := tb.Remaining(); got != 60 {
		t.Errorf("Expected full refill, got %d", got)
	}
}

func TestTokenBucketObserveExhaustedHoldsUntilReset(t *testing.T) {
	tb, clock := newTestBucket(60, time.Minute)

	tb.Observe(0, 3*time.Minute)
	if tb.Allow() {
		t.Fatal("Expected bucket to be empty")
	}

	clock.advance(2 * time.Minute)
	if tb.Allow() {
		t.Error("Expected bucket to stay empty before the server reset")
	}

	clock.advance(time.Minute)
	if !tb.Allow() {
		t.Error("Expected bucket to refill at the server reset")
	}
}

func TestTokenBucketWaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("Expected first wait to pass, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestPaced(t *testing.T) {
	p := NewPaced(600, 2) // one every 100ms

	if !p.Allow() || !p.Allow() {
		t.Fatal("Expected the burst to be available")
	}
	if p.Allow() {
		t.Error("Expected the third request to be paced")
	}

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Expected wait to succeed, got %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Expected wait to block until the next slot")
	}

	p.Reset()
	if !p.Allow() {
		t.Error("Expected reset to refill the burst")
	}
}

func TestPacedWaitHonorsContext(t *testing.T) {
	p := NewPaced(1, 1)
	p.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("Expected a cancelled context to stop the wait")
	}
}

func TestLimiterInterface(t *testing.T) {
	var _ Limiter = (*TokenBucket)(nil)
	var _ Limiter = (*Paced)(nil)
}
