package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "redditarchive/pkg/errors"
)

// Backoff maps a failed attempt (counted from 1) to the pause before the
// next one.
type Backoff interface {
	Next(attempt int) time.Duration
}

// ExponentialBackoff waits Base, then Base*Multiplier, and so on up to Cap.
// Jitter spreads each wait by up to that fraction in either direction.
type ExponentialBackoff struct {
	Base       time.Duration
	Cap        time.Duration
	Multiplier float64
	Jitter     float64
}

// DefaultExponentialBackoff starts at one second and stops growing at a minute
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		Base:       time.Second,
		Cap:        time.Minute,
		Multiplier: 2,
		Jitter:     0.1,
	}
}

func (b *ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := float64(b.Base) * math.Pow(b.Multiplier, float64(attempt-1))
	if b.Cap > 0 {
		d = math.Min(d, float64(b.Cap))
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(math.Max(d, 0))
}

// ConstantBackoff always waits Delay
type ConstantBackoff struct {
	Delay time.Duration
}

func (b *ConstantBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Delay
}

// ByErrorType chooses a schedule from the type of a classified API error.
// Types without an entry fall back to Fallback.
type ByErrorType struct {
	Types    map[errs.ErrorType]Backoff
	Fallback Backoff
}

// APIBackoff is the schedule the Reddit client retries with
func APIBackoff() *ByErrorType {
	return &ByErrorType{
		Types: map[errs.ErrorType]Backoff{
			errs.ErrorTypeNetwork: &ExponentialBackoff{
				Base: time.Second, Cap: 30 * time.Second, Multiplier: 2, Jitter: 0.2,
			},
			// Reddit resets its quota every ten minutes.
			errs.ErrorTypeRateLimit: &ExponentialBackoff{
				Base: 30 * time.Second, Cap: 10 * time.Minute, Multiplier: 2, Jitter: 0.3,
			},
			errs.ErrorTypeServerError: &ExponentialBackoff{
				Base: 5 * time.Second, Cap: time.Minute, Multiplier: 2, Jitter: 0.1,
			},
		},
		Fallback: DefaultExponentialBackoff(),
	}
}

// For returns the schedule for t
func (b *ByErrorType) For(t errs.ErrorType) Backoff {
	if bo, ok := b.Types[t]; ok {
		return bo
	}
	return b.Fallback
}

// Wait blocks for delay or until ctx is done, whichever comes first
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
