package ratelimit

import (
	"context"
	"time"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Allow takes a slot if one is free right now.
	Allow() bool
	// Wait blocks until a slot is free or ctx ends.
	Wait(ctx context.Context) error
	Reset()
}

// minPoll bounds how often a blocked Wait re-checks its limiter
const minPoll = 100 * time.Millisecond

// waitFor calls take until it grants a slot, sleeping for the delay take
// suggests in between.
func waitFor(ctx context.Context, take func() (bool, time.Duration)) error {
	for {
		ok, retryIn := take()
		if ok {
			return nil
		}
		if retryIn < minPoll {
			retryIn = minPoll
		}
		t := time.NewTimer(retryIn)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}
