package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Paced spreads requests evenly over time, allowing short bursts. It is
// used for third-party media hosts, which publish no quota headers.
type Paced struct {
	mu    sync.Mutex
	every time.Duration
	burst int
	lim   *rate.Limiter
}

// NewPaced allows perMinute requests a minute, at most burst at once
func NewPaced(perMinute, burst int) *Paced {
	p := &Paced{every: time.Minute / time.Duration(max(perMinute, 1)), burst: max(burst, 1)}
	p.lim = p.fresh()
	return p
}

func (p *Paced) fresh() *rate.Limiter {
	return rate.NewLimiter(rate.Every(p.every), p.burst)
}

func (p *Paced) limiter() *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lim
}

func (p *Paced) Allow() bool {
	return p.limiter().Allow()
}

func (p *Paced) Wait(ctx context.Context) error {
	return p.limiter().Wait(ctx)
}

// Reset refills the burst
func (p *Paced) Reset() {
	p.mu.Lock()
	p.lim = p.fresh()
	p.mu.Unlock()
}
