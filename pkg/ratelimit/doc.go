// Package ratelimit keeps the archiver inside Reddit's API quota.
//
// The Reddit client takes one token from a TokenBucket before every API
// call and feeds the X-Ratelimit-* response headers back through Observe,
// so a bucket configured more generously than the account's real quota
// still backs off in time. Media downloads from third-party hosts are
// spaced out by Paced.
//
//	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
