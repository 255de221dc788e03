// Package retry provides exponential backoff and bounded retry for
// transient failures.
//
// The archiver wraps standalone page rendering in Do with a policy built
// from the retry section of the configuration. The Reddit client uses the
// same loop with per-error-type backoff so rate limits wait longer than
// network blips.
//
//	cfg := retry.FromConfig(ctx, appCfg.Retry, log)
//	page, err := retry.DoWithResult(func() (string, error) {
//		return renderer.Page(ctx, item, fragment)
//	}, cfg)
//	if errors.Is(err, retry.ErrExhausted) {
//		// abort the run
//	}
//
// A MaxAttempts of 0 retries until the operation succeeds or the context
// is cancelled.
package retry
