package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"redditarchive/pkg/config"
	errs "redditarchive/pkg/errors"
	"redditarchive/pkg/logger"
)

// ErrExhausted is matched by errors.Is for every *ExhaustedError
var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError is the terminal state of a bounded retry. Unwrap yields
// the failure of the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Operation is one attempt of a retried call
type Operation func() error

// OperationWithResult is an attempt that also yields a value
type OperationWithResult[T any] func() (T, error)

// Config controls a retry loop. The zero value retries forever without
// pausing.
type Config struct {
	// MaxAttempts bounds the number of calls; 0 means unbounded.
	MaxAttempts int
	Backoff     Backoff
	// PerErrorType overrides Backoff for classified API errors.
	PerErrorType *ByErrorType
	RetryIf      func(error) bool
	// OnRetry runs before each pause.
	OnRetry func(attempt int, err error, delay time.Duration)
	Context context.Context
	Logger  logger.Logger
}

// DefaultConfig tries three times with the default exponential schedule
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// FromConfig builds a retry configuration from the retry settings section
func FromConfig(ctx context.Context, rc config.RetryConfig, log logger.Logger) *Config {
	return &Config{
		MaxAttempts: rc.MaxAttempts,
		Backoff: &ExponentialBackoff{
			Base:       rc.InitialBackoff,
			Cap:        rc.MaxBackoff,
			Multiplier: rc.Multiplier,
			Jitter:     rc.JitterFactor,
		},
		RetryIf: DefaultRetryIf,
		Context: ctx,
		Logger:  log,
	}
}

// DefaultRetryIf retries classified errors whose type is transient and any
// unclassified error other than cancellation.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}
	return true
}

// Do calls op until it succeeds, returns an error RetryIf rejects, the
// context ends, or MaxAttempts calls have failed. In the last case the
// result is an *ExhaustedError.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	for attempt := 1; ; attempt++ {
		err := op()
		switch {
		case err == nil:
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		case !retryIf(err):
			log.DebugWithFields("error is not retryable", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		case cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts:
			log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt,
				"last_error": err.Error(),
			})
			return &ExhaustedError{Attempts: attempt, Last: err}
		}

		delay := cfg.delayFor(attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": cfg.MaxAttempts,
		})

		if werr := Wait(ctx, delay); werr != nil {
			log.WarnWithFields("retry cancelled", map[string]interface{}{
				"attempt": attempt,
				"reason":  werr.Error(),
			})
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}

func (cfg *Config) delayFor(attempt int, err error) time.Duration {
	var apiErr *errs.Error
	if cfg.PerErrorType != nil && errors.As(err, &apiErr) {
		if b := cfg.PerErrorType.For(apiErr.Type); b != nil {
			return b.Next(attempt)
		}
	}
	if cfg.Backoff == nil {
		return 0
	}
	return cfg.Backoff.Next(attempt)
}

// DoWithResult is Do for operations that produce a value. The value from
// the last attempt is returned alongside any error.
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T
	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)
	return result, err
}
