package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"redditarchive/pkg/config"
	errs "redditarchive/pkg/errors"
	"redditarchive/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		Base:       100 * time.Millisecond,
		Cap:        time.Second,
		Multiplier: 2,
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{0, 0, "No attempt"},
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.Next(test.attempt); delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		Base:       100 * time.Millisecond,
		Cap:        time.Second,
		Multiplier: 2,
		Jitter:     0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.Next(2)
		if delay < 140*time.Millisecond || delay > 260*time.Millisecond {
			t.Fatalf("delay %v outside jitter window", delay)
		}
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustedIsTyped(t *testing.T) {
	attempts := 0
	persistent := errors.New("persistent error")
	op := func() error {
		attempts++
		return persistent
	}

	var retries []int
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		OnRetry:     func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, persistent) {
		t.Error("Expected exhausted error to wrap the last failure")
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Errorf("Expected *ExhaustedError with 3 attempts, got %#v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(retries) != 2 {
		t.Errorf("Expected no wait after the final attempt, got retries %v", retries)
	}
}

func TestRetryUnlimitedAttempts(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 20 {
			return errors.New("still failing")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 0,
		Backoff:     &ConstantBackoff{},
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Fatalf("Expected eventual success, got %v", err)
	}
	if attempts != 20 {
		t.Errorf("Expected 20 attempts, got %d", attempts)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := &errs.Error{
		Type:    errs.ErrorTypeAuth,
		Message: "authentication required",
		Code:    401,
	}

	op := func() error {
		attempts++
		return authError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != authError {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for auth error), got %d", attempts)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation error, got %v", err)
	}
	if errors.Is(err, ErrExhausted) {
		t.Error("Cancellation must not be reported as exhaustion")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts before cancellation, got %d", attempts)
	}
}

func TestRetryLogsEachFailure(t *testing.T) {
	log := logger.NewTestLogger()
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{},
		Context:     context.Background(),
		Logger:      log,
	}

	_ = Do(func() error { return errors.New("render failed") }, cfg)

	if n := log.CountMessage("retrying operation"); n != 2 {
		t.Errorf("Expected 2 retry warnings, got %d", n)
	}
	if !log.HasMessage("max retry attempts exceeded") {
		t.Error("Expected exhaustion to be logged")
	}
}

func TestAPIBackoff(t *testing.T) {
	b := APIBackoff()

	network, ok := b.For(errs.ErrorTypeNetwork).(*ExponentialBackoff)
	if !ok || network.Base != time.Second {
		t.Errorf("Expected 1s exponential network backoff, got %#v", b.For(errs.ErrorTypeNetwork))
	}

	rateLimit, ok := b.For(errs.ErrorTypeRateLimit).(*ExponentialBackoff)
	if !ok || rateLimit.Base != 30*time.Second {
		t.Errorf("Expected 30s exponential rate limit backoff, got %#v", b.For(errs.ErrorTypeRateLimit))
	}

	if b.For(errs.ErrorTypeUnknown) != b.Fallback {
		t.Error("Expected fallback for unknown errors")
	}
}

func TestPerErrorTypeDelay(t *testing.T) {
	cfg := &Config{
		Backoff: &ConstantBackoff{Delay: time.Millisecond},
		PerErrorType: &ByErrorType{
			Types:    map[errs.ErrorType]Backoff{errs.ErrorTypeRateLimit: &ConstantBackoff{Delay: time.Minute}},
			Fallback: &ConstantBackoff{Delay: time.Second},
		},
	}

	if d := cfg.delayFor(1, &errs.Error{Type: errs.ErrorTypeRateLimit}); d != time.Minute {
		t.Errorf("Expected rate limit delay, got %v", d)
	}
	if d := cfg.delayFor(1, &errs.Error{Type: errs.ErrorTypeServerError}); d != time.Second {
		t.Errorf("Expected fallback delay for unmapped types, got %v", d)
	}
	if d := cfg.delayFor(1, errors.New("plain")); d != time.Millisecond {
		t.Errorf("Expected base backoff for untyped errors, got %v", d)
	}
}

func TestWaitHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation without a delay, got %v", err)
	}
	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation to cut the wait short, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	rc := config.DefaultConfig().Retry
	cfg := FromConfig(context.Background(), rc, logger.NewNopLogger())

	if cfg.MaxAttempts != rc.MaxAttempts {
		t.Errorf("Expected %d attempts, got %d", rc.MaxAttempts, cfg.MaxAttempts)
	}
	eb, ok := cfg.Backoff.(*ExponentialBackoff)
	if !ok || eb.Base != rc.InitialBackoff || eb.Cap != rc.MaxBackoff {
		t.Errorf("Unexpected backoff %#v", cfg.Backoff)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}
