package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/model"
)

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
	Multiplier  float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns sensible defaults for completion retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryConfigFromModel converts model.RetryConfig to a RetryConfig
func RetryConfigFromModel(cfg model.RetryConfig) RetryConfig {
	rc := RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		Multiplier:  cfg.Multiplier,
	}
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = 1
	}
	if rc.Multiplier < 1 {
		rc.Multiplier = 1
	}
	return rc
}

// retrySleep waits for d or until ctx is done; replaced in tests
var retrySleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryWithBackoff executes fn until it succeeds, shouldRetry rejects the
// error, or attempts run out. Retry is skipped on context cancellation.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, shouldRetry func(error) bool, fn func(attempt int) (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !shouldRetry(err) || attempt == config.MaxAttempts {
			break
		}

		if err := retrySleep(ctx, backoff); err != nil {
			return zero, err
		}
		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if config.MaxDelay > 0 && backoff > config.MaxDelay {
			backoff = config.MaxDelay
		}
	}

	return zero, lastErr
}

// RetryingService retries transient completion failures with exponential backoff
type RetryingService struct {
	next   CompletionService
	config RetryConfig
	logger *zap.Logger
}

// NewRetryingService wraps next with retry
func NewRetryingService(next CompletionService, config RetryConfig, logger *zap.Logger) *RetryingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &RetryingService{next: next, config: config, logger: logger}
}

// Complete implements CompletionService
func (s *RetryingService) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return retryWithBackoff(ctx, s.config, IsRetryable, func(attempt int) (*Completion, error) {
		resp, err := s.next.Complete(ctx, req)
		if err != nil && attempt < s.config.MaxAttempts && IsRetryable(err) {
			s.logger.Warn("completion failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", s.config.MaxAttempts),
				zap.Error(err),
			)
		}
		return resp, err
	})
}
