// Package retry wraps transient carrier operations in a bounded exponential
// backoff schedule. The delay before attempt n+1 is baseDelay * 2^(n-1);
// randomization is disabled so the schedule is deterministic.
package retry

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/notify"
)

// ExhaustedError is returned when every attempt of an operation failed.
// Err holds the error from the final attempt.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation %s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

// Unwrap returns the error from the final attempt
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Executor runs operations with retries. maxAttempts is the number of
// retries after the initial attempt, so an operation runs at most
// maxAttempts+1 times. A zero maxAttempts means a single attempt.
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
	notifier    notify.FailureNotifier
}

// Option is a functional option for configuring the Executor
type Option func(*Executor)

// WithNotifier sets the sink notified when an operation exhausts its retries
func WithNotifier(notifier notify.FailureNotifier) Option {
	return func(e *Executor) {
		e.notifier = notifier
	}
}

// NewExecutor creates an Executor that retries failed operations up to
// maxAttempts additional times with baseDelay as the first backoff interval.
func NewExecutor(maxAttempts int, baseDelay time.Duration, logger *zap.Logger, opts ...Option) *Executor {
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	executor := &Executor{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Execute runs op until it succeeds or the retry budget is spent. opContext
// is attached to the failure report so operators can identify the affected
// order or store.
func (e *Executor) Execute(ctx context.Context, operation string, opContext map[string]string, op func(ctx context.Context) error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = e.baseDelay
	expo.RandomizationFactor = 0
	expo.Multiplier = 2
	expo.MaxInterval = e.baseDelay * time.Duration(1<<uint(e.maxAttempts))
	expo.MaxElapsedTime = 0

	// maxAttempts retries on top of the initial attempt
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(e.maxAttempts)), ctx)

	attempt := 0
	hadFailure := false

	err := backoff.RetryNotify(
		func() error {
			attempt++
			return op(ctx)
		},
		policy,
		func(err error, next time.Duration) {
			hadFailure = true
			e.logger.Warn("Operation failed, will retry",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Duration("next_delay", next),
				zap.Error(err))
		},
	)

	if err != nil {
		exhausted := &ExhaustedError{Operation: operation, Attempts: attempt, Err: err}
		e.logger.Error("Operation exhausted retries",
			zap.String("operation", operation),
			zap.Int("attempts", attempt),
			zap.Error(err))

		if e.notifier != nil {
			report := notify.FailureReport{
				Operation:  operation,
				Error:      err.Error(),
				Attempts:   attempt,
				Context:    opContext,
				Stack:      string(debug.Stack()),
				OccurredAt: time.Now(),
			}
			if notifyErr := e.notifier.NotifyFailure(ctx, report); notifyErr != nil {
				e.logger.Error("Failed to send failure notification",
					zap.String("operation", operation),
					zap.Error(notifyErr))
			}
		}

		return exhausted
	}

	if hadFailure {
		e.logger.Info("Operation recovered after retry",
			zap.String("operation", operation),
			zap.Int("attempts", attempt))
	}

	return nil
}
