package retry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Defaults applied when a Config carries non-positive values
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second
)

// transientMarkers are matched case-insensitively against error messages.
var transientMarkers = []string{
	"service unavailable",
	"unavailable",
	"overloaded",
	"503",
	"try again later",
}

// Classifier decides whether an error is worth retrying.
type Classifier func(err error) bool

// Observer is notified before each backoff sleep. attempt is 1-based and
// names the attempt that just failed.
type Observer func(attempt int, delay time.Duration, err error)

// Config holds the tunable parts of the retry policy
type Config struct {
	// MaxAttempts is the total number of calls, including the first one
	MaxAttempts int

	// InitialDelay is the sleep after the first transient failure; it
	// doubles after every subsequent one
	InitialDelay time.Duration
}

// Retrier applies the classification-then-backoff policy to operations.
// A Retrier is safe for concurrent use; every Do call builds its own
// backoff state.
type Retrier struct {
	maxAttempts  int
	initialDelay time.Duration
	classify     Classifier
	observe      Observer
	logger       *slog.Logger
}

// Option customises a Retrier
type Option func(*Retrier)

// WithClassifier replaces the default marker-based classifier.
func WithClassifier(c Classifier) Option {
	return func(r *Retrier) {
		if c != nil {
			r.classify = c
		}
	}
}

// WithObserver registers a hook called before every backoff sleep.
func WithObserver(o Observer) Option {
	return func(r *Retrier) {
		r.observe = o
	}
}

// New creates a Retrier from cfg. Non-positive values fall back to the
// package defaults with a warning.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		logger.Warn("invalid max attempts, using default",
			"specified", cfg.MaxAttempts,
			"default", DefaultMaxAttempts)
		maxAttempts = DefaultMaxAttempts
	}

	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		logger.Warn("invalid initial delay, using default",
			"specified", cfg.InitialDelay,
			"default", DefaultInitialDelay)
		initialDelay = DefaultInitialDelay
	}

	r := &Retrier{
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		classify:     IsTransient,
		logger:       logger.With("component", "retrier"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the configured attempt budget.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// InitialDelay returns the configured first backoff delay.
func (r *Retrier) InitialDelay() time.Duration {
	return r.initialDelay
}

// Do invokes op up to the retrier's attempt budget. Transient failures are
// retried after an exponentially growing delay; any other failure is
// returned immediately and unmodified. When the budget is exhausted the
// last error is returned unmodified. Cancelling ctx aborts a pending sleep
// and returns the context error.
func Do[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result  T
		lastErr error
		attempt int
	)

	backoff := goretry.WithMaxRetries(
		uint64(r.maxAttempts-1),
		goretry.NewExponential(r.initialDelay),
	)
	backoff = r.observed(backoff, &attempt, &lastErr)

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}

		lastErr = err
		if !r.classify(err) {
			if attempt > 1 {
				r.logger.DebugContext(ctx, "permanent error after retries, giving up",
					"attempt", attempt,
					"error", err)
			}
			return err
		}
		return goretry.RetryableError(err)
	})
	if err == nil {
		return result, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return zero, err
	}
	if lastErr != nil {
		if r.classify(lastErr) {
			r.logger.WarnContext(ctx, "retry attempts exhausted",
				"attempts", attempt,
				"error", lastErr)
		}
		return zero, lastErr
	}
	return zero, err
}

// observed wraps b so that every scheduled sleep is logged and reported to
// the observer hook.
func (r *Retrier) observed(b goretry.Backoff, attempt *int, lastErr *error) goretry.Backoff {
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := b.Next()
		if stop {
			return delay, stop
		}

		r.logger.Info("transient upstream failure, retrying after delay",
			"attempt", *attempt,
			"max_attempts", r.maxAttempts,
			"delay", delay,
			"error", *lastErr)
		if r.observe != nil {
			r.observe(*attempt, delay, *lastErr)
		}
		return delay, stop
	})
}

// IsTransient reports whether err looks like transient upstream overload,
// based on its message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
