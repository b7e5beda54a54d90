package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	apperrors "reel-digest/internal/app/errors"
)

// Policy bounds the attempts and spacing of a retried operation.
type Policy struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultPolicy is three attempts with exponential backoff starting at 1s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         3,
		InitialInterval:     time.Second,
		MaxInterval:         8 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.2,
	}
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Multiplier = p.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = p.RandomizationFactor
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

// Observer is told about every failed attempt that will be retried.
type Observer func(op string, attempt int, err error)

// Retrier runs operations under a Policy. Only errors classified as
// retriable by apperrors.IsRetriable are attempted again.
type Retrier struct {
	policy   Policy
	logger   *zap.Logger
	observer Observer
}

// New creates a Retrier. A nil logger disables retry logging.
func New(policy Policy, logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{policy: policy, logger: logger}
}

// WithObserver returns a copy of r that reports retries to fn.
func (r *Retrier) WithObserver(fn Observer) *Retrier {
	clone := *r
	clone.observer = fn
	return &clone
}

// Policy returns the policy the retrier was built with.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs fn until it succeeds, returns a non-retriable error, the attempts
// are exhausted or ctx is done. The returned error keeps the classification
// of the last attempt.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	attempt := 0

	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !apperrors.IsRetriable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("retrying operation",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if r.observer != nil {
			r.observer(op, attempt, err)
		}
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(r.policy.backOff(), ctx), notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if lastErr != nil {
			return lastErr
		}
		return apperrors.Transient(err, op)
	}
	return err
}
