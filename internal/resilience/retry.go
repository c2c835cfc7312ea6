// Package resilience retries store writes that fail for transient reasons.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy bounds how a store write is retried.
type Policy struct {
	// Attempts is the number of tries without progress before giving up.
	// 1 disables retries.
	Attempts int
	// Backoff is the delay before the first retry. It doubles on each
	// consecutive retry up to MaxBackoff, with ±25% jitter.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

const (
	defaultAttempts   = 3
	defaultBackoff    = 200 * time.Millisecond
	defaultMaxBackoff = 5 * time.Second
	jitterFraction    = 0.25
)

// DefaultPolicy is used when the store is opened without configuration.
func DefaultPolicy() Policy {
	return Policy{Attempts: defaultAttempts, Backoff: defaultBackoff, MaxBackoff: defaultMaxBackoff}
}

// NewPolicy builds a policy from the configured attempt count and initial
// backoff. Zero values fall back to the defaults.
func NewPolicy(attempts int, backoff time.Duration) Policy {
	return Policy{Attempts: attempts, Backoff: backoff, MaxBackoff: defaultMaxBackoff}.normalized()
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = defaultAttempts
	}
	if p.Backoff <= 0 {
		p.Backoff = defaultBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = p.Backoff
	}
	return p
}

// delay returns the wait before the retry that follows the given number of
// consecutive failures.
func (p Policy) delay(failures int) time.Duration {
	d := p.Backoff
	for i := 1; i < failures && d < p.MaxBackoff; i++ {
		d *= 2
	}
	d = min(d, p.MaxBackoff)
	jitter := (rand.Float64()*2 - 1) * jitterFraction * float64(d)
	return max(time.Duration(float64(d)+jitter), 0)
}

// Do runs a single atomic write, such as a transaction or one statement,
// until it succeeds or fails for a non-transient reason. op names the write
// in retry logs.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for a write or lookup that returns a value.
func DoVal[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()
	var zero T
	for failures := 1; ; failures++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !retryable(ctx, p, failures, err) {
			return zero, err
		}
		logRetry(op, failures, 0, err)
		if !wait(ctx, p.delay(failures)) {
			return zero, err
		}
	}
}

// Resume drives a write made of independently committed batches, such as a
// COPY split into chunks. write receives the offset of the first row not yet
// stored and returns how many rows it stored before failing. A retry starts
// at the new offset, so committed batches are never sent twice. Any attempt
// that stores rows restores the full attempt budget. Resume returns the
// total number of rows stored.
func Resume(ctx context.Context, p Policy, op string, write func(ctx context.Context, offset int) (int, error)) (int, error) {
	p = p.normalized()
	done, failures := 0, 0
	for {
		n, err := write(ctx, done)
		done += n
		if err == nil {
			return done, nil
		}
		if n > 0 {
			failures = 0
		}
		failures++
		if !retryable(ctx, p, failures, err) {
			return done, err
		}
		logRetry(op, failures, done, err)
		if !wait(ctx, p.delay(failures)) {
			return done, err
		}
	}
}

func retryable(ctx context.Context, p Policy, failures int, err error) bool {
	return failures < p.Attempts && ctx.Err() == nil && IsTransient(err)
}

func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func logRetry(op string, failures, stored int, err error) {
	zap.L().With(zap.String("component", "resilience")).Warn("retrying store write",
		zap.String("operation", op),
		zap.Int("attempt", failures),
		zap.Int("rows_stored", stored),
		zap.Error(err),
	)
}
