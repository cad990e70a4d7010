// Package retry runs an operation again with exponential backoff while its
// error says it is worth retrying.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Retryable is implemented by errors that know whether a retry can help
type Retryable interface {
	Retryable() bool
}

// RetryAfterHinter is implemented by errors that carry a server supplied wait
type RetryAfterHinter interface {
	RetryAfter() time.Duration
}

// Policy controls attempts and backoff
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter spreads each delay over [d/2, d)
	Jitter bool
	// OnRetry is called before sleeping; attempt starts at 1
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy is 3 attempts, 1s base delay, 10s cap, with jitter
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
	}
}

func (p Policy) normalize() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// Delay returns the wait before the retry that follows the given failed attempt
// (0-based): BaseDelay * 2^attempt capped at MaxDelay, raised to the error's
// retry-after hint when that is longer.
func (p Policy) Delay(attempt int, err error) time.Duration {
	p = p.normalize()
	d := p.MaxDelay
	if attempt < 30 {
		if exp := p.BaseDelay << attempt; exp > 0 && exp < p.MaxDelay {
			d = exp
		}
	}
	if p.Jitter {
		half := d / 2
		d = half + rand.N(half+1)
	}
	var hinted RetryAfterHinter
	if errors.As(err, &hinted) {
		if h := hinted.RetryAfter(); h > d {
			d = h
		}
	}
	return d
}

// IsRetryable reports whether err asks to be retried. Errors that do not
// implement Retryable are final.
func IsRetryable(err error) bool {
	var r Retryable
	return errors.As(err, &r) && r.Retryable()
}

// Do calls fn until it succeeds, returns a non-retryable error, ctx is done,
// or MaxAttempts is reached. The last error is returned.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalize()
	var (
		v   T
		err error
	)
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		if !IsRetryable(err) || attempt == p.MaxAttempts-1 {
			return v, err
		}
		delay := p.Delay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return v, err
		case <-timer.C:
		}
	}
	return v, err
}
