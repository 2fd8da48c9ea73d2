// Package retry runs an operation with a bounded number of retries and a
// randomized, capped backoff between attempts. Whether a failure is worth
// retrying is decided by a Predicate over the returned error, so wrapped
// errors and error types that embed a retryable one are matched the same way
// errors.Is and errors.As match them.
//
// The budget is Times retried attempts followed by one final attempt whose
// outcome is returned as is:
//
//	attempt 1 .. Times   fail with an eligible error -> sleep, grow delay
//	attempt Times+1      returned unconditionally
//
// A failure that is not eligible is returned immediately without sleeping.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes the retry budget.
type Policy struct {
	Times        int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// OnRetry, when set, is called before every sleep with the error that
	// triggered the retry and the delay about to be waited.
	OnRetry func(err error, delay time.Duration)
}

// DefaultPolicy is used by the stores when no policy is configured.
var DefaultPolicy = Policy{
	Times:        3,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     time.Second,
}

// Notify returns a copy of p that calls fn before every sleep, ahead of any
// hook already set.
func (p Policy) Notify(fn func(err error, delay time.Duration)) Policy {
	next := p.OnRetry

	p.OnRetry = func(err error, delay time.Duration) {
		fn(err, delay)
		if next != nil {
			next(err, delay)
		}
	}

	return p
}

// Predicate reports whether an error may be retried.
type Predicate func(err error) bool

// OnErrors matches any error for which errors.Is reports a match against
// one of the targets.
func OnErrors(targets ...error) Predicate {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// OnType matches any error whose chain holds a value assignable to E.
func OnType[E error]() Predicate {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// Any matches when at least one of the predicates matches.
func Any(preds ...Predicate) Predicate {
	return func(err error) bool {
		for _, p := range preds {
			if p != nil && p(err) {
				return true
			}
		}
		return false
	}
}

// Do executes action under the policy. The context bounds the sleeps: once it
// is done no further attempt is made and the context cause is returned.
func Do[T any](ctx context.Context, p Policy, eligible Predicate, action func(ctx context.Context) (T, error)) (T, error) {
	times := max(p.Times, 0)

	op := func() (T, error) {
		v, err := action(ctx)
		if err != nil && (eligible == nil || !eligible(err)) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(newRandomBackOff(p.InitialDelay, p.MaxDelay)),
		backoff.WithMaxTries(uint(times) + 1),
		backoff.WithMaxElapsedTime(0),
	}

	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, d time.Duration) {
			p.OnRetry(err, d)
		}))
	}

	v, err := backoff.Retry(ctx, op, opts...)

	// The last attempt returns without unwrapping a permanent marker.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}

	return v, err
}

// Run is Do for actions that only return an error.
func Run(ctx context.Context, p Policy, eligible Predicate, action func(ctx context.Context) error) error {
	_, err := Do(ctx, p, eligible, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, action(ctx)
	})

	return err
}

// =============================================================================

// randomBackOff yields the current delay and then multiplies it by a random
// factor in [1, MaxDelay/InitialDelay], capped at MaxDelay.
type randomBackOff struct {
	initial time.Duration
	max     time.Duration
	delay   time.Duration
}

func newRandomBackOff(initial, maxDelay time.Duration) *randomBackOff {
	initial = max(initial, 0)
	if maxDelay < initial {
		maxDelay = initial
	}

	return &randomBackOff{
		initial: initial,
		max:     maxDelay,
		delay:   initial,
	}
}

// Reset implements backoff.BackOff.
func (b *randomBackOff) Reset() {
	b.delay = b.initial
}

// NextBackOff implements backoff.BackOff.
func (b *randomBackOff) NextBackOff() time.Duration {
	current := b.delay

	ratio := 1
	if b.initial > 0 {
		ratio = max(int(b.max/b.initial), 1)
	}

	next := current * time.Duration(rand.IntN(ratio)+1)
	if next > b.max || next < current {
		next = b.max
	}
	b.delay = next

	return current
}
