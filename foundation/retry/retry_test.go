package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jcpaschoal/confmgmt/foundation/retry"
)

var errConflict = errors.New("write conflict")

type transientError struct {
	op string
}

func (e *transientError) Error() string { return "transient: " + e.op }
func (e *transientError) Temporary() bool { return true }

type temporary interface {
	error
	Temporary() bool
}

// lockTimeoutError embeds the transient error: it must be retried wherever
// a transient error is.
type lockTimeoutError struct {
	*transientError
}

var fast = retry.Policy{
	Times:        3,
	InitialDelay: time.Millisecond,
	MaxDelay:     4 * time.Millisecond,
}

func Test_SucceedsAfterKFailures(t *testing.T) {
	for k := 0; k < fast.Times; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			calls := 0

			got, err := retry.Do(context.Background(), fast, retry.OnErrors(errConflict), func(ctx context.Context) (string, error) {
				calls++
				if calls <= k {
					return "", errConflict
				}
				return "ok", nil
			})

			if err != nil {
				t.Fatalf("Should succeed: %s", err)
			}

			if got != "ok" {
				t.Errorf("got %q, want ok", got)
			}

			if calls != k+1 {
				t.Errorf("Should invoke the action %d times, got %d", k+1, calls)
			}
		})
	}
}

func Test_NotEligibleFailsFast(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0

	err := retry.Run(context.Background(), fast, retry.OnErrors(errConflict), func(ctx context.Context) error {
		calls++
		return errBoom
	})

	if !errors.Is(err, errBoom) {
		t.Fatalf("Should return the action error, got %v", err)
	}

	if calls != 1 {
		t.Errorf("Should invoke the action once, got %d", calls)
	}
}

func Test_FinalUnconditionalAttempt(t *testing.T) {
	calls := 0
	var delays []time.Duration

	p := fast
	p.OnRetry = func(err error, d time.Duration) {
		delays = append(delays, d)
	}

	err := retry.Run(context.Background(), p, retry.OnErrors(errConflict), func(ctx context.Context) error {
		calls++
		return errConflict
	})

	if !errors.Is(err, errConflict) {
		t.Fatalf("Should return the last error, got %v", err)
	}

	if calls != p.Times+1 {
		t.Errorf("Should invoke the action %d times, got %d", p.Times+1, calls)
	}

	if len(delays) != p.Times {
		t.Fatalf("Should sleep %d times, got %d", p.Times, len(delays))
	}

	if delays[0] != p.InitialDelay {
		t.Errorf("First delay should be the initial delay, got %s", delays[0])
	}

	for i, d := range delays {
		if d < p.InitialDelay || d > p.MaxDelay {
			t.Errorf("delay[%d] = %s outside [%s, %s]", i, d, p.InitialDelay, p.MaxDelay)
		}
	}
}

func Test_FinalAttemptNotEligible(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0

	err := retry.Run(context.Background(), fast, retry.OnErrors(errConflict), func(ctx context.Context) error {
		calls++
		if calls == fast.Times+1 {
			return errBoom
		}
		return errConflict
	})

	if !errors.Is(err, errBoom) {
		t.Fatalf("Should surface the final error unwrapped, got %v", err)
	}

	if err != errBoom {
		t.Errorf("Final error should not carry a retry marker, got %T", err)
	}
}

func Test_MatchesByAssignability(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "exact", err: &transientError{op: "insert"}},
		{name: "wrapped", err: fmt.Errorf("store: %w", &transientError{op: "insert"})},
		{name: "embedded", err: lockTimeoutError{&transientError{op: "lock"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0

			err := retry.Run(context.Background(), fast, retry.OnType[temporary](), func(ctx context.Context) error {
				calls++
				if calls == 1 {
					return tt.err
				}
				return nil
			})

			if err != nil {
				t.Fatalf("Should retry and succeed: %s", err)
			}

			if calls != 2 {
				t.Errorf("Should invoke the action twice, got %d", calls)
			}
		})
	}
}

func Test_WrappedSentinel(t *testing.T) {
	calls := 0

	err := retry.Run(context.Background(), fast, retry.OnErrors(errConflict), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("update room: %w", errConflict)
		}
		return nil
	})

	if err != nil || calls != 2 {
		t.Errorf("Wrapped sentinel should be retried: err=%v calls=%d", err, calls)
	}
}

func Test_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := retry.Policy{Times: 10, InitialDelay: time.Hour, MaxDelay: time.Hour}
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- retry.Run(ctx, p, retry.OnErrors(errConflict), func(ctx context.Context) error {
			calls++
			return errConflict
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Should return the context error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Retry did not stop on cancel")
	}

	if calls != 1 {
		t.Errorf("Should not attempt again after cancel, got %d calls", calls)
	}
}

func Test_ZeroTimes(t *testing.T) {
	calls := 0

	err := retry.Run(context.Background(), retry.Policy{}, retry.OnErrors(errConflict), func(ctx context.Context) error {
		calls++
		return errConflict
	})

	if !errors.Is(err, errConflict) || calls != 1 {
		t.Errorf("Zero budget should make exactly one attempt: err=%v calls=%d", err, calls)
	}
}

func Test_NotifyChains(t *testing.T) {
	var order []string

	p := fast
	p.OnRetry = func(err error, d time.Duration) { order = append(order, "base") }
	p = p.Notify(func(err error, d time.Duration) { order = append(order, "log") })

	calls := 0
	retry.Run(context.Background(), p, retry.OnErrors(errConflict), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errConflict
		}
		return nil
	})

	if len(order) != 2 || order[0] != "log" || order[1] != "base" {
		t.Errorf("Hooks should run newest first, got %v", order)
	}
}
