// Package resilience provides the bounded-wait and circuit-breaker primitives
// that keep slow or failing provider calls from degrading the whole gateway.
//
// [Poll] turns "sleep until the remote asset is ready" into an explicit
// budgeted operation with a terminal failure, and [Breaker] is a three-state
// circuit breaker used to guard the stateless speech calls. [GuardedSpeech]
// composes a speech provider with one breaker per direction.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBudgetExhausted is returned by [Poll] when the condition did not
// complete within the configured attempt budget.
var ErrBudgetExhausted = errors.New("resilience: poll budget exhausted")

// CondFunc probes a remote condition once. It returns done=true when the
// condition has completed (successfully or not — a terminal failure should be
// returned as done=true with a non-nil error so polling stops immediately).
// A false, nil return means "still pending, keep waiting".
type CondFunc func(ctx context.Context) (done bool, err error)

// Poll invokes cond up to maxAttempts times, sleeping interval between
// attempts. It returns nil as soon as cond reports done with no error, the
// condition's own error if it reports a terminal failure, ctx.Err() if the
// context is cancelled mid-wait, and [ErrBudgetExhausted] once the attempt
// budget runs out with the condition still pending.
//
// The first probe happens immediately; the interval applies between probes.
func Poll(ctx context.Context, interval time.Duration, maxAttempts int, cond CondFunc) error {
	if maxAttempts <= 0 {
		return fmt.Errorf("resilience: maxAttempts must be positive, got %d", maxAttempts)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		done, err := cond(ctx)
		if done {
			return err
		}
		if err != nil {
			return err
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w after %d attempts", ErrBudgetExhausted, attempt)
		}

		timer.Reset(interval)
	}
}
