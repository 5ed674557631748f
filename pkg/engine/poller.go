package engine

import (
	"context"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/core"
)

// PollUntil evaluates predicate at a fixed cadence until it returns true,
// the timeout budget is spent, or ctx is done. The first evaluation happens
// immediately, before any sleep. Predicate errors abort polling and
// propagate unchanged.
func PollUntil(ctx context.Context, what string, timeout, interval time.Duration, predicate func(ctx context.Context) (bool, error)) error {
	start := time.Now()

	for {
		ok, err := predicate(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if time.Since(start) >= timeout {
			return core.NewFailure(core.KindTimeout, "timed out after %v waiting for %s", timeout, what)
		}

		if err := sleepCtx(ctx, interval); err != nil {
			return err
		}
	}
}

// sleepCtx sleeps for d unless ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return core.NewFailure(core.KindOf(ctx.Err()), "wait interrupted").WithCause(ctx.Err())
	case <-timer.C:
		return nil
	}
}
