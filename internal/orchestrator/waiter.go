package orchestrator

import (
	"context"
	"fmt"
	"time"

	"regtestctl/internal/config"
	"regtestctl/internal/reporting"
)

// Waiter polls a ReadinessProbe under a bounded retry policy. Probes run at
// most policy.MaxAttempts times with policy.Interval between consecutive
// attempts; a success short-circuits immediately, so no sleep follows the
// final probe of a run.
type Waiter struct {
	probe    ReadinessProbe
	policy   config.ReadinessPolicy
	reporter reporting.Reporter

	// sleep is swapped out in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWaiter creates a Waiter with the given probe and retry policy.
func NewWaiter(probe ReadinessProbe, policy config.ReadinessPolicy, reporter reporting.Reporter) *Waiter {
	return &Waiter{
		probe:    probe,
		policy:   policy,
		reporter: reporter,
		sleep:    sleepContext,
	}
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait polls until the probe succeeds, the attempt budget is exhausted, or
// ctx is cancelled. It returns the number of probes issued. On exhaustion
// the error is a *ReadinessTimeoutError carrying the last probe failure.
func (w *Waiter) Wait(ctx context.Context) (int, error) {
	maxAttempts := w.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		attemptCtx := ctx
		if w.policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, w.policy.AttemptTimeout)
			err := w.probe.Probe(attemptCtx)
			cancel()
			lastErr = err
		} else {
			lastErr = w.probe.Probe(attemptCtx)
		}

		if lastErr == nil {
			return attempt, nil
		}

		w.report(reporting.StageUpdate{
			Stage:       reporting.StageReadiness,
			Status:      reporting.StatusProgress,
			Message:     fmt.Sprintf("Node not ready yet (attempt %d/%d)", attempt, maxAttempts),
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
		})

		// Sleep between attempts only; after the last probe the verdict is
		// already known.
		if attempt < maxAttempts {
			if err := w.sleep(ctx, w.policy.Interval); err != nil {
				return attempt, err
			}
		}
	}

	return maxAttempts, &ReadinessTimeoutError{Attempts: maxAttempts, LastErr: lastErr}
}

func (w *Waiter) report(update reporting.StageUpdate) {
	if w.reporter != nil {
		w.reporter.Report(update)
	}
}
