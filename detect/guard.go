package detect

import (
	"context"
	"fmt"
	"math"
	"time"
)

// guard bounds one detection call three ways: a poll-count cap independent
// of wall-clock time, compensation for an unreliable wait primitive, and
// periodic liveness probes against the page.
type guard struct {
	page        Page
	interval    time.Duration
	maxPolls    int
	recoverable func(error) bool

	polls      int
	fastStreak int

	// Seams for tests; real clock and timer sleep in production.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func newGuard(page Page, opts Options) *guard {
	interval := opts.PollInterval
	if interval < pollFloor {
		interval = pollFloor
	}
	// A generous multiple of the expected poll count under ideal timing:
	// it guards against runaway iteration from a broken wait primitive
	// without itself imposing the real timeout.
	maxPolls := int(math.Ceil(float64(opts.Timeout)/float64(interval))) * pollBudgetFactor
	if maxPolls < minPollBudget {
		maxPolls = minPollBudget
	}
	return &guard{
		page:        page,
		interval:    interval,
		maxPolls:    maxPolls,
		recoverable: opts.Recoverable,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// beginPoll accounts one iteration. timedOut reports the soft deadline
// outcome; the returned error is fatal (guard fired before the deadline,
// or a liveness probe failed).
func (g *guard) beginPoll(ctx context.Context, deadline time.Time) (timedOut bool, err error) {
	g.polls++
	if g.polls > g.maxPolls {
		if g.now().Before(deadline) {
			return false, fmt.Errorf("%d polls consumed with %s of deadline left: %w",
				g.maxPolls, deadline.Sub(g.now()).Round(time.Millisecond), ErrPollGuardExceeded)
		}
		return true, nil
	}
	if !g.now().Before(deadline) {
		return true, nil
	}
	if g.polls%healthCheckEvery == 0 {
		if err := g.probe(ctx); err != nil {
			return false, err
		}
	}
	return false, nil
}

// waitInterval waits out one poll interval through the page's own wait
// primitive. When it returns early beyond the drift tolerance, the
// remainder is slept on an independent timer and the fast-poll streak is
// advanced; a long enough streak forces an immediate liveness probe.
func (g *guard) waitInterval(ctx context.Context) error {
	start := g.now()
	if _, err := g.page.Wait(ctx, g.interval); err != nil {
		if g.recoverable != nil && g.recoverable(err) {
			return fmt.Errorf("while waiting between polls: %w", err)
		}
		// Wait primitive failed outright; the backup timer below still
		// paces the loop.
	}
	elapsed := g.now().Sub(start)

	if elapsed+driftTolerance < g.interval {
		if err := g.sleep(ctx, g.interval-elapsed); err != nil {
			return err
		}
		g.fastStreak++
		if g.fastStreak >= fastPollLimit {
			if err := g.probe(ctx); err != nil {
				return err
			}
			g.fastStreak = 0
		}
		return nil
	}

	g.fastStreak = 0
	return nil
}

// probe performs one bounded round-trip into the page. Failure means the
// page is gone or wedged: surface it as ErrPageUnresponsive.
func (g *guard) probe(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if _, err := g.page.Eval(pctx, readyStateJS); err != nil {
		return fmt.Errorf("health check failed (%v): %w", err, ErrPageUnresponsive)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
