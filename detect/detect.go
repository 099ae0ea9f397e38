// Package detect finds the moment a conversational web page has finished
// streaming a new assistant answer.
//
// The engine polls the live page, extracts candidate texts through a
// selector cascade, discards everything it has already seen (prior answers,
// the echoed question) via cheap fingerprints, and declares an answer final
// only after observing the exact same text on three consecutive polls.
// A liveness guard bounds iteration independently of the wall-clock timeout
// and periodically proves the page still responds.
//
// All mutable state is scoped to one WaitForAnswer call. Concurrent calls
// against independent pages are safe; two concurrent calls against the same
// page would race on which candidate is new and are not supported.
package detect

import (
	"log/slog"
	"time"
)

// Tuning constants. These are fixed behaviour, not configuration.
const (
	// stabilityThreshold is how many consecutive identical observations a
	// candidate needs before it counts as finished streaming.
	stabilityThreshold = 3

	// pollFloor is the minimum effective poll interval.
	pollFloor = 100 * time.Millisecond

	// driftTolerance is how much earlier than requested a page wait may
	// return before it is treated as unreliable.
	driftTolerance = 50 * time.Millisecond

	// fastPollLimit is the number of consecutive early wait returns that
	// force an out-of-schedule liveness probe.
	fastPollLimit = 5

	// healthCheckEvery runs the periodic liveness probe on every Nth poll.
	healthCheckEvery = 10

	// healthCheckTimeout bounds one liveness probe round-trip.
	healthCheckTimeout = 2 * time.Second

	// minPollBudget and pollBudgetFactor bound total iterations:
	// max(minPollBudget, ceil(timeout/interval) * pollBudgetFactor).
	minPollBudget    = 120
	pollBudgetFactor = 5
)

// Options configures one detection call.
type Options struct {
	// Question is the submitted prompt. Its echo in the message list is
	// fingerprinted away and never counted toward stability.
	Question string

	// Ignore seeds the known set, typically with a pre-submission Baseline
	// so stale answers are never returned.
	Ignore []string

	// Timeout is the wall-clock deadline. Reaching it is a soft outcome:
	// WaitForAnswer returns "" and a nil error. Default 2m.
	Timeout time.Duration

	// PollInterval is the requested delay between polls, floored at 100ms.
	// Default 1s.
	PollInterval time.Duration

	// Selectors overrides the extraction cascade. Zero value uses
	// DefaultSelectors.
	Selectors Selectors

	// Recoverable classifies page errors. When it reports true the whole
	// call aborts with a wrapped error; otherwise the failing element or
	// selector is skipped. Nil treats every error as skippable.
	Recoverable func(error) bool

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.Selectors.Answer == "" && len(o.Selectors.Fallbacks) == 0 {
		o.Selectors = DefaultSelectors()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}
