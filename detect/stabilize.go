package detect

import (
	"context"
	"fmt"
	"strings"
)

// WaitForAnswer polls the page until a new assistant answer has finished
// streaming. It returns the stabilized answer text, or "" with a nil error
// when the deadline passes first (a normal outcome the caller must handle).
// An unresponsive page or a recoverable browser error surfaces as a
// wrapped error instead.
func WaitForAnswer(ctx context.Context, page Page, opts Options) (string, error) {
	return newStabilizer(page, opts).run(ctx)
}

// stabilizer is the polling state machine. All its state is owned by one
// call and discarded at return.
type stabilizer struct {
	page     Page
	opts     Options
	ex       *extractor
	g        *guard
	idx      *Index
	question string // normalized form of the submitted question

	lastCandidate string
	stableCount   int
}

func newStabilizer(page Page, opts Options) *stabilizer {
	opts.defaults()
	return &stabilizer{
		page: page,
		opts: opts,
		ex: &extractor{
			page:        page,
			sel:         opts.Selectors,
			recoverable: opts.Recoverable,
			logger:      opts.Logger,
		},
		g:        newGuard(page, opts),
		idx:      NewIndex(opts.Ignore...),
		question: Normalize(opts.Question),
	}
}

func (s *stabilizer) run(ctx context.Context) (string, error) {
	deadline := s.g.now().Add(s.opts.Timeout)
	log := s.opts.Logger

	for {
		timedOut, err := s.g.beginPoll(ctx, deadline)
		if err != nil {
			return "", err
		}
		if timedOut {
			log.Debug("detect: no answer before deadline",
				"polls", s.g.polls, "known", s.idx.Len())
			return "", nil
		}

		streaming, err := s.thinking()
		if err != nil {
			return "", err
		}
		if !streaming {
			cand, err := s.ex.candidate(ctx, s.idx)
			if err != nil {
				return "", err
			}
			if text, done := s.observe(cand); done {
				log.Debug("detect: answer stabilized",
					"polls", s.g.polls, "chars", len(text))
				return text, nil
			}
		}

		if err := s.g.waitInterval(ctx); err != nil {
			return "", err
		}
	}
}

// thinking reports whether the platform's streaming indicator is present
// and visible, in which case extraction is skipped for this poll.
func (s *stabilizer) thinking() (bool, error) {
	if s.opts.Selectors.Thinking == "" {
		return false, nil
	}
	el, ok, err := s.page.Has(s.opts.Selectors.Thinking)
	if err != nil {
		if s.opts.Recoverable != nil && s.opts.Recoverable(err) {
			return false, fmt.Errorf("while checking streaming indicator: %w", err)
		}
		return false, nil
	}
	if !ok {
		return false, nil
	}
	vis, err := el.Visible()
	if err != nil {
		return false, nil
	}
	return vis, nil
}

// observe feeds one poll's candidate into the stability vote. done is true
// once the same trimmed text has been seen stabilityThreshold times in a
// row. The echoed question is fingerprinted into the known set and never
// counts toward stability.
func (s *stabilizer) observe(cand string) (text string, done bool) {
	cand = strings.TrimSpace(cand)
	if cand == "" {
		return "", false
	}

	if s.question != "" && strings.EqualFold(Normalize(cand), s.question) {
		s.idx.Add(cand)
		return "", false
	}

	if cand == s.lastCandidate {
		s.stableCount++
		if s.stableCount >= stabilityThreshold {
			return cand, true
		}
	} else {
		s.lastCandidate = cand
		s.stableCount = 1
	}
	return "", false
}
