// Package ask orchestrates one question round-trip against a chat page:
// baseline snapshot, submission, streaming stabilization, optional source
// extraction, and audit recording. It is the concrete caller around the
// detect engine.
package ask

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/chatwatch/browser"
	"github.com/hazyhaar/chatwatch/detect"
	"github.com/hazyhaar/chatwatch/observability"
	"github.com/hazyhaar/chatwatch/settings"
	"github.com/hazyhaar/chatwatch/sources"
)

// Session is one live conversation page: the detection page capability plus
// the ability to submit a question into it.
type Session interface {
	detect.Page

	// Submit types the question into the element matching inputSelector
	// and sends it.
	Submit(ctx context.Context, inputSelector, question string) error
}

// Answer is the result of one Ask call.
type Answer struct {
	Question   string              `json:"question"`
	Found      bool                `json:"found"`
	Text       string              `json:"text,omitempty"`
	Markdown   string              `json:"markdown,omitempty"`
	Sources    []sources.Reference `json:"sources,omitempty"`
	DurationMs int64               `json:"duration_ms"`
}

// Config configures an Asker.
type Config struct {
	Settings     *settings.Settings
	Recorder     *observability.Recorder // nil disables audit recording
	Selectors    detect.Selectors
	Timeout      time.Duration
	PollInterval time.Duration
	Recoverable  func(error) bool // default browser.IsRecoverable
	Logger       *slog.Logger
}

func (c *Config) defaults() {
	if c.Settings == nil {
		c.Settings = settings.Default()
	}
	if c.Selectors.Answer == "" && len(c.Selectors.Fallbacks) == 0 {
		c.Selectors = detect.DefaultSelectors()
	}
	if c.Recoverable == nil {
		c.Recoverable = browser.IsRecoverable
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Asker runs questions against one session. One in-flight Ask per session.
type Asker struct {
	session Session
	cfg     Config
}

// New creates an Asker for a session.
func New(session Session, cfg Config) *Asker {
	cfg.defaults()
	return &Asker{session: session, cfg: cfg}
}

// Ask submits a question and waits for its answer to finish streaming.
// A soft timeout yields Found=false with a nil error. When source
// extraction fails on a recoverable browser error after the answer was
// already detected, the answer is returned alongside the error.
func (a *Asker) Ask(ctx context.Context, question string, includeSources bool) (*Answer, error) {
	start := time.Now()
	log := a.cfg.Logger

	baseline, err := detect.Baseline(a.session, a.cfg.Selectors)
	if err != nil {
		a.record(ctx, question, "error", nil, err, start)
		return nil, fmt.Errorf("ask: baseline snapshot: %w", err)
	}
	log.Debug("ask: baseline captured", "answers", len(baseline))

	if err := a.session.Submit(ctx, a.cfg.Selectors.Input, question); err != nil {
		a.record(ctx, question, "error", nil, err, start)
		return nil, fmt.Errorf("ask: submit question: %w", err)
	}

	text, err := detect.WaitForAnswer(ctx, a.session, detect.Options{
		Question:     question,
		Ignore:       baseline,
		Timeout:      a.cfg.Timeout,
		PollInterval: a.cfg.PollInterval,
		Selectors:    a.cfg.Selectors,
		Recoverable:  a.cfg.Recoverable,
		Logger:       log,
	})
	if err != nil {
		a.record(ctx, question, "error", nil, err, start)
		return nil, fmt.Errorf("ask: wait for answer: %w", err)
	}

	ans := &Answer{Question: question, Found: text != "", Text: text}
	if text == "" {
		ans.DurationMs = time.Since(start).Milliseconds()
		a.record(ctx, question, "timeout", ans, nil, start)
		return ans, nil
	}

	a.renderMarkdown(ans)

	if includeSources || a.cfg.Settings.AlwaysIncludeSources {
		refs, err := sources.Extract(a.session, text, sources.Options{
			Selector:    a.cfg.Selectors.Answer,
			Recoverable: a.cfg.Recoverable,
			Logger:      log,
		})
		if err != nil {
			ans.DurationMs = time.Since(start).Milliseconds()
			a.record(ctx, question, "error", ans, err, start)
			return ans, fmt.Errorf("ask: extract sources: %w", err)
		}
		ans.Sources = refs
	}

	ans.DurationMs = time.Since(start).Milliseconds()
	a.record(ctx, question, "answered", ans, nil, start)
	return ans, nil
}

// renderMarkdown captures the matched container's HTML and renders it as
// markdown, falling back to the plain answer text.
func (a *Asker) renderMarkdown(ans *Answer) {
	el, err := sources.FindContainer(a.session, ans.Text, a.cfg.Selectors.Answer, a.cfg.Recoverable)
	if err != nil || el == nil {
		ans.Markdown = ans.Text
		return
	}
	raw, err := el.HTML()
	if err != nil {
		ans.Markdown = ans.Text
		return
	}
	ans.Markdown = sources.Markdown(raw, ans.Text)
}

func (a *Asker) record(ctx context.Context, question, outcome string, ans *Answer, cause error, start time.Time) {
	if a.cfg.Recorder == nil {
		return
	}
	ev := observability.Event{
		Question:   question,
		Outcome:    outcome,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if ans != nil {
		ev.AnswerLen = len(ans.Text)
		ev.SourceRefs = len(ans.Sources)
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	a.cfg.Recorder.Record(ctx, ev)
}
