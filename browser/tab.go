package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/chatwatch/detect"
)

const navigateTimeout = 30 * time.Second

// Tab wraps one Rod page and implements detect.Page. A Tab is owned by one
// logical flow at a time; the detection engine assumes one in-flight call
// per page.
type Tab struct {
	page   *rod.Page
	URL    string
	logger *slog.Logger
}

// OpenTab creates a stealth tab, navigates, and waits for the load event.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{page: page, URL: pageURL, logger: mgr.cfg.Logger}, nil
}

// Submit types a question into the prompt box and presses Enter.
func (t *Tab) Submit(ctx context.Context, inputSelector, question string) error {
	el, err := t.page.Context(ctx).Element(inputSelector)
	if err != nil {
		return fmt.Errorf("browser: find prompt box: %w", err)
	}
	if err := el.Input(question); err != nil {
		return fmt.Errorf("browser: type question: %w", err)
	}
	if err := t.page.Context(ctx).Keyboard.Press(input.Enter); err != nil {
		return fmt.Errorf("browser: send question: %w", err)
	}
	return nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.page != nil {
		return t.page.Close()
	}
	return nil
}

// --- detect.Page ---

func (t *Tab) Elements(selector string) ([]detect.Element, error) {
	els, err := t.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]detect.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out, nil
}

func (t *Tab) Has(selector string) (detect.Element, bool, error) {
	ok, el, err := t.page.Has(selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return &element{el: el}, true, nil
}

func (t *Tab) Eval(ctx context.Context, js string) (json.RawMessage, error) {
	res, err := t.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res.Value.Val())
}

// Wait pauses through the browser-side clock. The detection engine's guard
// measures the round-trip independently and compensates for drift.
func (t *Tab) Wait(ctx context.Context, d time.Duration) (time.Duration, error) {
	start := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	case <-timer.C:
		return time.Since(start), nil
	}
}

// element adapts a Rod element to detect.Element.
type element struct {
	el *rod.Element
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

func (e *element) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *element) HTML() (string, error) {
	return e.el.HTML()
}

func (e *element) Parent() (detect.Element, error) {
	p, err := e.el.Parent()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return &element{el: p}, nil
}

func (e *element) Tag() (string, error) {
	res, err := e.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *element) Attr(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}
