package detect

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// fakeElement is a scriptable detect.Element.
type fakeElement struct {
	text    string
	textErr error
	visible bool
	visErr  error
	html    string
	parent  *fakeElement
	tag     string
	attrs   map[string]string
	reads   *int // counts Text calls when non-nil
}

func el(text string) *fakeElement {
	return &fakeElement{text: text, visible: true}
}

func (f *fakeElement) Text() (string, error) {
	if f.reads != nil {
		*f.reads++
	}
	return f.text, f.textErr
}

func (f *fakeElement) Visible() (bool, error) { return f.visible, f.visErr }
func (f *fakeElement) HTML() (string, error)  { return f.html, nil }

func (f *fakeElement) Parent() (Element, error) {
	if f.parent == nil {
		return nil, nil
	}
	return f.parent, nil
}

func (f *fakeElement) Tag() (string, error) { return f.tag, nil }

func (f *fakeElement) Attr(name string) (string, error) { return f.attrs[name], nil }

// fakePage serves static element sets per selector; used by extractor and
// snapshot tests.
type fakePage struct {
	elements    map[string][]*fakeElement
	elementsErr map[string]error
	scan        string // last-resort in-page scan result
	scanErr     error
	probeErr    error
	queries     map[string]int
}

func (p *fakePage) Elements(sel string) ([]Element, error) {
	if p.queries == nil {
		p.queries = make(map[string]int)
	}
	p.queries[sel]++
	if err := p.elementsErr[sel]; err != nil {
		return nil, err
	}
	els := p.elements[sel]
	out := make([]Element, 0, len(els))
	for _, e := range els {
		out = append(out, e)
	}
	return out, nil
}

func (p *fakePage) Has(sel string) (Element, bool, error) {
	return nil, false, nil
}

func (p *fakePage) Eval(ctx context.Context, js string) (json.RawMessage, error) {
	if strings.Contains(js, "readyState") {
		if p.probeErr != nil {
			return nil, p.probeErr
		}
		return json.Marshal("complete")
	}
	if p.scanErr != nil {
		return nil, p.scanErr
	}
	return json.Marshal(p.scan)
}

func (p *fakePage) Wait(ctx context.Context, d time.Duration) (time.Duration, error) {
	return d, nil
}

// fakeClock replaces the guard's real clock in tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// scriptedPage plays back one container-text set per poll; the script
// advances when the stabilizer waits out the interval. After the script
// ends the last entry repeats.
type scriptedPage struct {
	polls [][]string
	poll  int
	clock *fakeClock

	thinkingPolls int // streaming indicator visible for the first N polls
	scan          string
	probeErr      error

	waitAdvance  bool // page wait is reliable: advances the clock by d
	sleepAdvance bool // backup timer advances the clock

	answerQueries int
}

func (p *scriptedPage) texts() []string {
	if len(p.polls) == 0 {
		return nil
	}
	i := min(p.poll, len(p.polls)-1)
	return p.polls[i]
}

func (p *scriptedPage) Elements(sel string) ([]Element, error) {
	var out []Element
	if sel == DefaultSelectors().Answer {
		p.answerQueries++
		for _, t := range p.texts() {
			out = append(out, el(t))
		}
	}
	return out, nil
}

func (p *scriptedPage) Has(sel string) (Element, bool, error) {
	if p.poll < p.thinkingPolls {
		return el("thinking"), true, nil
	}
	return nil, false, nil
}

func (p *scriptedPage) Eval(ctx context.Context, js string) (json.RawMessage, error) {
	if strings.Contains(js, "readyState") {
		if p.probeErr != nil {
			return nil, p.probeErr
		}
		return json.Marshal("complete")
	}
	return json.Marshal(p.scan)
}

func (p *scriptedPage) Wait(ctx context.Context, d time.Duration) (time.Duration, error) {
	p.poll++
	if p.waitAdvance {
		p.clock.advance(d)
		return d, nil
	}
	return 0, nil
}

// runDetect executes WaitForAnswer against a scripted page on a fake clock.
func runDetect(page *scriptedPage, opts Options) (string, error) {
	if page.clock == nil {
		page.clock = newFakeClock()
	}
	s := newStabilizer(page, opts)
	s.g.now = page.clock.Now
	s.g.sleep = func(ctx context.Context, d time.Duration) error {
		if page.sleepAdvance {
			page.clock.advance(d)
		}
		return nil
	}
	return s.run(context.Background())
}
