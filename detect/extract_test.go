package detect

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestExtractor(p Page, recoverable func(error) bool) *extractor {
	return &extractor{
		page:        p,
		sel:         DefaultSelectors(),
		recoverable: recoverable,
		logger:      slog.Default(),
	}
}

func answerSel() string { return DefaultSelectors().Answer }

func TestExtract_FirstNewContainerWins(t *testing.T) {
	known := "A previous answer that is already fingerprinted."
	page := &fakePage{elements: map[string][]*fakeElement{
		answerSel(): {el(known), el("first new"), el("second new")},
	}}
	idx := NewIndex(known)

	got, err := newTestExtractor(page, nil).candidate(context.Background(), idx)
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != "first new" {
		t.Errorf("candidate: got %q, want %q", got, "first new")
	}
}

func TestExtract_EarlyExitSkipsContentInspection(t *testing.T) {
	reads := 0
	a := el("answer one")
	b := el("answer two")
	a.reads, b.reads = &reads, &reads
	page := &fakePage{elements: map[string][]*fakeElement{
		answerSel(): {a, b},
	}}
	idx := NewIndex("answer one", "answer two")

	got, err := newTestExtractor(page, nil).candidate(context.Background(), idx)
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != "" {
		t.Errorf("candidate: got %q, want none", got)
	}
	if reads != 0 {
		t.Errorf("element reads: got %d, want 0 (container count <= known size)", reads)
	}
}

func TestExtract_PrimaryNoNewTextDoesNotFallBack(t *testing.T) {
	known := "only message, already known, long enough to be realistic"
	page := &fakePage{
		elements: map[string][]*fakeElement{
			answerSel():        {el(known), el("")},
			`[role="article"]`: {el("fallback text that must not surface")},
		},
		scan: "scan text that must not surface",
	}
	idx := NewIndex(known)

	got, err := newTestExtractor(page, nil).candidate(context.Background(), idx)
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != "" {
		t.Errorf("candidate: got %q, want none (primary verdict is final)", got)
	}
	if page.queries[`[role="article"]`] != 0 {
		t.Error("fallback selector queried despite conclusive primary path")
	}
}

func TestExtract_FallbackPromotesToMessageContainer(t *testing.T) {
	full := &fakeElement{
		text: "Complete message text including the fragment.", visible: true, tag: "article",
	}
	leaf := &fakeElement{text: "fragment.", visible: true, tag: "span", parent: full}
	page := &fakePage{elements: map[string][]*fakeElement{
		`[data-message-author="assistant"]`: {leaf},
	}}

	got, err := newTestExtractor(page, nil).candidate(context.Background(), NewIndex())
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != full.text {
		t.Errorf("candidate: got %q, want full container text %q", got, full.text)
	}
}

func TestExtract_FallbackRecognizesAuthorAttribute(t *testing.T) {
	full := &fakeElement{
		text: "Whole message.", visible: true, tag: "div",
		attrs: map[string]string{"data-message-author-role": "assistant"},
	}
	leaf := &fakeElement{text: "sage.", visible: true, tag: "em", parent: full}
	page := &fakePage{elements: map[string][]*fakeElement{
		`[data-author="assistant"]`: {leaf},
	}}

	got, err := newTestExtractor(page, nil).candidate(context.Background(), NewIndex())
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != "Whole message." {
		t.Errorf("candidate: got %q, want %q", got, "Whole message.")
	}
}

func TestExtract_LastResortScan(t *testing.T) {
	page := &fakePage{scan: "newest visible message from the in-page scan"}

	got, err := newTestExtractor(page, nil).candidate(context.Background(), NewIndex())
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != page.scan {
		t.Errorf("candidate: got %q, want %q", got, page.scan)
	}
}

func TestExtract_TransientElementErrorSkipsElement(t *testing.T) {
	broken := el("")
	broken.textErr = errors.New("node resolve failed")
	page := &fakePage{elements: map[string][]*fakeElement{
		answerSel(): {broken, el("readable answer")},
	}}

	got, err := newTestExtractor(page, nil).candidate(context.Background(), NewIndex())
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != "readable answer" {
		t.Errorf("candidate: got %q, want %q", got, "readable answer")
	}
}

func TestExtract_RecoverableErrorAbortsWithStage(t *testing.T) {
	cause := errors.New("target closed")
	page := &fakePage{
		elementsErr: map[string]error{answerSel(): cause},
	}
	recoverable := func(err error) bool {
		return strings.Contains(err.Error(), "closed")
	}

	_, err := newTestExtractor(page, recoverable).candidate(context.Background(), NewIndex())
	if err == nil {
		t.Fatal("candidate: want error for recoverable browser failure")
	}
	if !errors.Is(err, cause) {
		t.Errorf("error chain: got %v, want wrapped %v", err, cause)
	}
	if !strings.Contains(err.Error(), "answer containers") {
		t.Errorf("error: got %q, want failing stage named", err)
	}
}

func TestExtract_TransientQueryFailureFallsBack(t *testing.T) {
	page := &fakePage{
		elementsErr: map[string]error{answerSel(): errors.New("selector parse hiccup")},
		elements: map[string][]*fakeElement{
			`[data-message-author="assistant"]`: {el("fallback message")},
		},
	}

	got, err := newTestExtractor(page, nil).candidate(context.Background(), NewIndex())
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if got != "fallback message" {
		t.Errorf("candidate: got %q, want %q", got, "fallback message")
	}
}
