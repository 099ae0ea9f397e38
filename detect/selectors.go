package detect

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Selectors is the static selector configuration for one chat platform.
// The lists are immutable configuration, not state: the engine never
// mutates them during a call.
type Selectors struct {
	// Answer is the primary structural selector for assistant answer
	// containers.
	Answer string

	// Fallbacks are attribute-based patterns tried in priority order when
	// the primary selector yields nothing: author/role annotations, ARIA
	// roles, test identifiers.
	Fallbacks []string

	// Thinking matches the platform's streaming/loading indicator. While it
	// is present and visible, extraction is skipped for that poll.
	Thinking string

	// Input matches the prompt box, used by callers for submission. The
	// engine itself never touches it.
	Input string
}

// DefaultSelectors covers the markup conventions common to the chat UIs
// this engine targets.
func DefaultSelectors() Selectors {
	return Selectors{
		Answer: `[data-message-author-role="assistant"]`,
		Fallbacks: []string{
			`[data-message-author="assistant"]`,
			`[data-author="assistant"]`,
			`[data-role="response"]`,
			`[role="article"]`,
			`[aria-label*="assistant" i]`,
			`[data-testid*="assistant"]`,
			`[data-test-id*="response"]`,
		},
		Thinking: `[aria-busy="true"], [data-testid*="loading"], .loading-indicator, .thinking-indicator`,
		Input:    `textarea, [contenteditable="true"][role="textbox"]`,
	}
}

// Message-container recognition for the fallback path: a matched leaf is
// promoted to its nearest ancestor that looks like a full message, so the
// candidate carries the complete message text rather than a fragment.
const maxAncestorClimb = 6

var containerTags = map[string]bool{
	"article": true,
	"section": true,
	"li":      true,
}

var containerRoles = map[string]bool{
	"article":  true,
	"listitem": true,
	"region":   true,
}

var containerAttrs = []string{
	"data-message-author-role",
	"data-message-author",
	"data-author",
	"data-message-id",
	"data-response-id",
}

// readyStateJS is the liveness probe: a bounded round-trip that proves the
// page's event loop still answers.
const readyStateJS = `() => document.readyState`

// lastVisibleScript builds the last-resort in-page scan. It runs the same
// attribute-based patterns directly against the live document, keeps only
// elements that actually render, and returns the last visible text in
// document order: the most recently appended message is most likely the
// newest assistant turn. The function closes over nothing host-side; its
// output is a single JSON string.
func lastVisibleScript(selectors []string) string {
	sel, _ := json.Marshal(strings.Join(selectors, ", "))
	return fmt.Sprintf(`() => {
		let last = "";
		for (const el of document.querySelectorAll(%s)) {
			if (!el.isConnected) continue;
			const box = el.getBoundingClientRect();
			if (box.width === 0 || box.height === 0) continue;
			const style = window.getComputedStyle(el);
			if (style.display === "none" || style.visibility === "hidden" || style.opacity === "0") continue;
			const text = (el.innerText || "").trim();
			if (text !== "") last = text;
		}
		return last;
	}`, sel)
}
