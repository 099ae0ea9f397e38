package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// extractor runs the strategy cascade for one poll: primary structural
// selector, then the fallback selector list, then a single in-page scan.
// Each strategy short-circuits the rest on success. Strategies are pure
// with respect to the page: they read, never mutate.
type extractor struct {
	page        Page
	sel         Selectors
	recoverable func(error) bool
	logger      *slog.Logger
}

func (e *extractor) isRecoverable(err error) bool {
	return e.recoverable != nil && e.recoverable(err)
}

// candidate returns the first text not yet in the known set, or "" when
// this poll produced nothing new. A recoverable page error aborts with the
// failing stage wrapped in.
func (e *extractor) candidate(ctx context.Context, idx *Index) (string, error) {
	text, conclusive, err := e.primary(idx)
	if err != nil {
		return "", err
	}
	// When the primary path saw containers, its verdict is final for this
	// poll: "no new text among existing containers" must not leak into the
	// fallback heuristics, which would re-surface old messages.
	if conclusive {
		return text, nil
	}

	text, err = e.fallback(idx)
	if err != nil || text != "" {
		return text, err
	}

	return e.lastResort(ctx)
}

// primary scans the structural answer containers. conclusive is true when
// containers existed, regardless of whether any held new text.
func (e *extractor) primary(idx *Index) (text string, conclusive bool, err error) {
	els, qerr := e.page.Elements(e.sel.Answer)
	if qerr != nil {
		if e.isRecoverable(qerr) {
			return "", false, fmt.Errorf("while querying answer containers: %w", qerr)
		}
		e.logger.Debug("detect: answer container query failed, falling back", "error", qerr)
		return "", false, nil
	}
	if len(els) == 0 {
		return "", false, nil
	}

	// No new containers are structurally possible: skip content inspection.
	if len(els) <= idx.Len() {
		return "", true, nil
	}

	for _, el := range els {
		t, terr := el.Text()
		if terr != nil {
			if e.isRecoverable(terr) {
				return "", false, fmt.Errorf("while reading answer container: %w", terr)
			}
			// Transient single-element failure: at most this element is lost.
			continue
		}
		if strings.TrimSpace(t) == "" || idx.Has(t) {
			continue
		}
		return t, true, nil
	}
	return "", true, nil
}

// fallback tries each attribute-based pattern in priority order, promoting
// matched leaves to their message container before reading text.
func (e *extractor) fallback(idx *Index) (string, error) {
	for _, sel := range e.sel.Fallbacks {
		els, err := e.page.Elements(sel)
		if err != nil {
			if e.isRecoverable(err) {
				return "", fmt.Errorf("while querying fallback %q: %w", sel, err)
			}
			continue
		}
		for _, el := range els {
			t, err := e.messageContainer(el).Text()
			if err != nil {
				if e.isRecoverable(err) {
					return "", fmt.Errorf("while reading fallback message: %w", err)
				}
				continue
			}
			if strings.TrimSpace(t) == "" || idx.Has(t) {
				continue
			}
			return t, nil
		}
	}
	return "", nil
}

// messageContainer climbs from a matched leaf toward the nearest ancestor
// recognizable as a full message container. Falls back to the leaf itself
// when no ancestor qualifies within the climb bound.
func (e *extractor) messageContainer(leaf Element) Element {
	el := leaf
	for range maxAncestorClimb {
		if isMessageContainer(el) {
			return el
		}
		parent, err := el.Parent()
		if err != nil || parent == nil {
			break
		}
		el = parent
	}
	return leaf
}

func isMessageContainer(el Element) bool {
	if tag, err := el.Tag(); err == nil && containerTags[tag] {
		return true
	}
	if role, err := el.Attr("role"); err == nil && containerRoles[role] {
		return true
	}
	for _, name := range containerAttrs {
		if v, err := el.Attr(name); err == nil && v != "" {
			return true
		}
	}
	return false
}

// lastResort runs the in-page scan. Its result is returned without a
// known-set check: by construction it is the newest visible message text.
func (e *extractor) lastResort(ctx context.Context) (string, error) {
	raw, err := e.page.Eval(ctx, lastVisibleScript(e.sel.Fallbacks))
	if err != nil {
		if e.isRecoverable(err) {
			return "", fmt.Errorf("while scanning page for messages: %w", err)
		}
		e.logger.Debug("detect: in-page scan failed", "error", err)
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", nil
	}
	return text, nil
}
