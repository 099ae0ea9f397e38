// Package sources harvests citation references from a finished answer's
// DOM container.
//
// The matched container's HTML is read once from the live page and parsed
// host-side. Three heuristics run in sequence over the parse tree
// (hyperlinks, citation-marker elements, and a broad source-like attribute
// pattern), deduplicated by lower-cased (title, url) and capped at 30
// references per extraction.
package sources

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/chatwatch/detect"
)

// maxReferences bounds one extraction call.
const maxReferences = 30

// Reference is one citation extracted from an answer.
type Reference struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	RawText string `json:"raw_text"`
}

// Options configures an extraction call.
type Options struct {
	// Selector matches the answer containers. Default: the primary answer
	// selector from detect.DefaultSelectors.
	Selector string

	// Recoverable classifies page errors, same contract as detect.Options.
	Recoverable func(error) bool

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Selector == "" {
		o.Selector = detect.DefaultSelectors().Answer
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Extract locates the container backing answerText and harvests its
// citation references. "No sources" is a normal outcome: an empty slice
// with a nil error. Only recoverable browser-state errors propagate;
// anything else is logged and swallowed.
func Extract(page detect.Page, answerText string, opts Options) ([]Reference, error) {
	opts.defaults()

	container, err := FindContainer(page, answerText, opts.Selector, opts.Recoverable)
	if err != nil {
		return nil, err
	}
	if container == nil {
		opts.Logger.Debug("sources: no container matched answer text")
		return nil, nil
	}

	raw, err := container.HTML()
	if err != nil {
		if opts.Recoverable != nil && opts.Recoverable(err) {
			return nil, fmt.Errorf("while reading answer container HTML: %w", err)
		}
		opts.Logger.Debug("sources: container HTML read failed", "error", err)
		return nil, nil
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		opts.Logger.Debug("sources: container HTML parse failed", "error", err)
		return nil, nil
	}

	return harvest(doc), nil
}

// FindContainer scans the answer containers in reverse DOM order, newest
// first, and returns the first whose text is likely the same answer.
// Returns (nil, nil) when no container matches.
func FindContainer(page detect.Page, answerText, selector string, recoverable func(error) bool) (detect.Element, error) {
	els, err := page.Elements(selector)
	if err != nil {
		if recoverable != nil && recoverable(err) {
			return nil, fmt.Errorf("while querying answer containers for sources: %w", err)
		}
		return nil, nil
	}
	for i := len(els) - 1; i >= 0; i-- {
		text, err := els[i].Text()
		if err != nil {
			if recoverable != nil && recoverable(err) {
				return nil, fmt.Errorf("while matching answer container: %w", err)
			}
			continue
		}
		if detect.LikelySameAnswer(text, answerText) {
			return els[i], nil
		}
	}
	return nil, nil
}
