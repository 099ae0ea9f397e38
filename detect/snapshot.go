package detect

import (
	"fmt"
	"strings"
)

// Baseline captures the text of every currently visible answer container in
// one pass. Callers take it before submitting a question and feed it to
// Options.Ignore so stale answers can never be returned as new. Stateless:
// per-element read failures skip that element only.
func Baseline(page Page, sel Selectors) ([]string, error) {
	els, err := page.Elements(sel.Answer)
	if err != nil {
		return nil, fmt.Errorf("while snapshotting answer containers: %w", err)
	}
	var texts []string
	for _, el := range els {
		vis, err := el.Visible()
		if err != nil || !vis {
			continue
		}
		text, err := el.Text()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// CountAnswers returns the number of currently visible answer containers.
func CountAnswers(page Page, sel Selectors) (int, error) {
	els, err := page.Elements(sel.Answer)
	if err != nil {
		return 0, fmt.Errorf("while counting answer containers: %w", err)
	}
	n := 0
	for _, el := range els {
		if vis, err := el.Visible(); err == nil && vis {
			n++
		}
	}
	return n, nil
}
