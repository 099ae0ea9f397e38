package sources

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/chatwatch/detect"
)

// citationPrefixRE strips a leading numeric citation marker ("3: ", "3) ",
// "3. ") from a label. The raw text keeps the prefix; only the title loses it.
var citationPrefixRE = regexp.MustCompile(`^\s*\d+\s*[:.)]\s*`)

var numericOnlyRE = regexp.MustCompile(`^\d+$`)

// labelDenylist is UI noise that never names a source. A URL legitimizes an
// otherwise-noisy label, so the filter is skipped for entries that carry one.
var labelDenylist = map[string]bool{
	"show citations":   true,
	"hide citations":   true,
	"show sources":     true,
	"hide sources":     true,
	"view sources":     true,
	"citation details": true,
	"sources":          true,
	"citations":        true,
	"…":                true,
	"...":              true,
}

// markerLabelAttrs are the describing attributes a citation marker may
// carry its label in, in lookup order.
var markerLabelAttrs = []string{"aria-label", "title", "data-source-title", "data-tooltip"}

// collector deduplicates references by lower-cased (title, url) as each is
// discovered, preserving discovery order.
type collector struct {
	refs []Reference
	seen map[string]bool
}

func (c *collector) add(title, url, raw string) {
	title = detect.Normalize(title)
	url = strings.TrimSpace(url)
	raw = detect.Normalize(raw)
	if title == "" {
		return
	}
	if !acceptLabel(title, url) {
		return
	}
	key := strings.ToLower(title) + "\n" + strings.ToLower(url)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.refs = append(c.refs, Reference{Title: title, URL: url, RawText: raw})
}

func acceptLabel(label, url string) bool {
	if url != "" {
		return true
	}
	l := strings.ToLower(label)
	if numericOnlyRE.MatchString(l) {
		return false
	}
	return !labelDenylist[l]
}

// harvest runs the three heuristics in sequence over one container's parse
// tree. The cap is applied after the final normalization pass.
func harvest(doc *html.Node) []Reference {
	c := &collector{seen: make(map[string]bool)}

	walk(doc, c.fromLink)
	walk(doc, c.fromMarker)
	walk(doc, c.fromSourceLike)

	if len(c.refs) > maxReferences {
		c.refs = c.refs[:maxReferences]
	}
	return c.refs
}

// fromLink harvests every hyperlink with an http(s) target. Title falls
// back to the URL itself when the link has no text.
func (c *collector) fromLink(n *html.Node) {
	if n.DataAtom != atom.A {
		return
	}
	href := attrVal(n, "href")
	if !isHTTPURL(href) {
		return
	}
	title := collectText(n)
	if title == "" {
		title = href
	}
	c.add(title, href, title)
}

// fromMarker harvests citation-marker elements by class and attribute
// conventions. The label comes from describing attributes or a labeled
// nested child; its numeric prefix is stripped from the title only.
func (c *collector) fromMarker(n *html.Node) {
	if n.Type != html.ElementNode || n.DataAtom == atom.A {
		return
	}
	if !isCitationMarker(n) {
		return
	}
	url := markerURL(n)
	for _, label := range markerLabels(n) {
		title := citationPrefixRE.ReplaceAllString(label, "")
		if detect.Normalize(title) == "" {
			continue
		}
		c.add(title, url, label)
		return
	}
}

// fromSourceLike harvests any non-link element matching a broad
// source/citation-like class or data-attribute pattern, using its text
// content directly.
func (c *collector) fromSourceLike(n *html.Node) {
	if n.Type != html.ElementNode || n.DataAtom == atom.A {
		return
	}
	if isCitationMarker(n) {
		return
	}
	if !hasSourceLikePattern(n) {
		return
	}
	text := collectText(n)
	c.add(text, "", text)
}

func isCitationMarker(n *html.Node) bool {
	if classContains(n, "citation-marker") || classContains(n, "citation-chip") {
		return true
	}
	if attrVal(n, "data-citation-id") != "" || attrVal(n, "data-citation") != "" {
		return true
	}
	return attrVal(n, "role") == "doc-noteref"
}

func hasSourceLikePattern(n *html.Node) bool {
	for _, token := range []string{"source", "citation", "cite", "reference"} {
		if classContains(n, token) {
			return true
		}
	}
	for _, a := range n.Attr {
		if !strings.HasPrefix(a.Key, "data-") {
			continue
		}
		for _, token := range []string{"source", "citation"} {
			if strings.Contains(a.Key, token) {
				return true
			}
		}
	}
	return false
}

func markerLabels(n *html.Node) []string {
	var labels []string
	for _, key := range markerLabelAttrs {
		if v := detect.Normalize(attrVal(n, key)); v != "" {
			labels = append(labels, v)
		}
	}
	// Nested labeled children, e.g. <span class="source-label">.
	var fromChildren func(*html.Node)
	fromChildren = func(c *html.Node) {
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode &&
				(classContains(child, "label") || classContains(child, "source-title")) {
				if v := detect.Normalize(collectText(child)); v != "" {
					labels = append(labels, v)
				}
			}
			fromChildren(child)
		}
	}
	fromChildren(n)
	return labels
}

func markerURL(n *html.Node) string {
	for _, key := range []string{"data-url", "data-href", "data-source-url"} {
		if v := attrVal(n, key); isHTTPURL(v) {
			return v
		}
	}
	return ""
}

// --- parse-tree helpers ---

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func classContains(n *html.Node, token string) bool {
	return strings.Contains(strings.ToLower(attrVal(n, "class")), token)
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return detect.Normalize(b.String())
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
