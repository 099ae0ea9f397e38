package sources

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parse(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestHarvest_Hyperlinks(t *testing.T) {
	doc := parse(t, `<div>
		<p>See <a href="https://example.com/a">Example Article</a> for details.</p>
		<a href="https://example.com/bare"></a>
		<a href="#footnote-3">3</a>
	</div>`)

	refs := harvest(doc)
	if len(refs) != 2 {
		t.Fatalf("refs: got %d (%v), want 2", len(refs), refs)
	}
	if refs[0].Title != "Example Article" || refs[0].URL != "https://example.com/a" {
		t.Errorf("refs[0]: got %+v", refs[0])
	}
	// A link without text keeps its URL as the title.
	if refs[1].Title != "https://example.com/bare" {
		t.Errorf("refs[1]: got %+v, want URL as title", refs[1])
	}
}

func TestHarvest_MarkerStripsNumericPrefix(t *testing.T) {
	doc := parse(t, `<p>The capital is Paris.
		<span class="citation-marker" aria-label="3: Wikipedia - Paris"></span>
	</p>`)

	refs := harvest(doc)
	if len(refs) != 1 {
		t.Fatalf("refs: got %d (%v), want 1", len(refs), refs)
	}
	got := refs[0]
	if got.Title != "Wikipedia - Paris" {
		t.Errorf("title: got %q, want numeric prefix stripped", got.Title)
	}
	if got.RawText != "3: Wikipedia - Paris" {
		t.Errorf("raw_text: got %q, want original label kept", got.RawText)
	}
	if got.URL != "" {
		t.Errorf("url: got %q, want empty", got.URL)
	}
}

func TestHarvest_MarkerURLFromDataAttr(t *testing.T) {
	doc := parse(t, `<span role="doc-noteref" title="BBC News"
		data-url="https://bbc.co.uk/article"></span>`)

	refs := harvest(doc)
	if len(refs) != 1 {
		t.Fatalf("refs: got %d (%v), want 1", len(refs), refs)
	}
	if refs[0].URL != "https://bbc.co.uk/article" {
		t.Errorf("url: got %q", refs[0].URL)
	}
}

func TestHarvest_MarkerLabelFromNestedChild(t *testing.T) {
	doc := parse(t, `<span data-citation-id="c7">
		<span class="source-title">Nature 2023 study</span>
	</span>`)

	refs := harvest(doc)
	if len(refs) != 1 {
		t.Fatalf("refs: got %d (%v), want 1", len(refs), refs)
	}
	if refs[0].Title != "Nature 2023 study" {
		t.Errorf("title: got %q", refs[0].Title)
	}
}

func TestHarvest_NumericOnlyLabelRejected(t *testing.T) {
	doc := parse(t, `<span class="citation-marker" aria-label="3"></span>`)

	if refs := harvest(doc); len(refs) != 0 {
		t.Errorf("refs: got %v, want none for a bare numeric label", refs)
	}
}

func TestHarvest_DenylistedLabelRejectedUnlessURL(t *testing.T) {
	doc := parse(t, `<div>
		<button class="sources-toggle">Show citations</button>
		<span class="citation-chip" aria-label="Sources"
			data-href="https://example.com/sources"></span>
	</div>`)

	refs := harvest(doc)
	if len(refs) != 1 {
		t.Fatalf("refs: got %d (%v), want 1 (URL legitimizes the label)", len(refs), refs)
	}
	if refs[0].URL != "https://example.com/sources" {
		t.Errorf("url: got %q", refs[0].URL)
	}
}

func TestHarvest_SourceLikeClass(t *testing.T) {
	doc := parse(t, `<div class="source-card">OECD report, 2024 edition</div>`)

	refs := harvest(doc)
	if len(refs) != 1 {
		t.Fatalf("refs: got %d (%v), want 1", len(refs), refs)
	}
	if refs[0].Title != "OECD report, 2024 edition" {
		t.Errorf("title: got %q", refs[0].Title)
	}
}

func TestHarvest_DeduplicatesAcrossOccurrences(t *testing.T) {
	doc := parse(t, `<div>
		<a href="https://example.com/a">Example Article</a>
		<a href="https://example.com/a">Example  Article</a>
	</div>`)

	if refs := harvest(doc); len(refs) != 1 {
		t.Errorf("refs: got %d (%v), want 1 after dedup", len(refs), refs)
	}
}

func TestHarvest_CapsReferenceCount(t *testing.T) {
	var b strings.Builder
	b.WriteString("<div>")
	for i := 0; i < maxReferences+10; i++ {
		fmt.Fprintf(&b, `<a href="https://example.com/%d">Source %d</a>`, i, i)
	}
	b.WriteString("</div>")

	refs := harvest(parse(t, b.String()))
	if len(refs) != maxReferences {
		t.Errorf("refs: got %d, want cap of %d", len(refs), maxReferences)
	}
}
