package detect

import (
	"context"
	"encoding/json"
	"time"
)

// Element is one live DOM element. Implementations may fail on any call
// when the backing page is gone; the engine classifies such failures via
// Options.Recoverable.
type Element interface {
	// Text returns the rendered inner text.
	Text() (string, error)

	// Visible reports whether the element takes part in layout.
	Visible() (bool, error)

	// HTML returns the outer HTML.
	HTML() (string, error)

	// Parent returns the parent element, or (nil, nil) at the document root.
	Parent() (Element, error)

	// Tag returns the lower-cased tag name.
	Tag() (string, error)

	// Attr returns an attribute value, "" when absent.
	Attr(name string) (string, error)
}

// Page is the capability the engine borrows for the duration of one call.
// It is owned by the caller and never retained.
type Page interface {
	// Elements returns all elements matching a CSS selector, in DOM order.
	Elements(selector string) ([]Element, error)

	// Has returns the first match for a selector, reporting whether one exists.
	Has(selector string) (Element, bool, error)

	// Eval runs a side-effect-free function expression inside the page and
	// returns its JSON-serialized result.
	Eval(ctx context.Context, js string) (json.RawMessage, error)

	// Wait suspends for roughly d using the page's own timing primitive and
	// returns the duration actually waited. The engine treats early returns
	// as a sign the primitive is unreliable and compensates.
	Wait(ctx context.Context, d time.Duration) (time.Duration, error)
}
