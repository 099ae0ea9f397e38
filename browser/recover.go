package browser

import (
	"errors"
	"regexp"

	"github.com/hazyhaar/chatwatch/detect"
)

// recoverablePatterns match the message shapes CDP and Rod produce when the
// page, tab, or browser is gone for good. String matching against a
// third-party library's error text is fragile by nature, which is why the
// whole strategy hides behind this one predicate: call sites depend on the
// boolean, never on the patterns.
var recoverablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)target (?:closed|crashed|detached)`),
	regexp.MustCompile(`(?i)session (?:closed|not found)`),
	regexp.MustCompile(`(?i)browser (?:has been|is) closed`),
	regexp.MustCompile(`(?i)page (?:has been|is) closed`),
	regexp.MustCompile(`(?i)execution context (?:was )?destroyed`),
	regexp.MustCompile(`(?i)cannot find context`),
	regexp.MustCompile(`(?i)websocket.*(?:closed|broken)`),
	regexp.MustCompile(`(?i)connection (?:closed|reset|refused)`),
	regexp.MustCompile(`(?i)disconnected`),
	regexp.MustCompile(`(?i)unresponsive`),
	regexp.MustCompile(`(?i)health check timed out`),
}

// IsRecoverable reports whether an error indicates a dead or wedged
// browser/page state, i.e. the caller should recover the session rather
// than retry the operation. Transient single-element failures report false
// and are skipped by the engine.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, detect.ErrPageUnresponsive) {
		return true
	}
	msg := err.Error()
	for _, pat := range recoverablePatterns {
		if pat.MatchString(msg) {
			return true
		}
	}
	return false
}
