package detect

import (
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// sameAnswerMinLen is the length both normalized strings must reach before
// substring containment counts as a match. Below it only exact equality
// matches, so short strings cannot spuriously contain each other.
const sameAnswerMinLen = 80

// Normalize collapses every whitespace run to a single space and trims ends.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// LikelySameAnswer reports whether a and b are plausibly the same answer
// text. Exact equality after normalization always matches. For long strings
// substring containment also matches, which absorbs minor truncation or
// trailing-content differences between a stored answer and its live DOM
// copy. Known trade-off: two genuinely different long answers sharing a
// long common substring can false-positive here.
func LikelySameAnswer(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if len(na) >= sameAnswerMinLen && len(nb) >= sameAnswerMinLen {
		return strings.Contains(na, nb) || strings.Contains(nb, na)
	}
	return false
}
