package detect

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"plain", "plain"},
		{"  leading and trailing  ", "leading and trailing"},
		{"inner\t\twhitespace\n\nruns", "inner whitespace runs"},
		{"a\r\nb", "a b"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLikelySameAnswer_ExactAfterNormalization(t *testing.T) {
	if !LikelySameAnswer("Paris  is\nthe capital.", "Paris is the capital.") {
		t.Error("whitespace variants must match")
	}
}

func TestLikelySameAnswer_EmptyNeverMatches(t *testing.T) {
	if LikelySameAnswer("", "") {
		t.Error("empty inputs must not match")
	}
	if LikelySameAnswer("   ", "text") {
		t.Error("blank input must not match")
	}
}

func TestLikelySameAnswer_LongSubstringContainment(t *testing.T) {
	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 3)
	longer := long + "Extra trailing content appended by the page after capture."
	if !LikelySameAnswer(long, longer) {
		t.Error("long substring containment must match")
	}
	if !LikelySameAnswer(longer, long) {
		t.Error("containment must be symmetric in argument order")
	}
}

func TestLikelySameAnswer_ShortSubstringRejected(t *testing.T) {
	if LikelySameAnswer("Paris", "Paris is the capital of France.") {
		t.Error("short strings must only match exactly")
	}
}

func TestLikelySameAnswer_BothMustReachThreshold(t *testing.T) {
	long := strings.Repeat("word ", 40)
	if LikelySameAnswer("word", long) {
		t.Error("containment needs both strings at the length threshold")
	}
}
