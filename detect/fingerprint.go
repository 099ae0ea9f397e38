package detect

// Fingerprint computes a cheap deterministic hash of normalized text:
// a rolling polynomial accumulation wrapped to the 32-bit signed range.
// Equal normalized text always yields an equal fingerprint. Collisions are
// tolerated by design: a colliding new text is treated as already known,
// a conservative bias that can at worst suppress one genuinely new answer.
// The known set never verifies against full text, trading accuracy for
// memory bounded by distinct texts seen rather than poll count.
func Fingerprint(text string) int32 {
	var h int32
	for _, r := range Normalize(text) {
		h = (h << 5) - h + int32(r)
	}
	return h
}

// Index is the call-scoped set of fingerprints already considered known.
type Index struct {
	known map[int32]struct{}
}

// NewIndex creates an Index seeded with the given texts. Empty texts are
// ignored.
func NewIndex(seed ...string) *Index {
	ix := &Index{known: make(map[int32]struct{}, len(seed))}
	for _, s := range seed {
		ix.Add(s)
	}
	return ix
}

// Add marks a text as known. No-op for empty text.
func (ix *Index) Add(text string) {
	if Normalize(text) == "" {
		return
	}
	ix.known[Fingerprint(text)] = struct{}{}
}

// Has reports whether the text's fingerprint is already known.
func (ix *Index) Has(text string) bool {
	if Normalize(text) == "" {
		return false
	}
	_, ok := ix.known[Fingerprint(text)]
	return ok
}

// Len returns the number of distinct fingerprints known.
func (ix *Index) Len() int {
	return len(ix.known)
}
