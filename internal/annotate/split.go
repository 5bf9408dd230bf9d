package annotate

import "strings"

// DefaultMaxChunkSize is the per-chunk text budget in bytes.
const DefaultMaxChunkSize = 10000

// boundaryMarkers are tried in priority order when seeking a cut point:
// paragraph break, sentence end, word break.
var boundaryMarkers = []string{"\n\n", ". ", " "}

// Split breaks text into chunks of at most maxLen bytes, preferring to cut
// at natural boundaries. Each chunk is trimmed of surrounding whitespace and
// empty chunks are dropped. Pass maxLen <= 0 for the default budget.
func Split(text string, maxLen int) []string {
	var chunks []string
	for _, raw := range splitRaw(text, maxLen) {
		if c := strings.TrimSpace(raw); c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// splitRaw produces the untrimmed slices. Concatenating them in order
// reproduces the input exactly.
func splitRaw(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkSize
	}

	var slices []string
	cur := 0
	for cur < len(text) {
		end := cur + maxLen
		if end >= len(text) {
			// Trailing remainder fits in one chunk regardless of boundaries.
			slices = append(slices, text[cur:])
			break
		}
		end = seekBoundary(text, cur, end)
		slices = append(slices, text[cur:end])
		cur = end
	}
	return slices
}

// seekBoundary picks the cut point for the window [cur, cur+maxLen): the
// last paragraph break starting at or before the window end, else the last
// sentence end, else the last word break, else the raw window end itself.
// The hard-cut fallback lands mid-word but guarantees the cut always
// advances past cur, so splitting terminates on any input.
func seekBoundary(text string, cur, end int) int {
	for _, marker := range boundaryMarkers {
		limit := end + len(marker)
		if limit > len(text) {
			limit = len(text)
		}
		if i := strings.LastIndex(text[:limit], marker); i > cur {
			return i + len(marker)
		}
	}
	return end
}
