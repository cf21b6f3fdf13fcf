// Package textchunk splits long text into translation-safe chunks while
// preserving word boundaries where the text allows it.
package textchunk

import (
	"strings"
	"unicode"
)

// DefaultChunkSize bounds one translation provider call: large enough to
// limit call count, small enough to avoid provider timeouts on long
// transcripts.
const DefaultChunkSize = 1200

// boundaryRatio is the fraction of the chunk size past which a whitespace
// break is preferred over a hard cut.
const boundaryRatio = 0.7

// Split divides text into ordered, trimmed, non-empty chunks of at most
// maxSize runes. When the last whitespace inside a window falls at or after
// 70% of maxSize the cut happens there, avoiding a mid-word split for most
// natural text; otherwise the cut is exactly at maxSize. Empty or
// whitespace-only input yields no chunks.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}

	remaining := []rune(strings.TrimSpace(text))

	var chunks []string

	for len(remaining) > 0 {
		if len(remaining) <= maxSize {
			chunk := strings.TrimSpace(string(remaining))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}

			break
		}

		cut := maxSize
		if breakAt := lastWhitespace(remaining[:maxSize]); breakAt >= int(float64(maxSize)*boundaryRatio) {
			cut = breakAt
		}

		chunk := strings.TrimSpace(string(remaining[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		remaining = trimLeadingSpace(remaining[cut:])
	}

	return chunks
}

// lastWhitespace returns the index of the last whitespace rune in window,
// or -1 when the window contains none.
func lastWhitespace(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}

	return -1
}

func trimLeadingSpace(runes []rune) []rune {
	start := 0
	for start < len(runes) && unicode.IsSpace(runes[start]) {
		start++
	}

	return runes[start:]
}
