// Package textchunk_test tests the translation chunker.
package textchunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicebridge/voicebridge/internal/textchunk"
)

func TestSplit_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, textchunk.Split("", 100))
	assert.Empty(t, textchunk.Split("   ", 100))
	assert.Empty(t, textchunk.Split("\n\t  \n", 100))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	t.Parallel()

	chunks := textchunk.Split("hello world", 100)

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplit_PrefersWordBoundaryPastSeventyPercent(t *testing.T) {
	t.Parallel()

	// One space at index 85 of a 120-rune text: past 70% of maxSize=100,
	// so the cut must land on the space, not at the hard boundary.
	text := strings.Repeat("a", 85) + " " + strings.Repeat("b", 34)

	chunks := textchunk.Split(text, 100)

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 85), chunks[0])
	assert.Equal(t, strings.Repeat("b", 34), chunks[1])
}

func TestSplit_HardCutWhenBoundaryTooEarly(t *testing.T) {
	t.Parallel()

	// The only space sits at index 20, before 70% of maxSize=100, so the
	// chunker cuts exactly at the hard boundary.
	text := strings.Repeat("a", 20) + " " + strings.Repeat("b", 150)

	chunks := textchunk.Split(text, 100)

	require.NotEmpty(t, chunks)
	assert.Equal(t, 100, len([]rune(chunks[0])))
}

func TestSplit_NoWhitespaceAtAll(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 250)

	chunks := textchunk.Split(text, 100)

	require.Len(t, chunks, 3)
	assert.Equal(t, 100, len([]rune(chunks[0])))
	assert.Equal(t, 100, len([]rune(chunks[1])))
	assert.Equal(t, 50, len([]rune(chunks[2])))
}

func TestSplit_RoundTripPreservesWords(t *testing.T) {
	t.Parallel()

	words := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		words = append(words, "word")
	}

	text := strings.Join(words, " ")

	chunks := textchunk.Split(text, 120)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 120)
		assert.Equal(t, chunk, strings.TrimSpace(chunk))
		assert.NotEmpty(t, chunk)
	}

	rejoined := strings.Join(chunks, " ")
	assert.Equal(t, text, rejoined)
}

func TestSplit_ChunkBoundsAndOrder(t *testing.T) {
	t.Parallel()

	text := "The quick brown fox jumps over the lazy dog. " +
		strings.Repeat("Pack my box with five dozen liquor jugs. ", 40)

	chunks := textchunk.Split(text, 90)

	require.NotEmpty(t, chunks)

	var rebuilt []string
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 90)
		rebuilt = append(rebuilt, chunk)
	}

	// Joining with single spaces reproduces the source up to whitespace
	// normalization.
	normalized := strings.Join(strings.Fields(text), " ")
	assert.Equal(t, normalized, strings.Join(rebuilt, " "))
}

func TestSplit_NonPositiveMaxUsesDefault(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", textchunk.DefaultChunkSize+10)

	chunks := textchunk.Split(text, 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, textchunk.DefaultChunkSize, len([]rune(chunks[0])))
}
