package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParagraphSplitter_SplitsOnBlankLines(t *testing.T) {
	s := NewParagraphSplitter(1000, 0)

	chunks := s.Split("Paris is the capital of France.\n\nBerlin is the capital of Germany.")
	require.Len(t, chunks, 2)
	assert.Equal(t, "Paris is the capital of France.", chunks[0])
	assert.Equal(t, "Berlin is the capital of Germany.", chunks[1])
}

func TestParagraphSplitter_EmptyInput(t *testing.T) {
	s := NewParagraphSplitter(1000, 0)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n\t  \n"))
}

func TestParagraphSplitter_NonEmptyYieldsAtLeastOneChunk(t *testing.T) {
	s := NewParagraphSplitter(1000, 0)

	chunks := s.Split("x")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "x", chunks[0])
}

func TestParagraphSplitter_SubdividesOversizedParagraphs(t *testing.T) {
	s := NewParagraphSplitter(50, 10)

	long := strings.Repeat("alpha beta gamma delta ", 20)
	chunks := s.Split(long)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}

func TestWindowSplitter_ShortContentSingleChunk(t *testing.T) {
	w := NewWindowSplitter(100, 20)

	chunks := w.Split("short content")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short content", chunks[0])
}

func TestWindowSplitter_Reconstruction(t *testing.T) {
	// with zero overlap the concatenated chunks reconstruct the content
	w := NewWindowSplitter(20, 0)

	content := "aaaaaaaaaa bbbbbbbbbb cccccccccc dddddddddd"
	chunks := w.Split(content)
	require.Greater(t, len(chunks), 1)

	joined := strings.Join(chunks, " ")
	assert.Equal(t, strings.ReplaceAll(content, " ", ""), strings.ReplaceAll(joined, " ", ""))
}

func TestWindowSplitter_OverlapCarriesContext(t *testing.T) {
	w := NewWindowSplitter(20, 5)

	content := strings.Repeat("abcde ", 20)
	chunks := w.Split(content)
	require.Greater(t, len(chunks), 1)
	// every chunk stays within the window size
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
	}
}

func TestWindowSplitter_EmptyInput(t *testing.T) {
	w := NewWindowSplitter(100, 10)

	assert.Empty(t, w.Split(""))
	assert.Empty(t, w.Split("   "))
}

func TestNewWindowSplitter_ClampsBadParams(t *testing.T) {
	w := NewWindowSplitter(10, 50)
	assert.Equal(t, 5, w.Overlap)

	w = NewWindowSplitter(0, -1)
	assert.Equal(t, defaultChunkSize, w.Size)
	assert.Equal(t, 0, w.Overlap)
}
