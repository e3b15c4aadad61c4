package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secassist/internal/models"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-5, 0}), 1e-9)
}

func TestCosine_ZeroNormIsZeroNotError(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{0, 0}))
	assert.Equal(t, 0.0, Cosine(nil, []float32{1, 2}))
}

func TestRank_DescendingSimilarity(t *testing.T) {
	query := []float32{1, 0}
	vectors := [][]float32{
		{0, 1},       // orthogonal
		{1, 0.1},     // close
		{1, 0},       // identical direction
		{-1, 0},      // opposite
	}
	idxs := Rank(query, vectors)
	assert.Equal(t, []int{2, 1, 0, 3}, idxs)
}

func TestRank_ScaleInvariant(t *testing.T) {
	query := []float32{3, 1, 2}
	vectors := [][]float32{
		{1, 2, 3},
		{2, 0, 1},
		{0, 1, 0},
	}
	scaled := make([][]float32, len(vectors))
	for i, v := range vectors {
		s := make([]float32, len(v))
		for j, x := range v {
			s[j] = 2 * x
		}
		scaled[i] = s
	}
	assert.Equal(t, Rank(query, vectors), Rank(query, scaled))
}

func TestRank_TiesBreakToLowestIndex(t *testing.T) {
	query := []float32{1, 0}
	vectors := [][]float32{
		{0, 1}, // zero similarity
		{2, 0}, // tied at 1.0
		{5, 0}, // tied at 1.0
	}
	idxs := Rank(query, vectors)
	assert.Equal(t, []int{1, 2, 0}, idxs)
}

func TestRank_DoesNotMutateInputs(t *testing.T) {
	query := []float32{1, 2}
	vectors := [][]float32{{3, 4}, {5, 6}}
	Rank(query, vectors)
	assert.Equal(t, []float32{1, 2}, query)
	assert.Equal(t, [][]float32{{3, 4}, {5, 6}}, vectors)
}

func TestTopK(t *testing.T) {
	chunks := []models.Chunk{
		{Index: 0, Text: "first", Vector: []float32{0, 1}},
		{Index: 1, Text: "second", Vector: []float32{1, 0}},
		{Index: 2, Text: "third", Vector: []float32{1, 1}},
	}
	query := []float32{1, 0}

	best := TopK(query, chunks, 1)
	require.Len(t, best, 1)
	assert.Equal(t, "second", best[0].Text)

	top2 := TopK(query, chunks, 2)
	require.Len(t, top2, 2)
	assert.Equal(t, "second", top2[0].Text)
	assert.Equal(t, "third", top2[1].Text)
}

func TestTopK_KLargerThanChunks(t *testing.T) {
	chunks := []models.Chunk{{Index: 0, Text: "only", Vector: []float32{1, 0}}}
	assert.Len(t, TopK([]float32{1, 0}, chunks, 10), 1)
}

func TestTopK_Degenerate(t *testing.T) {
	assert.Empty(t, TopK([]float32{1, 0}, nil, 1))
	assert.Empty(t, TopK([]float32{1, 0}, []models.Chunk{{Vector: []float32{1, 0}}}, 0))
}
