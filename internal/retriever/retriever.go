package retriever

import (
	"math"
	"sort"

	"secassist/internal/models"
)

// Cosine returns the cosine similarity of a and b. A zero-norm vector scores 0
// rather than dividing by zero. Vectors are not assumed to be pre-normalized.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank returns chunk indices ordered by descending similarity to the query.
// Ties break toward the lowest index, earliest in the document.
func Rank(query []float32, vectors [][]float32) []int {
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		scores[i] = Cosine(query, v)
	}
	idxs := make([]int, len(vectors))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] > scores[idxs[j]]
	})
	return idxs
}

// TopK returns the k chunks most similar to the query. The conversational flow
// always asks for k=1; general k is supported. Zero chunks in, zero chunks out.
func TopK(query []float32, chunks []models.Chunk, k int) []models.Chunk {
	if len(chunks) == 0 || k <= 0 {
		return nil
	}
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vectors[i] = c.Vector
	}
	idxs := Rank(query, vectors)
	if k > len(idxs) {
		k = len(idxs)
	}
	out := make([]models.Chunk, 0, k)
	for _, i := range idxs[:k] {
		out = append(out, chunks[i])
	}
	return out
}
