package retrieval

import (
	"errors"
	"math"
	"sort"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrDimensionMismatch is returned when two vectors differ in length.
	ErrDimensionMismatch = errors.New("embedding dimensions do not match")

	// ErrZeroVector is returned when a vector has zero magnitude.
	ErrZeroVector = errors.New("embedding has zero magnitude")
)

// =============================================================================
// Cosine Similarity
// =============================================================================

// Cosine computes the cosine similarity of two embeddings.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// =============================================================================
// Top-K Ranking
// =============================================================================

// Scored pairs an item index with its similarity score.
type Scored struct {
	Index int
	Score float64
}

// TopK ranks candidate embeddings against a query and returns the k best,
// highest similarity first. Candidates that fail to score (zero vectors,
// wrong dimension) are skipped rather than failing the whole search.
func TopK(query []float32, candidates [][]float32, k int) []Scored {
	if k <= 0 {
		return nil
	}

	scored := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		score, err := Cosine(query, c)
		if err != nil {
			continue
		}
		scored = append(scored, Scored{Index: i, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
