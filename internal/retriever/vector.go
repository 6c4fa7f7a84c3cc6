package retriever

import (
	"context"
	"math"
)

// VectorIndex stores listing embeddings keyed by listing id. The index
// has no filter capability of its own: the retriever always resolves
// the relational candidate set first and asks only for those vectors,
// which gives post-filter-intersection semantics by construction.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, vector []float32) error
	Vectors(ctx context.Context, ids []string) (map[string][]float32, error)
	Delete(ctx context.Context, ids []string) error
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// similarityScore maps an L2 distance into (0, 1]: distance 0 → 1.0,
// distance 1 → 0.5, strictly decreasing.
func similarityScore(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}
