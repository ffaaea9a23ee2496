// Package vectorstore persists issue documents with their embeddings and
// answers similarity queries over them.
package vectorstore

import (
	"context"
	"fmt"
	"math"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/embedding"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// MaxK is the largest number of results a single query may return.
const MaxK = 20

// Store is the vector store adapter used by ingestion and retrieval.
//
// Upsert assigns a fresh id to every document and never deduplicates:
// ingesting the same issues twice without Reset yields duplicates.
// A Query observes either all or none of a concurrent Upsert batch.
type Store interface {
	// Reset destroys the collection. A missing collection is not an error.
	Reset(ctx context.Context) error
	// Upsert embeds and stores docs, returning the assigned ids in order.
	Upsert(ctx context.Context, docs []models.IssueDocument) ([]string, error)
	// Replace embeds docs and then swaps them in for the collection's
	// current contents. If embedding fails the collection is unchanged.
	Replace(ctx context.Context, docs []models.IssueDocument) ([]string, error)
	// Query returns up to k documents ordered by descending similarity to text.
	Query(ctx context.Context, text string, k int) ([]models.SearchResult, error)
	// Count reports the number of stored documents.
	Count(ctx context.Context) (int, error)
	Close() error
}

// embedAll embeds the content of every document, failing on the first error.
func embedAll(ctx context.Context, e embedding.Embedder, docs []models.IssueDocument) ([][]float32, error) {
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.Embed(ctx, d.Content)
		if err != nil {
			return nil, fmt.Errorf("embed issue #%d: %w", d.Metadata.Number, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// ClampK bounds k to [1, MaxK].
func ClampK(k int) int {
	switch {
	case k < 1:
		return 1
	case k > MaxK:
		return MaxK
	default:
		return k
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var (
	_ Store = (*BoltStore)(nil)
	_ Store = (*MongoStore)(nil)
)
