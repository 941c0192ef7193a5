package search

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Index is the read side of the vector index.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)
	Fetch(ctx context.Context, id string) (domain.Item, error)
}

// Embedder vectorizes search queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
