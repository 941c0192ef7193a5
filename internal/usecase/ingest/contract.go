package ingest

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Index is the write side of the vector index.
type Index interface {
	Upsert(ctx context.Context, records []domain.Record) error
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
