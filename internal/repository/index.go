// Package repository holds the vector index backends and the contract they share.
package repository

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// VectorIndex is the contract every vector index backend implements.
type VectorIndex interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, records []domain.Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)
	Fetch(ctx context.Context, id string) (domain.Item, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close()
}
