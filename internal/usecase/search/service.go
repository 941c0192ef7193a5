// Package search answers semantic queries and item lookups against the vector index.
package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
)

// Service handles semantic search and single item reads.
type Service struct {
	index Index
	embed Embedder
}

// New creates a search service. embed is the query-side embedder.
func New(index Index, embed Embedder) *Service {
	return &Service{index: index, embed: embed}
}

// Search embeds the query, takes the top-K nearest records and keeps those
// matching the content type filter and reaching the score threshold.
// Index order (descending score) is preserved.
func (s *Service) Search(ctx context.Context, req request.Request) ([]domain.Match, error) {
	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)

	matches, err := s.index.Query(ctx, embResult.Embedding, req.TopK())
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	filtered := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if req.ContentType() != "" && m.Metadata.ContentType() != req.ContentType() {
			continue
		}
		if m.Score < req.MinScore() {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered, nil
}

// Get returns a single record by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Item, error) {
	if id == "" {
		return domain.Item{}, domain.NewValidationError("Missing item id")
	}
	item, err := s.index.Fetch(ctx, id)
	if err != nil {
		return domain.Item{}, fmt.Errorf("fetch item %s: %w", id, err)
	}
	return item, nil
}
