// Package ingest turns CMS webhook deliveries into vector index writes.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/content"
	"github.com/kailas-cloud/smartsearch/internal/logger"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// Actions reported in Result.
const (
	ActionUpserted = "upserted"
	ActionDeleted  = "deleted"
	actionFailed   = "failed"

	typeOther = "other"
)

// Result describes what a delivery did to the index.
type Result struct {
	ID          string
	ContentType string
	Action      string
}

// Service handles webhook deliveries.
type Service struct {
	shaper   *content.Shaper
	embedder Embedder
	index    Index
	logger   *zap.Logger
}

// New creates an ingest service. embedder is the document-side embedder.
func New(shaper *content.Shaper, embedder Embedder, index Index, logger *zap.Logger) *Service {
	return &Service{shaper: shaper, embedder: embedder, index: index, logger: logger}
}

// Ingest shapes, embeds and upserts the delivered entry, or deletes it for delete/unpublish events.
func (s *Service) Ingest(ctx context.Context, p *Payload) (Result, error) {
	if p == nil || p.Data.Entry == nil {
		return Result{}, domain.NewValidationError("No entry in webhook payload")
	}
	contentType := p.Data.ContentType.UID

	res, err := s.apply(ctx, p, contentType)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(typeLabel(contentType), actionFailed).Inc()
		return Result{}, err
	}
	metrics.WebhookEventsTotal.WithLabelValues(typeLabel(contentType), res.Action).Inc()
	return res, nil
}

// typeLabel bounds the metric label to the known content types.
func typeLabel(contentType string) string {
	switch contentType {
	case content.TypeProducts, content.TypeBlogs, content.TypeEvents:
		return contentType
	}
	return typeOther
}

func (s *Service) apply(ctx context.Context, p *Payload, contentType string) (Result, error) {
	log := logger.FromContext(ctx, s.logger)

	if p.removes() {
		uid := p.Data.Entry.UID()
		if uid == "" {
			return Result{}, domain.NewValidationError("Entry uid is missing")
		}
		if err := s.index.Delete(ctx, uid); err != nil {
			return Result{}, fmt.Errorf("delete entry %s: %w", uid, err)
		}
		log.Info("Deleted entry from index",
			zap.String("entry_uid", uid),
			zap.String("content_type", contentType),
			zap.String("event", p.Event),
		)
		return Result{ID: uid, ContentType: contentType, Action: ActionDeleted}, nil
	}

	shaped, err := s.shaper.Shape(p.Data.Entry, contentType)
	if err != nil {
		return Result{}, fmt.Errorf("shape entry: %w", err)
	}

	emb, err := s.embedder.Embed(ctx, shaped.Text)
	if err != nil {
		return Result{}, fmt.Errorf("vectorize entry %s: %w", shaped.Record.ID, err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	rec := shaped.Record
	rec.Values = emb.Embedding
	if err := s.index.Upsert(ctx, []domain.Record{rec}); err != nil {
		return Result{}, fmt.Errorf("upsert entry %s: %w", rec.ID, err)
	}

	log.Info("Upserted entry to index",
		zap.String("entry_uid", rec.ID),
		zap.String("content_type", contentType),
		zap.Int("dimensions", len(rec.Values)),
	)
	return Result{ID: rec.ID, ContentType: contentType, Action: ActionUpserted}, nil
}
