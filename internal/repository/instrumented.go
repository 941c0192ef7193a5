package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// Compile-time check: Instrumented implements VectorIndex.
var _ VectorIndex = (*Instrumented)(nil)

// Instrumented records Prometheus metrics for every vector index call.
type Instrumented struct {
	inner  VectorIndex
	driver string
}

// NewInstrumented wraps a backend; driver is the metrics label.
func NewInstrumented(inner VectorIndex, driver string) *Instrumented {
	return &Instrumented{inner: inner, driver: driver}
}

// EnsureIndex implements VectorIndex.
func (i *Instrumented) EnsureIndex(ctx context.Context) error {
	start := time.Now()
	err := i.inner.EnsureIndex(ctx)
	metrics.ObserveIndexOp(i.driver, "ensure_index", time.Since(start), err)
	return err //nolint:wrapcheck // transparent decorator
}

// Upsert implements VectorIndex.
func (i *Instrumented) Upsert(ctx context.Context, records []domain.Record) error {
	start := time.Now()
	err := i.inner.Upsert(ctx, records)
	metrics.ObserveIndexOp(i.driver, "upsert", time.Since(start), err)
	return err //nolint:wrapcheck // transparent decorator
}

// Query implements VectorIndex.
func (i *Instrumented) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	start := time.Now()
	matches, err := i.inner.Query(ctx, vector, topK)
	metrics.ObserveIndexOp(i.driver, "query", time.Since(start), err)
	return matches, err //nolint:wrapcheck // transparent decorator
}

// Fetch implements VectorIndex. A missing record is not counted as an error.
func (i *Instrumented) Fetch(ctx context.Context, id string) (domain.Item, error) {
	start := time.Now()
	item, err := i.inner.Fetch(ctx, id)
	observed := err
	if errors.Is(err, domain.ErrNotFound) {
		observed = nil
	}
	metrics.ObserveIndexOp(i.driver, "fetch", time.Since(start), observed)
	return item, err //nolint:wrapcheck // transparent decorator
}

// Delete implements VectorIndex.
func (i *Instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := i.inner.Delete(ctx, id)
	metrics.ObserveIndexOp(i.driver, "delete", time.Since(start), err)
	return err //nolint:wrapcheck // transparent decorator
}

// Ping implements VectorIndex.
func (i *Instrumented) Ping(ctx context.Context) error {
	return i.inner.Ping(ctx) //nolint:wrapcheck // transparent decorator
}

// Close implements VectorIndex.
func (i *Instrumented) Close() {
	i.inner.Close()
}
