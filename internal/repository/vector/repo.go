// Package vector stores records as Valkey/Redis hashes behind an HNSW FT index.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "default"

// store is the consumer interface for the vector index (ISP).
type store interface {
	db.Pinger
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Close()
}

// HNSWConfig holds HNSW index tuning parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config describes the index layout.
type Config struct {
	Name       string
	Namespace  string
	Dimensions int
	HNSW       HNSWConfig
}

// Repo implements the vector index over a hash store.
type Repo struct {
	store     store
	dims      int
	hnsw      HNSWConfig
	prefix    string
	indexName string
}

// New creates a hash-backed vector index repository.
func New(s store, cfg Config) *Repo {
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	base := cfg.Name + ":" + ns
	return &Repo{
		store:     s,
		dims:      cfg.Dimensions,
		hnsw:      cfg.HNSW,
		prefix:    base + ":",
		indexName: base + ":idx",
	}
}

// EnsureIndex creates the FT index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(r.indexName).
		Prefix(r.prefix).
		Tag(fieldContent).
		VectorHNSW(fieldVector, r.dims, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).As("vector").
		Build()
	if err != nil {
		return fmt.Errorf("build index %s: %w", r.indexName, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("%s: %w", def, err)
	}
	return nil
}

// Upsert writes records in one pipelined round-trip, replacing existing ones.
func (r *Repo) Upsert(ctx context.Context, records []domain.Record) error {
	items := make([]db.HashSetItem, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Values) != r.dims {
			return fmt.Errorf("record %s: got %d dims, index has %d: %w",
				rec.ID, len(rec.Values), r.dims, domain.ErrVectorDimMismatch)
		}
		fields, err := buildHashFields(rec)
		if err != nil {
			return err
		}
		items = append(items, db.HashSetItem{Key: r.key(rec.ID), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(items), err)
	}
	return nil
}

// Query returns the topK nearest records with metadata, best first.
func (r *Repo) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{fieldMetadata},
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.indexName, err)
	}

	matches := make([]domain.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		matches = append(matches, domain.Match{
			ID:       strings.TrimPrefix(e.Key, r.prefix),
			Score:    e.Score,
			Metadata: parseMetadata(e.Fields[fieldMetadata]),
		})
	}
	return matches, nil
}

// Fetch returns one record by id.
func (r *Repo) Fetch(ctx context.Context, id string) (domain.Item, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, fmt.Errorf("fetch %s: %w", id, err)
	}
	return domain.Item{ID: id, Metadata: parseMetadata(m[fieldMetadata])}, nil
}

// Delete removes a record. Absent ids are not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Ping checks the backing store.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Close releases the backing store.
func (r *Repo) Close() {
	r.store.Close()
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}
