// Package pgvector stores records in PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Config describes the table layout.
type Config struct {
	Table      string
	Namespace  string
	Dimensions int
	HNSWM      int
	HNSWEF     int
}

// Repo implements the vector index over a pgvector table.
type Repo struct {
	pool      *pgxpool.Pool
	namespace string
	dims      int
	q         queries
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, dsn string, cfg Config) (*Repo, error) {
	if cfg.Table == "" {
		return nil, errors.New("table name is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Repo{
		pool:      pool,
		namespace: cfg.Namespace,
		dims:      cfg.Dimensions,
		q:         buildQueries(cfg),
	}, nil
}

// EnsureIndex creates the extension, table and HNSW index when missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, r.q.schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Upsert writes records in one batch, replacing existing ones.
func (r *Repo) Upsert(ctx context.Context, records []domain.Record) error {
	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		if len(rec.Values) != r.dims {
			return fmt.Errorf("record %s: got %d dims, table has %d: %w",
				rec.ID, len(rec.Values), r.dims, domain.ErrVectorDimMismatch)
		}
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", rec.ID, err)
		}
		batch.Queue(r.q.upsert, r.namespace, rec.ID, pgvector.NewVector(rec.Values), string(meta))
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert %d records: %w", batch.Len(), err)
	}
	return nil
}

// Query returns the topK nearest records by cosine distance.
func (r *Repo) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx, r.q.query, r.namespace, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			m    domain.Match
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.Score, &meta); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Metadata = decodeMetadata(meta)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	return matches, nil
}

// Fetch returns one record by id.
func (r *Repo) Fetch(ctx context.Context, id string) (domain.Item, error) {
	var meta []byte
	err := r.pool.QueryRow(ctx, r.q.fetch, r.namespace, id).Scan(&meta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, fmt.Errorf("fetch %s: %w", id, err)
	}
	return domain.Item{ID: id, Metadata: decodeMetadata(meta)}, nil
}

// Delete removes a record. Absent ids are not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, r.q.delete, r.namespace, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Ping checks the connection pool.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Close releases the pool.
func (r *Repo) Close() {
	r.pool.Close()
}

func decodeMetadata(raw []byte) domain.Metadata {
	meta := domain.Metadata{}
	if len(raw) == 0 {
		return meta
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return domain.Metadata{}
	}
	return meta
}
