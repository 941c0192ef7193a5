package pgvector

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

type queries struct {
	schema string
	upsert string
	query  string
	fetch  string
	delete string
}

// buildQueries renders the statements for a table. The table name is quoted as an identifier.
func buildQueries(cfg Config) queries {
	table := pgx.Identifier{cfg.Table}.Sanitize()
	index := pgx.Identifier{cfg.Table + "_embedding_idx"}.Sanitize()

	m, ef := cfg.HNSWM, cfg.HNSWEF
	if m <= 0 {
		m = 16
	}
	if ef <= 0 {
		ef = 64
	}

	return queries{
		schema: fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS %[1]s (
			namespace TEXT NOT NULL DEFAULT '',
			id TEXT NOT NULL,
			embedding vector(%[3]d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, id)
		);

		CREATE INDEX IF NOT EXISTS %[2]s
		ON %[1]s USING hnsw (embedding vector_cosine_ops) WITH (m = %[4]d, ef_construction = %[5]d);
	`, table, index, cfg.Dimensions, m, ef),

		upsert: fmt.Sprintf(`INSERT INTO %s (namespace, id, embedding, metadata)
		 VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (namespace, id)
		 DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata, updated_at = NOW()`, table),

		query: fmt.Sprintf(`SELECT id, 1 - (embedding <=> $2) AS score, metadata
		 FROM %s
		 WHERE namespace = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`, table),

		fetch: fmt.Sprintf(`SELECT metadata FROM %s WHERE namespace = $1 AND id = $2`, table),

		delete: fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND id = $2`, table),
	}
}
