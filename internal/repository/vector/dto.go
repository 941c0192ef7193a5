package vector

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/db/redis"
	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Hash field names of a stored record.
const (
	fieldVector   = "__vector"
	fieldMetadata = "__metadata"
	fieldContent  = domain.MetadataContentType
)

// buildHashFields converts a record into a flat map for HSET.
func buildHashFields(rec *domain.Record) (map[string]string, error) {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata %s: %w", rec.ID, err)
	}
	m := map[string]string{
		fieldVector:   redis.VectorToBytes(rec.Values),
		fieldMetadata: string(meta),
	}
	if ct := rec.Metadata.ContentType(); ct != "" {
		m[fieldContent] = ct
	}
	return m, nil
}

// parseMetadata decodes the stored metadata blob. A missing or corrupt blob yields empty metadata.
func parseMetadata(raw string) domain.Metadata {
	meta := domain.Metadata{}
	if raw == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return domain.Metadata{}
	}
	return meta
}
