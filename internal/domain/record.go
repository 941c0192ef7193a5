package domain

import "encoding/json"

// MetadataContentType is the metadata key every record carries its CMS content type under.
const MetadataContentType = "content_type"

// Metadata is the flat attribute map stored next to a vector.
type Metadata map[string]any

// ContentType returns the content type uid recorded in the metadata, or "".
func (m Metadata) ContentType() string {
	s, _ := m[MetadataContentType].(string)
	return s
}

// Record is one vector index entry: the CMS entry uid, its embedding and metadata.
type Record struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Match is a nearest-neighbour hit returned by a vector index query.
type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Item is a fetched record as exposed to clients: the id merged with its metadata.
type Item struct {
	ID       string
	Metadata Metadata
}

// MarshalJSON flattens the item into {"id": ..., <metadata fields>}.
// The id wins over a metadata key of the same name.
func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Metadata)+1)
	for k, v := range i.Metadata {
		out[k] = v
	}
	out["id"] = i.ID
	return json.Marshal(out) //nolint:wrapcheck // plain encoding
}
