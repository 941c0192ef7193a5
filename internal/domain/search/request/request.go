// Package request holds the validated form of a search query.
package request

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/smartsearch/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 500
)

// Defaults are the configured values applied when a query omits them.
type Defaults struct {
	TopK     int
	MinScore float64
}

// Request is a validated search query.
type Request struct {
	query       string
	contentType string
	topK        int
	minScore    float64
}

// New validates and normalizes search parameters.
// A nil minScore falls back to the configured default.
func New(query, contentType string, minScore *float64, defaults Defaults) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.NewValidationError("Missing search query ?q=")
	}
	if len(query) > MaxQueryLength {
		return Request{}, domain.NewValidationError(fmt.Sprintf("Search query too long (max %d chars)", MaxQueryLength))
	}

	score := defaults.MinScore
	if minScore != nil {
		score = *minScore
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Request{}, domain.NewValidationError("minScore must be a finite number")
	}

	topK := defaults.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Request{
		query:       query,
		contentType: strings.TrimSpace(contentType),
		topK:        topK,
		minScore:    score,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// ContentType returns the content type filter; empty matches every type.
func (r *Request) ContentType() string { return r.contentType }

// TopK returns the number of nearest neighbours to retrieve.
func (r *Request) TopK() int { return r.topK }

// MinScore returns the minimum similarity threshold.
func (r *Request) MinScore() float64 { return r.minScore }
