package models

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is wrapped by every MatchQuery validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// MatchQuery is a nearest-match request against one collection.
type MatchQuery struct {
	Embedding      []float32 `json:"embedding"`
	Text           string    `json:"text,omitempty"` // embedded server-side when Embedding is empty
	Limit          int       `json:"limit,omitempty"`
	MinScore       float64   `json:"min_score,omitempty"`
	WithEmbeddings bool      `json:"with_embeddings,omitempty"`
}

// Validate checks the query has something to search with and normalizes the limit:
// zero becomes defaultLimit and values above maxLimit are capped. A negative limit is
// left alone; the engine answers it with an empty result.
func (q *MatchQuery) Validate(defaultLimit, maxLimit int) error {
	if len(q.Embedding) == 0 && q.Text == "" {
		return fmt.Errorf("%w: needs an embedding or text", ErrInvalidQuery)
	}
	if q.MinScore < -1 || q.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be within [-1, 1], got %v", ErrInvalidQuery, q.MinScore)
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}
