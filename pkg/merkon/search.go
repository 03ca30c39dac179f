package merkon

import "context"

// GetNearestMatches returns up to limit records of collection whose cosine similarity
// to embedding is at least minScore, best first; equal scores keep stored order.
// Records with an empty key are purged (and the purge persisted) before the scan.
// A limit <= 0 returns an empty result. A record with a different embedding length
// fails the query with an error matching ErrDimensionMismatch.
func (s *Store) GetNearestMatches(
	ctx context.Context,
	collection string,
	embedding []float32,
	limit int,
	minScore float64,
	withEmbeddings bool,
) ([]*ScoredRecord, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.end()
	return s.engine.NearestMatches(ctx, collection, embedding, limit, minScore, withEmbeddings)
}

// GetNearestMatch returns the best match scoring at least minScore, or nil.
func (s *Store) GetNearestMatch(
	ctx context.Context,
	collection string,
	embedding []float32,
	minScore float64,
	withEmbedding bool,
) (*ScoredRecord, error) {
	matches, err := s.GetNearestMatches(ctx, collection, embedding, 1, minScore, withEmbedding)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

// Search runs q against collection. Text queries need a store opened WithEmbedder;
// limits and the minimum score default to the WithSearchDefaults values.
func (s *Store) Search(ctx context.Context, collection string, q *MatchQuery) (*SearchResponse, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.end()
	return s.engine.Search(ctx, collection, q)
}
