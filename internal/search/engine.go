// Package search provides exhaustive nearest-match search over a collection.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/config"
	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/internal/models"
	"github.com/hyperjump/merkon/internal/vector"
)

// ErrNoEmbedder is returned for text queries when the engine has no embedder.
var ErrNoEmbedder = errors.New("text query requires an embedder")

// Source is the collection storage the engine scans.
type Source interface {
	// PurgeEmptyKeys drops empty-keyed entries from collection.
	PurgeEmptyKeys(ctx context.Context, collection string) (int, error)
	// Entries returns a copy of the entries in collection, in stored order.
	Entries(collection string) []*models.Entry
}

// Engine runs brute-force cosine search.
type Engine struct {
	source   Source
	embedder embedding.Embedder
	config   *config.SearchConfig
	logger   *zap.Logger
}

// NewEngine creates a search engine. embedder may be nil, in which case only
// embedding queries are accepted by Search.
func NewEngine(source Source, embedder embedding.Embedder, cfg *config.SearchConfig, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = &config.SearchConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{source: source, embedder: embedder, config: cfg, logger: logger}
}

// NearestMatches scores every record of collection against query and returns up to
// limit records with score >= minScore, best first. Records with equal scores keep
// their stored order. A limit <= 0 returns an empty result without touching the
// collection. A record whose embedding length differs from the query fails the whole
// search with a *vector.DimensionMismatchError.
func (e *Engine) NearestMatches(
	ctx context.Context,
	collection string,
	query []float32,
	limit int,
	minScore float64,
	withEmbeddings bool,
) ([]*models.ScoredRecord, error) {
	if limit <= 0 {
		return []*models.ScoredRecord{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := e.source.PurgeEmptyKeys(ctx, collection); err != nil {
		return nil, fmt.Errorf("purge empty keys: %w", err)
	}

	entries := e.source.Entries(collection)
	results := make([]*models.ScoredRecord, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := models.FromEntry(entry, true)
		if err != nil {
			return nil, err
		}
		score, err := vector.CosineSimilarity(query, record.Embedding)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", entry.Key, err)
		}
		if score < minScore {
			continue
		}
		if !withEmbeddings {
			record = record.WithoutEmbedding()
		}
		results = append(results, &models.ScoredRecord{Record: record, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	e.logger.Debug("nearest matches",
		zap.String("collection", collection),
		zap.Int("scanned", len(entries)),
		zap.Int("returned", len(results)))
	return results, nil
}

// Search validates a copy of query, embeds its text when no embedding is given, and
// runs NearestMatches. A zero MinScore falls back to the configured minimum. The
// caller's query is left unchanged.
func (e *Engine) Search(ctx context.Context, collection string, query *models.MatchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if query == nil {
		return nil, fmt.Errorf("%w: nil query", models.ErrInvalidQuery)
	}
	q := *query
	if err := q.Validate(e.config.DefaultLimit, e.config.MaxLimit); err != nil {
		return nil, err
	}
	if q.MinScore == 0 {
		q.MinScore = e.config.MinScore
	}

	vec := q.Embedding
	if len(vec) == 0 {
		if e.embedder == nil {
			return nil, ErrNoEmbedder
		}
		emb, err := e.embedder.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding failed: %w", err)
		}
		vec = emb
	}

	results, err := e.NearestMatches(ctx, collection, vec, q.Limit, q.MinScore, q.WithEmbeddings)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Collection: collection,
		Results:    results,
		Total:      len(results),
		QueryTime:  time.Since(startTime).Milliseconds(),
	}, nil
}
