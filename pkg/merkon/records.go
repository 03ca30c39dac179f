package merkon

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/merkon/internal/models"
	"github.com/hyperjump/merkon/internal/storage"
)

// Upsert stores record under record.Metadata.ID, replacing any record with that key,
// and persists. record.Key is set to the ID and the key is returned.
func (s *Store) Upsert(ctx context.Context, collection string, record *MemoryRecord) (string, error) {
	if err := s.begin(ctx); err != nil {
		return "", err
	}
	defer s.end()
	if record == nil {
		return "", ErrNilRecord
	}
	record.Key = record.Metadata.ID
	e, err := record.ToEntry()
	if err != nil {
		return "", err
	}
	err = s.snap.Update(ctx, func(db *storage.Database) {
		db.InsertOrUpdate(collection, e.Key, e.Metadata, e.Embedding, e.Timestamp)
	})
	if err != nil {
		return "", err
	}
	return e.Key, nil
}

// UpsertBatch upserts records one at a time, in order, each with its own persist. The
// returned sequence is lazy: a record is stored when the sequence reaches it. Every
// record yields its key or its error; cancellation or Close yields the error once and
// ends the sequence.
func (s *Store) UpsertBatch(ctx context.Context, collection string, records []*MemoryRecord) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, r := range records {
			if err := s.check(ctx); err != nil {
				yield("", err)
				return
			}
			if !yield(s.Upsert(ctx, collection, r)) {
				return
			}
		}
	}
}

// Get returns the record stored under key, or nil when there is none. When
// withEmbedding is false the record carries an empty embedding.
func (s *Store) Get(ctx context.Context, collection, key string, withEmbedding bool) (*MemoryRecord, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.end()
	var e *models.Entry
	s.snap.Touch(func(db *storage.Database) {
		e = db.GetItem(collection, key)
	})
	if e == nil {
		return nil, nil
	}
	return models.FromEntry(e, withEmbedding)
}

// GetBatch looks keys up in order and yields each record. The sequence ends at the
// first key that has no record: later keys are not looked up even if they exist.
func (s *Store) GetBatch(ctx context.Context, collection string, keys []string, withEmbeddings bool) iter.Seq2[*MemoryRecord, error] {
	return func(yield func(*MemoryRecord, error) bool) {
		for _, key := range keys {
			r, err := s.Get(ctx, collection, key, withEmbeddings)
			if err != nil {
				yield(nil, err)
				return
			}
			if r == nil {
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Remove deletes the record stored under key and persists. A missing key is not an error.
func (s *Store) Remove(ctx context.Context, collection, key string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.end()
	return s.snap.Update(ctx, func(db *storage.Database) {
		db.RemoveItem(collection, key)
	})
}

// RemoveBatch removes every key concurrently, each removal persisting on its own.
// A failed removal does not stop the others; the first error is returned.
func (s *Store) RemoveBatch(ctx context.Context, collection string, keys []string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	var g errgroup.Group
	g.SetLimit(s.opts.batchConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			return s.Remove(ctx, collection, key)
		})
	}
	return g.Wait()
}
