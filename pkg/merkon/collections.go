package merkon

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/storage"
)

// CreateCollection creates an empty collection and persists. Creating an existing
// collection changes nothing but still writes the snapshot.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.end()
	return s.snap.Update(ctx, func(db *storage.Database) {
		db.AddCollection(name)
	})
}

// DoesCollectionExist reports whether name exists.
func (s *Store) DoesCollectionExist(ctx context.Context, name string) (bool, error) {
	if err := s.begin(ctx); err != nil {
		return false, err
	}
	defer s.end()
	var ok bool
	s.snap.View(func(db *storage.Database) {
		ok = db.IsCollectionExists(name)
	})
	return ok, nil
}

// GetCollections returns the collection names in creation order. The names are read
// when iteration starts, so every range over the sequence sees the current state.
// Iteration yields nothing once ctx is done or the store is closed.
func (s *Store) GetCollections(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		if err := s.check(ctx); err != nil {
			return
		}
		var names []string
		s.snap.View(func(db *storage.Database) {
			names = db.GetCollections()
		})
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// DeleteCollection removes a collection and all its records, then persists.
// Deleting a missing collection is not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.end()
	var removed bool
	err := s.snap.Update(ctx, func(db *storage.Database) {
		removed = db.RemoveCollection(name)
	})
	if err == nil && removed {
		s.logger.Debug("collection deleted", zap.String("collection", name))
	}
	return err
}
