package merkon

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/storage"
)

// CollectionStats describes one collection.
type CollectionStats struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
}

// Stats describes a store.
type Stats struct {
	Path        string            `json:"path,omitempty"`
	ReadOnly    bool              `json:"read_only"`
	FileSize    int64             `json:"file_size"`
	Records     int               `json:"records"`
	Collections []CollectionStats `json:"collections"`
}

type sizer interface {
	Size() (int64, error)
}

// Stats returns the collections with their record counts and the snapshot size.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.end()
	st := &Stats{Path: s.path, ReadOnly: s.opts.readOnly, Collections: []CollectionStats{}}
	s.snap.View(func(db *storage.Database) {
		for _, name := range db.GetCollections() {
			n := db.Len(name)
			st.Collections = append(st.Collections, CollectionStats{Name: name, Records: n})
			st.Records += n
		}
	})
	if sz, ok := s.persister.(sizer); ok {
		size, err := sz.Size()
		if err != nil {
			return nil, fmt.Errorf("snapshot size: %w", err)
		}
		st.FileSize = size
	}
	return st, nil
}

// ExportSQLite writes every collection to a SQLite database at path.
func (s *Store) ExportSQLite(ctx context.Context, path string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.end()
	return storage.ExportSQLite(ctx, s.snap.Snapshot(), path)
}

// ImportSQLite upserts every record of a database written by ExportSQLite and persists
// once. Collections are created as needed; existing records with the same key are
// replaced. It returns the number of records imported.
func (s *Store) ImportSQLite(ctx context.Context, path string) (int, error) {
	if err := s.begin(ctx); err != nil {
		return 0, err
	}
	defer s.end()
	src, err := storage.ImportSQLite(ctx, path)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.snap.Update(ctx, func(db *storage.Database) {
		for _, name := range src.GetCollections() {
			db.AddCollection(name)
			for _, e := range src.GetCollection(name) {
				if e.Key == "" {
					continue
				}
				db.InsertOrUpdate(name, e.Key, e.Metadata, e.Embedding, e.Timestamp)
				n++
			}
		}
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("imported records", zap.String("source", path), zap.Int("records", n))
	return n, nil
}
