// Package merkon is an embedded vector store. A Store keeps named collections of
// records (key, JSON metadata, embedding, optional timestamp) in memory, rewrites the
// whole snapshot to a single file on every change, and answers exact nearest-match
// queries by cosine similarity.
//
//	store, err := merkon.Open(ctx, "/var/lib/app/vectors.bin")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	key, err := store.Upsert(ctx, "docs", merkon.NewInformationRecord("a", "hello", "", vec, "", nil))
//	matches, err := store.GetNearestMatches(ctx, "docs", query, 5, 0.7, false)
package merkon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/models"
	"github.com/hyperjump/merkon/internal/search"
	"github.com/hyperjump/merkon/internal/storage"
)

// DefaultDatabaseName is the database Connect opens for an empty name.
const DefaultDatabaseName = "vektordb"

type (
	// MemoryRecord is a record as callers see it.
	MemoryRecord = models.MemoryRecord
	// MemoryRecordMetadata identifies and describes a record; ID is its key.
	MemoryRecordMetadata = models.MemoryRecordMetadata
	// ScoredRecord pairs a record with its similarity to a query.
	ScoredRecord = models.ScoredRecord
	// MatchQuery is a nearest-match request for Search.
	MatchQuery = models.MatchQuery
	// SearchResponse is the result of Search.
	SearchResponse = models.SearchResponse
)

// NewReferenceRecord builds a record pointing at an external resource.
func NewReferenceRecord(externalID, sourceName, description string, embedding []float32, additionalMetadata string, ts *time.Time) *MemoryRecord {
	return models.NewReferenceRecord(externalID, sourceName, description, embedding, additionalMetadata, ts)
}

// NewInformationRecord builds a record holding a piece of text.
func NewInformationRecord(id, text, description string, embedding []float32, additionalMetadata string, ts *time.Time) *MemoryRecord {
	return models.NewInformationRecord(id, text, description, embedding, additionalMetadata, ts)
}

// Store is a file-backed set of collections. It is safe for concurrent use by
// multiple goroutines; exactly one process may own the backing file.
type Store struct {
	path      string
	persister storage.Persister
	snap      *storage.SnapshotStore
	engine    *search.Engine
	lock      *storage.FileLock
	logger    *zap.Logger
	opts      options

	closeMu sync.RWMutex
	closed  bool
}

// Open loads the snapshot at path, creating an empty one when the file does not exist.
// A snapshot that cannot be decoded does not fail Open: the store starts empty and the
// failure is logged and reported by LoadErr. Open fails with ErrLocked when another
// process holds the file lock.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Store{path: path, persister: o.persister, logger: o.logger, opts: o}
	if s.persister == nil {
		if path == "" {
			return nil, errors.New("merkon: empty database path")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		s.persister = storage.NewFilePersister(path)
		if o.lock && !o.readOnly {
			s.lock = storage.NewFileLock(path + ".lock")
			if err := s.lock.TryLock(); err != nil {
				return nil, err
			}
		}
	}

	s.snap = storage.NewSnapshotStore(s.persister,
		storage.WithLogger(o.logger),
		storage.WithPersistMode(o.persistMode),
		storage.WithCompression(o.compression),
		storage.WithReadOnly(o.readOnly),
	)
	// failures are logged by the snapshot store and kept for LoadErr
	_ = s.snap.Load(ctx)

	searchCfg := o.search
	s.engine = search.NewEngine(s.snap, o.embedder, &searchCfg, o.logger)
	s.logger.Info("store opened",
		zap.String("path", path),
		zap.Bool("read_only", o.readOnly),
		zap.Int("collections", len(s.snap.Snapshot().GetCollections())))
	return s, nil
}

// Connect opens the database called name in the per-user configuration directory.
// Spaces in name become underscores; an empty name selects DefaultDatabaseName.
func Connect(ctx context.Context, name string, opts ...Option) (*Store, error) {
	if name == "" {
		name = DefaultDatabaseName
	}
	path, err := storage.DatabasePath("", name)
	if err != nil {
		return nil, err
	}
	return Open(ctx, path, opts...)
}

// Path returns the backing file path, empty for a store opened WithPersister.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened WithReadOnly.
func (s *Store) ReadOnly() bool {
	return s.opts.readOnly
}

// LoadErr returns the error of the last snapshot load, nil if it succeeded.
func (s *Store) LoadErr() error {
	return s.snap.LoadErr()
}

// Reload re-reads the snapshot. On failure the current state is kept and the error
// is returned.
func (s *Store) Reload(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.end()
	return s.snap.Load(ctx)
}

// Close waits for running operations, writes a final snapshot and releases the file
// lock. Close is idempotent.
func (s *Store) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if !s.opts.readOnly {
		if err := s.snap.Save(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("final save: %w", err))
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Info("store closed", zap.String("path", s.path))
	return errors.Join(errs...)
}

// begin starts an operation: it returns ctx.Err() or ErrClosed, and otherwise holds
// the close lock in shared mode until end is called, so Close waits for running
// operations before the final save and unlock.
func (s *Store) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.closeMu.RLock()
	if s.closed {
		s.closeMu.RUnlock()
		return ErrClosed
	}
	return nil
}

func (s *Store) end() {
	s.closeMu.RUnlock()
}

// check reports what begin would, without holding the lock. Operations that call
// other Store methods use it so the close lock is never taken twice by one goroutine.
func (s *Store) check(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.end()
	return nil
}
