package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/models"
)

// SnapshotStore owns the canonical in-memory Database and maps it to and from a
// Persister. Every mutation runs under an exclusive lock together with the snapshot
// write it triggers, so two saves never interleave.
type SnapshotStore struct {
	mu          sync.RWMutex
	db          *Database
	persister   Persister
	logger      *zap.Logger
	mode        PersistMode
	compression Compression
	readOnly    bool
	loadErr     error
}

// SnapshotOption configures a SnapshotStore.
type SnapshotOption func(*SnapshotStore)

// WithLogger sets the logger for load/save failures.
func WithLogger(l *zap.Logger) SnapshotOption {
	return func(s *SnapshotStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPersistMode selects how snapshot write failures are reported.
func WithPersistMode(m PersistMode) SnapshotOption {
	return func(s *SnapshotStore) { s.mode = m }
}

// WithCompression selects the on-disk framing used by Save.
func WithCompression(c Compression) SnapshotOption {
	return func(s *SnapshotStore) { s.compression = c }
}

// WithReadOnly makes every mutation fail with ErrReadOnly and stops Load from creating
// a missing snapshot.
func WithReadOnly(ro bool) SnapshotOption {
	return func(s *SnapshotStore) { s.readOnly = ro }
}

// NewSnapshotStore returns a store with an empty database. Call Load to read the
// persisted snapshot.
func NewSnapshotStore(p Persister, opts ...SnapshotOption) *SnapshotStore {
	s := &SnapshotStore{
		db:          NewDatabase(),
		persister:   p,
		logger:      zap.NewNop(),
		mode:        PersistBestEffort,
		compression: CompressionNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadOnly reports whether the store rejects mutations.
func (s *SnapshotStore) ReadOnly() bool {
	return s.readOnly
}

// Load replaces the in-memory database with the persisted snapshot. When no snapshot
// exists an empty one is written (unless read-only). A snapshot that cannot be read or
// decoded leaves the current state untouched; the failure is logged, remembered for
// LoadErr and returned.
func (s *SnapshotStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.persister.Read(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.loadErr = nil
			if s.readOnly {
				return nil
			}
			return s.saveLocked(ctx)
		}
		return s.loadFailed(err)
	}
	raw, err := decompress(data)
	if err != nil {
		return s.loadFailed(err)
	}
	db, err := UnmarshalDatabase(raw)
	if err != nil {
		return s.loadFailed(err)
	}
	s.db = db
	s.loadErr = nil
	s.logger.Debug("snapshot loaded", zap.Int("collections", len(db.names)), zap.Int("bytes", len(data)))
	return nil
}

func (s *SnapshotStore) loadFailed(err error) error {
	s.loadErr = err
	s.logger.Error("snapshot load failed, keeping current state", zap.Error(err))
	return err
}

// LoadErr returns the error of the last Load, nil if it succeeded.
func (s *SnapshotStore) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Save writes the whole database. The error is always returned; PersistMode only
// applies to the mutation helpers.
func (s *SnapshotStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *SnapshotStore) saveLocked(ctx context.Context) error {
	if s.readOnly {
		return ErrReadOnly
	}
	data, err := compress(MarshalDatabase(s.db), s.compression)
	if err == nil {
		err = s.persister.Write(ctx, data)
	}
	if err != nil {
		s.logger.Error("snapshot save failed", zap.Error(err))
		return err
	}
	return nil
}

// persistLocked saves and applies the persist mode to the outcome.
func (s *SnapshotStore) persistLocked(ctx context.Context) error {
	err := s.saveLocked(ctx)
	if err == nil || s.mode != PersistStrict {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersist, err)
}

// Update applies fn to the database and then persists the full snapshot.
func (s *SnapshotStore) Update(ctx context.Context, fn func(db *Database)) error {
	if s.readOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.db)
	return s.persistLocked(ctx)
}

// Touch applies fn without persisting. It exists for reads that auto-vivify a
// collection, which changes the database but is not a durable write.
func (s *SnapshotStore) Touch(fn func(db *Database)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.db)
}

// View applies fn under a shared lock. fn must not modify the database.
func (s *SnapshotStore) View(fn func(db *Database)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.db)
}

// PurgeEmptyKeys removes empty-keyed entries from collection and persists when any
// were removed. A read-only store purges its in-memory copy only.
func (s *SnapshotStore) PurgeEmptyKeys(ctx context.Context, collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.AddCollection(collection)
	n := s.db.RemoveEmptyKeys(collection)
	if n == 0 || s.readOnly {
		return n, nil
	}
	s.logger.Debug("purged empty keys", zap.String("collection", collection), zap.Int("removed", n))
	return n, s.persistLocked(ctx)
}

// Entries returns copies of the entries in collection, creating it when missing.
func (s *SnapshotStore) Entries(collection string) []*models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetCollection(collection)
}

// Snapshot returns a deep copy of the database.
func (s *SnapshotStore) Snapshot() *Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Clone()
}
