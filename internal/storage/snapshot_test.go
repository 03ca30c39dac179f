package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPersister struct {
	MemoryPersister
	failWrites bool
	failReads  bool
}

var errDiskFull = errors.New("disk full")

func (p *failingPersister) Read(ctx context.Context) ([]byte, error) {
	if p.failReads {
		return nil, errors.New("permission denied")
	}
	return p.MemoryPersister.Read(ctx)
}

func (p *failingPersister) Write(ctx context.Context, data []byte) error {
	if p.failWrites {
		return errDiskFull
	}
	return p.MemoryPersister.Write(ctx, data)
}

func TestSnapshotStore_LoadMissingCreatesSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "db.bin")
	s := NewSnapshotStore(NewFilePersister(path))

	require.NoError(t, s.Load(ctx))
	_, err := os.Stat(path)
	require.NoError(t, err, "snapshot file should exist after first load")

	reopened := NewSnapshotStore(NewFilePersister(path))
	require.NoError(t, reopened.Load(ctx))
	assert.Empty(t, reopened.Snapshot().GetCollections())
}

func TestSnapshotStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	for _, c := range []Compression{CompressionNone, CompressionZstd} {
		t.Run(string(c), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "db.bin")
			s := NewSnapshotStore(NewFilePersister(path), WithCompression(c))
			require.NoError(t, s.Load(ctx))
			require.NoError(t, s.Update(ctx, func(db *Database) {
				db.AddCollection("docs")
				db.InsertOrUpdate("docs", "a", "{}", "[1,0]", strp("2024-01-01 00:00:00Z"))
			}))

			// the framing is detected on load, whatever the reader is configured with
			other := NewSnapshotStore(NewFilePersister(path))
			require.NoError(t, other.Load(ctx))
			assert.Equal(t, s.Snapshot(), other.Snapshot())
		})
	}
}

func TestSnapshotStore_CorruptLoadKeepsState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.bin")
	s := NewSnapshotStore(NewFilePersister(path))
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Update(ctx, func(db *Database) { db.AddCollection("docs") }))

	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0600))
	err := s.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, s.LoadErr(), ErrCorrupt)
	assert.Equal(t, []string{"docs"}, s.Snapshot().GetCollections())

	fresh := NewSnapshotStore(NewFilePersister(path))
	require.Error(t, fresh.Load(ctx))
	assert.Empty(t, fresh.Snapshot().GetCollections(), "fresh store starts empty")
}

func TestSnapshotStore_HugeArrayHeaderIsCorrupt(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	require.NoError(t, p.Write(ctx, []byte{0x91, 0x81, 0xa1, 'a', 0xdd, 0xff, 0xff, 0xff, 0xff}))

	s := NewSnapshotStore(p)
	err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Empty(t, s.Snapshot().GetCollections())
}

func TestSnapshotStore_UnreadableLoad(t *testing.T) {
	p := &failingPersister{failReads: true}
	s := NewSnapshotStore(p)
	require.Error(t, s.Load(context.Background()))
	assert.Error(t, s.LoadErr())
	assert.Equal(t, 0, p.Writes(), "a failed load must not overwrite the snapshot")
}

func TestSnapshotStore_PersistModes(t *testing.T) {
	ctx := context.Background()

	t.Run("best effort", func(t *testing.T) {
		p := &failingPersister{failWrites: true}
		s := NewSnapshotStore(p)
		err := s.Update(ctx, func(db *Database) { db.AddCollection("docs") })
		assert.NoError(t, err)
		assert.True(t, s.Snapshot().IsCollectionExists("docs"), "memory is updated even when the write fails")
	})

	t.Run("strict", func(t *testing.T) {
		p := &failingPersister{failWrites: true}
		s := NewSnapshotStore(p, WithPersistMode(PersistStrict))
		err := s.Update(ctx, func(db *Database) { db.AddCollection("docs") })
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPersist)
		assert.ErrorIs(t, err, errDiskFull)
		assert.True(t, s.Snapshot().IsCollectionExists("docs"))
	})

	t.Run("save always reports", func(t *testing.T) {
		p := &failingPersister{failWrites: true}
		s := NewSnapshotStore(p)
		assert.ErrorIs(t, s.Save(ctx), errDiskFull)
	})
}

func TestSnapshotStore_ReadOnly(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := NewSnapshotStore(p, WithReadOnly(true))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, p.Writes(), "read-only load does not create a snapshot")

	err := s.Update(ctx, func(db *Database) { db.AddCollection("docs") })
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, s.Save(ctx), ErrReadOnly)
	assert.False(t, s.Snapshot().IsCollectionExists("docs"))
	assert.True(t, s.ReadOnly())
}

func TestSnapshotStore_PurgeEmptyKeys(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := NewSnapshotStore(p)
	require.NoError(t, s.Load(ctx))
	before := p.Writes()

	n, err := s.PurgeEmptyKeys(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, before, p.Writes(), "nothing purged, nothing written")

	s.Touch(func(db *Database) {
		db.collections["docs"] = append(db.collections["docs"],
			newEntry("", "x", "", nil), newEntry("a", "", "", nil))
	})
	n, err = s.PurgeEmptyKeys(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, before+1, p.Writes())

	reloaded := NewSnapshotStore(p)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 1, reloaded.Snapshot().Len("docs"))
}

func TestSnapshotStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := NewSnapshotStore(p)
	require.NoError(t, s.Load(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			_ = s.Update(ctx, func(db *Database) { db.InsertOrUpdate("docs", key, "", "", nil) })
			s.View(func(db *Database) { _ = db.Len("docs") })
		}(i)
	}
	wg.Wait()

	reloaded := NewSnapshotStore(p)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 20, reloaded.Snapshot().Len("docs"), "last snapshot reflects every update")
}
