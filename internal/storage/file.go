package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultFileName is the snapshot file used when no database name is given.
const DefaultFileName = "MerkonData.bin"

// DatabasePath resolves the snapshot path for a named database: spaces in name become
// underscores and ".bin" is appended; the file lives in dir, or in the per-user
// configuration directory when dir is empty. An empty name selects DefaultFileName.
func DatabasePath(dir, name string) (string, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = base
	}
	file := DefaultFileName
	if name != "" {
		file = strings.ReplaceAll(name, " ", "_") + ".bin"
	}
	return filepath.Join(dir, file), nil
}

// FilePersister stores the snapshot in a single file. Writes go to a sibling temp file
// that is synced and renamed over the target, so readers never see a partial snapshot.
type FilePersister struct {
	path string
	perm fs.FileMode
}

// NewFilePersister returns a persister for path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path, perm: 0600}
}

// Path returns the snapshot path.
func (p *FilePersister) Path() string {
	return p.path
}

// Read returns the snapshot bytes.
func (p *FilePersister) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Write replaces the snapshot with data. The parent directory is created if needed.
func (p *FilePersister) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Chmod(p.perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Size returns the snapshot size in bytes, 0 if it does not exist yet.
func (p *FilePersister) Size() (int64, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Size(), nil
}

// MemoryPersister keeps the snapshot in memory. Used for tests and ephemeral stores.
type MemoryPersister struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

// NewMemoryPersister returns an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

// Read returns a copy of the last written snapshot.
func (p *MemoryPersister) Read(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, fmt.Errorf("read snapshot: %w", fs.ErrNotExist)
	}
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out, nil
}

// Write stores a copy of data.
func (p *MemoryPersister) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = make([]byte, len(data))
	copy(p.data, data)
	p.writes++
	return nil
}

// Writes returns how many snapshots have been written.
func (p *MemoryPersister) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// Size returns the size of the last written snapshot.
func (p *MemoryPersister) Size() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(len(p.data)), nil
}
