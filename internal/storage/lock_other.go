//go:build !unix

package storage

// FileLock is a no-op on platforms without flock(2); single ownership of the backing
// file is then the caller's responsibility.
type FileLock struct {
	path string
}

// NewFileLock creates a FileLock for path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock always succeeds.
func (l *FileLock) TryLock() error { return nil }

// Unlock always succeeds.
func (l *FileLock) Unlock() error { return nil }
