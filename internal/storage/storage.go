// Package storage holds the in-memory collection database and its whole-snapshot
// persistence to a single backing file.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrPersist wraps a snapshot write failure surfaced in PersistStrict mode.
	ErrPersist = errors.New("persist snapshot")
	// ErrReadOnly is returned by mutations on a read-only store.
	ErrReadOnly = errors.New("store is read-only")
	// ErrLocked is returned when another process holds the backing file.
	ErrLocked = errors.New("database file is locked by another process")
	// ErrCorrupt wraps snapshot decode failures.
	ErrCorrupt = errors.New("snapshot corrupted")
)

// Persister reads and writes the serialized snapshot. Read must return an error
// matching fs.ErrNotExist when no snapshot has been written yet.
type Persister interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// PersistMode selects what a mutation reports when its snapshot write fails.
type PersistMode string

const (
	// PersistBestEffort logs write failures and reports success to the caller.
	PersistBestEffort PersistMode = "best_effort"
	// PersistStrict returns write failures wrapped in ErrPersist.
	PersistStrict PersistMode = "strict"
)

// ParsePersistMode maps a config value to a PersistMode; empty means best effort.
func ParsePersistMode(s string) (PersistMode, error) {
	switch PersistMode(s) {
	case "", PersistBestEffort:
		return PersistBestEffort, nil
	case PersistStrict:
		return PersistStrict, nil
	default:
		return "", fmt.Errorf("unknown persist mode: %s (supported: best_effort, strict)", s)
	}
}
