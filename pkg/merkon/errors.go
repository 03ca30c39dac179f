package merkon

import (
	"errors"

	"github.com/hyperjump/merkon/internal/models"
	"github.com/hyperjump/merkon/internal/search"
	"github.com/hyperjump/merkon/internal/storage"
	"github.com/hyperjump/merkon/internal/vector"
)

var (
	// ErrClosed is returned by every operation on a closed Store.
	ErrClosed = errors.New("merkon: store is closed")
	// ErrReadOnly is returned by mutations on a store opened WithReadOnly.
	ErrReadOnly = storage.ErrReadOnly
	// ErrLocked is returned by Open when another process owns the backing file.
	ErrLocked = storage.ErrLocked
	// ErrPersist wraps snapshot write failures in PersistStrict mode.
	ErrPersist = storage.ErrPersist
	// ErrCorrupt wraps snapshot decode failures reported by LoadErr and Reload.
	ErrCorrupt = storage.ErrCorrupt
	// ErrDimensionMismatch is matched by search errors caused by a record whose
	// embedding length differs from the query.
	ErrDimensionMismatch = vector.ErrDimensionMismatch
	// ErrInvalidQuery wraps MatchQuery validation failures from Search.
	ErrInvalidQuery = models.ErrInvalidQuery
	// ErrNoEmbedder is returned by Search for a text query on a store without an embedder.
	ErrNoEmbedder = search.ErrNoEmbedder
	// ErrNilRecord is returned by Upsert for a nil record.
	ErrNilRecord = errors.New("merkon: nil record")
)

// DimensionMismatchError carries the two lengths of a failed comparison.
type DimensionMismatchError = vector.DimensionMismatchError
