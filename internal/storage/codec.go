package storage

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/hyperjump/merkon/internal/models"
)

// Snapshot layout (MessagePack). Positions are the compatibility contract; readers skip
// fields they do not know and default the ones that are missing.
//
//	database: [ collections ]
//	collections: { name: [ entry, ... ], ... }
//	entry: [ key, metadata, embedding, timestamp|nil ]
const (
	databaseFields = 1
	entryFields    = 4
)

// MarshalDatabase serializes d.
func MarshalDatabase(d *Database) []byte {
	b := msgp.AppendArrayHeader(nil, databaseFields)
	b = msgp.AppendMapHeader(b, uint32(len(d.names)))
	for _, name := range d.names {
		b = msgp.AppendString(b, name)
		entries := d.collections[name]
		b = msgp.AppendArrayHeader(b, uint32(len(entries)))
		for _, e := range entries {
			b = msgp.AppendArrayHeader(b, entryFields)
			b = msgp.AppendString(b, e.Key)
			b = msgp.AppendString(b, e.Metadata)
			b = msgp.AppendString(b, e.Embedding)
			if e.Timestamp == nil {
				b = msgp.AppendNil(b)
			} else {
				b = msgp.AppendString(b, *e.Timestamp)
			}
		}
	}
	return b
}

// UnmarshalDatabase decodes a snapshot written by MarshalDatabase.
func UnmarshalDatabase(b []byte) (*Database, error) {
	d := NewDatabase()
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrCorrupt)
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: database header: %v", ErrCorrupt, err)
	}
	for field := uint32(0); field < n; field++ {
		if field != 0 {
			if b, err = msgp.Skip(b); err != nil {
				return nil, fmt.Errorf("%w: database field %d: %v", ErrCorrupt, field, err)
			}
			continue
		}
		if b, err = readCollections(b, d); err != nil {
			return nil, err
		}
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(b))
	}
	return d, nil
}

func readCollections(b []byte, d *Database) ([]byte, error) {
	if msgp.IsNil(b) {
		return msgp.ReadNilBytes(b)
	}
	count, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: collections: %v", ErrCorrupt, err)
	}
	for i := uint32(0); i < count; i++ {
		var name string
		if name, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, fmt.Errorf("%w: collection name: %v", ErrCorrupt, err)
		}
		d.AddCollection(name)
		if msgp.IsNil(b) {
			if b, err = msgp.ReadNilBytes(b); err != nil {
				return nil, fmt.Errorf("%w: collection %q: %v", ErrCorrupt, name, err)
			}
			continue
		}
		var size uint32
		if size, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
			return nil, fmt.Errorf("%w: collection %q: %v", ErrCorrupt, name, err)
		}
		// every entry takes at least one byte, so the header cannot promise more than b holds
		entries := make([]*models.Entry, 0, min(size, uint32(len(b))))
		for j := uint32(0); j < size; j++ {
			var e *models.Entry
			if e, b, err = readEntry(b); err != nil {
				return nil, fmt.Errorf("%w: collection %q entry %d: %v", ErrCorrupt, name, j, err)
			}
			if e != nil {
				entries = append(entries, e)
			}
		}
		d.collections[name] = entries
	}
	return b, nil
}

// readEntry returns a nil entry for a nil slot.
func readEntry(b []byte) (*models.Entry, []byte, error) {
	if msgp.IsNil(b) {
		b, err := msgp.ReadNilBytes(b)
		return nil, b, err
	}
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, nil, err
	}
	e := &models.Entry{}
	for field := uint32(0); field < n; field++ {
		var s *string
		switch field {
		case 0, 1, 2, 3:
			if s, b, err = readOptionalString(b); err != nil {
				return nil, nil, fmt.Errorf("field %d: %w", field, err)
			}
		default:
			if b, err = msgp.Skip(b); err != nil {
				return nil, nil, fmt.Errorf("field %d: %w", field, err)
			}
			continue
		}
		switch field {
		case 0:
			e.Key = deref(s)
		case 1:
			e.Metadata = deref(s)
		case 2:
			e.Embedding = deref(s)
		case 3:
			e.Timestamp = s
		}
	}
	return e, b, nil
}

func readOptionalString(b []byte) (*string, []byte, error) {
	if msgp.IsNil(b) {
		b, err := msgp.ReadNilBytes(b)
		return nil, b, err
	}
	s, b, err := msgp.ReadStringBytes(b)
	if err != nil {
		return nil, nil, err
	}
	return &s, b, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
