package storage

import (
	"github.com/hyperjump/merkon/internal/models"
)

// Database maps collection names to ordered entry lists. Collection order is the order
// collections were first added (or read from the snapshot). Database is not safe for
// concurrent use; SnapshotStore guards it.
//
// Methods that take a collection name auto-vivify the collection, except
// IsCollectionExists, RemoveCollection and RemoveItem.
type Database struct {
	names       []string
	collections map[string][]*models.Entry
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{collections: make(map[string][]*models.Entry)}
}

// AddCollection creates an empty collection; it is a no-op when name exists.
func (d *Database) AddCollection(name string) {
	if _, ok := d.collections[name]; ok {
		return
	}
	d.names = append(d.names, name)
	d.collections[name] = []*models.Entry{}
}

// IsCollectionExists reports whether name exists.
func (d *Database) IsCollectionExists(name string) bool {
	_, ok := d.collections[name]
	return ok
}

// GetCollections returns collection names in database order.
func (d *Database) GetCollections() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// RemoveCollection deletes name and its entries; it reports whether name existed.
func (d *Database) RemoveCollection(name string) bool {
	if _, ok := d.collections[name]; !ok {
		return false
	}
	delete(d.collections, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)
			break
		}
	}
	return true
}

// GetCollection returns copies of every entry in collection, in order.
func (d *Database) GetCollection(collection string) []*models.Entry {
	d.AddCollection(collection)
	src := d.collections[collection]
	out := make([]*models.Entry, len(src))
	for i, e := range src {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of entries in collection, or 0 if it does not exist.
func (d *Database) Len(collection string) int {
	return len(d.collections[collection])
}

// GetItem returns a copy of the first entry with key, or nil.
func (d *Database) GetItem(collection, key string) *models.Entry {
	d.AddCollection(collection)
	if i := indexOf(d.collections[collection], key); i >= 0 {
		return d.collections[collection][i].Clone()
	}
	return nil
}

// RemoveItem deletes the first entry with key; it reports whether one was removed.
func (d *Database) RemoveItem(collection, key string) bool {
	entries, ok := d.collections[collection]
	if !ok {
		return false
	}
	i := indexOf(entries, key)
	if i < 0 {
		return false
	}
	d.collections[collection] = append(entries[:i], entries[i+1:]...)
	return true
}

// RemoveEmptyKeys drops every entry with an empty key and returns how many were dropped.
func (d *Database) RemoveEmptyKeys(collection string) int {
	entries, ok := d.collections[collection]
	if !ok {
		return 0
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Key != "" {
			kept = append(kept, e)
		}
	}
	removed := len(entries) - len(kept)
	for i := len(kept); i < len(entries); i++ {
		entries[i] = nil
	}
	d.collections[collection] = kept
	return removed
}

// InsertOrUpdate overwrites the fields of the first entry with key, or appends a new one.
func (d *Database) InsertOrUpdate(collection, key, metadata, embedding string, timestamp *string) {
	d.AddCollection(collection)
	e := newEntry(key, metadata, embedding, timestamp)
	entries := d.collections[collection]
	if i := indexOf(entries, key); i >= 0 {
		entries[i].Metadata = e.Metadata
		entries[i].Embedding = e.Embedding
		entries[i].Timestamp = e.Timestamp
		return
	}
	d.collections[collection] = append(entries, e)
}

// Clone returns a deep copy of d.
func (d *Database) Clone() *Database {
	c := NewDatabase()
	for _, name := range d.names {
		c.names = append(c.names, name)
		c.collections[name] = d.GetCollection(name)
	}
	return c
}

func newEntry(key, metadata, embedding string, timestamp *string) *models.Entry {
	e := &models.Entry{Key: key, Metadata: metadata, Embedding: embedding}
	if timestamp != nil {
		ts := *timestamp
		e.Timestamp = &ts
	}
	return e
}

func indexOf(entries []*models.Entry, key string) int {
	for i, e := range entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}
