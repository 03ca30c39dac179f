package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestDatabase_Collections(t *testing.T) {
	d := NewDatabase()
	assert.False(t, d.IsCollectionExists("docs"))

	d.AddCollection("docs")
	d.AddCollection("notes")
	d.AddCollection("docs")
	assert.Equal(t, []string{"docs", "notes"}, d.GetCollections())
	assert.True(t, d.IsCollectionExists("docs"))

	assert.True(t, d.RemoveCollection("docs"))
	assert.False(t, d.RemoveCollection("docs"))
	assert.Equal(t, []string{"notes"}, d.GetCollections())
}

func TestDatabase_AutoVivify(t *testing.T) {
	d := NewDatabase()
	assert.Nil(t, d.GetItem("a", "missing"))
	assert.True(t, d.IsCollectionExists("a"), "GetItem creates the collection")

	assert.Empty(t, d.GetCollection("b"))
	assert.True(t, d.IsCollectionExists("b"))

	d.InsertOrUpdate("c", "k", "{}", "[]", nil)
	assert.True(t, d.IsCollectionExists("c"))

	assert.False(t, d.RemoveItem("z", "k"))
	assert.False(t, d.IsCollectionExists("z"), "RemoveItem does not create the collection")
}

func TestDatabase_InsertOrUpdate(t *testing.T) {
	d := NewDatabase()
	d.InsertOrUpdate("docs", "a", "m1", "[1]", strp("2024-01-01 00:00:00Z"))
	d.InsertOrUpdate("docs", "b", "m2", "[2]", nil)
	d.InsertOrUpdate("docs", "a", "m3", "[3]", nil)

	require.Equal(t, 2, d.Len("docs"))
	a := d.GetItem("docs", "a")
	require.NotNil(t, a)
	assert.Equal(t, "m3", a.Metadata)
	assert.Equal(t, "[3]", a.Embedding)
	assert.Nil(t, a.Timestamp)

	entries := d.GetCollection("docs")
	assert.Equal(t, "a", entries[0].Key, "update keeps position")
	assert.Equal(t, "b", entries[1].Key)
}

func TestDatabase_UpsertIdempotent(t *testing.T) {
	d := NewDatabase()
	for i := 0; i < 3; i++ {
		d.InsertOrUpdate("docs", "a", "m", "[1,0]", strp("2024-01-01 00:00:00Z"))
	}
	assert.Equal(t, 1, d.Len("docs"))
}

func TestDatabase_GetItemReturnsCopy(t *testing.T) {
	d := NewDatabase()
	d.InsertOrUpdate("docs", "a", "m", "[1]", nil)
	e := d.GetItem("docs", "a")
	e.Metadata = "changed"
	assert.Equal(t, "m", d.GetItem("docs", "a").Metadata)
}

func TestDatabase_RemoveItem(t *testing.T) {
	d := NewDatabase()
	d.InsertOrUpdate("docs", "a", "", "", nil)
	d.InsertOrUpdate("docs", "b", "", "", nil)
	assert.True(t, d.RemoveItem("docs", "a"))
	assert.False(t, d.RemoveItem("docs", "a"))
	assert.False(t, d.RemoveItem("docs", "nope"))
	assert.Equal(t, 1, d.Len("docs"))
	assert.NotNil(t, d.GetItem("docs", "b"))
}

func TestDatabase_RemoveEmptyKeys(t *testing.T) {
	d := NewDatabase()
	d.AddCollection("docs")
	d.collections["docs"] = append(d.collections["docs"],
		newEntry("", "placeholder", "", nil),
		newEntry("a", "", "", nil),
		newEntry("", "placeholder", "", nil),
		newEntry("b", "", "", nil),
	)

	assert.Equal(t, 2, d.RemoveEmptyKeys("docs"))
	assert.Equal(t, 0, d.RemoveEmptyKeys("docs"))
	assert.Equal(t, 0, d.RemoveEmptyKeys("missing"))

	seen := map[string]bool{}
	for _, e := range d.GetCollection("docs") {
		require.NotEmpty(t, e.Key)
		require.False(t, seen[e.Key], "duplicate key %s", e.Key)
		seen[e.Key] = true
	}
	assert.Len(t, seen, 2)
}

func TestDatabase_Clone(t *testing.T) {
	d := NewDatabase()
	d.InsertOrUpdate("docs", "a", "m", "[1]", strp("t"))
	c := d.Clone()
	assert.Equal(t, d, c)

	c.InsertOrUpdate("docs", "a", "changed", "[1]", nil)
	assert.Equal(t, "m", d.GetItem("docs", "a").Metadata)
}
