package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteExportImport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "export", "db.sqlite")
	d := sampleDatabase()

	require.NoError(t, ExportSQLite(ctx, d, path))
	got, err := ImportSQLite(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, d.GetCollections(), got.GetCollections())
	for _, name := range d.GetCollections() {
		assert.Equal(t, d.GetCollection(name), got.GetCollection(name), name)
	}

	// exporting again replaces the previous content
	d.RemoveCollection("docs")
	require.NoError(t, ExportSQLite(ctx, d, path))
	got, err = ImportSQLite(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "notes"}, got.GetCollections())
}

func TestImportSQLite_Missing(t *testing.T) {
	_, err := ImportSQLite(context.Background(), filepath.Join(t.TempDir(), "nope.sqlite"))
	assert.Error(t, err)
}
