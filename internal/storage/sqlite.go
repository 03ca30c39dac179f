package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const exportSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	position INTEGER NOT NULL,
	key TEXT NOT NULL,
	metadata TEXT NOT NULL,
	embedding TEXT NOT NULL,
	timestamp TEXT,
	PRIMARY KEY (collection, position),
	FOREIGN KEY (collection) REFERENCES collections(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_records_key ON records(collection, key);
`

// ExportSQLite writes d into a SQLite database at dbPath, replacing any previous export
// in that file. Parent directories are created if they do not exist. Collection and
// record order are kept in the position columns.
func ExportSQLite(ctx context.Context, d *Database, dbPath string) error {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, exportSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections`); err != nil {
		return err
	}

	colStmt, err := tx.PrepareContext(ctx, `INSERT INTO collections (name, position) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer colStmt.Close()
	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (collection, position, key, metadata, embedding, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer recStmt.Close()

	for i, name := range d.names {
		if _, err := colStmt.ExecContext(ctx, name, i); err != nil {
			return fmt.Errorf("export collection %q: %w", name, err)
		}
		for j, e := range d.collections[name] {
			var ts sql.NullString
			if e.Timestamp != nil {
				ts = sql.NullString{String: *e.Timestamp, Valid: true}
			}
			if _, err := recStmt.ExecContext(ctx, name, j, e.Key, e.Metadata, e.Embedding, ts); err != nil {
				return fmt.Errorf("export %q entry %d: %w", name, j, err)
			}
		}
	}
	return tx.Commit()
}

// ImportSQLite reads a database written by ExportSQLite.
func ImportSQLite(ctx context.Context, dbPath string) (*Database, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := NewDatabase()
	rows, err := db.QueryContext(ctx, `SELECT name FROM collections ORDER BY position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		out.AddCollection(name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = db.QueryContext(ctx,
		`SELECT collection, key, metadata, embedding, timestamp
		 FROM records ORDER BY collection, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var collection, key, metadata, embedding string
		var ts sql.NullString
		if err := rows.Scan(&collection, &key, &metadata, &embedding, &ts); err != nil {
			return nil, err
		}
		var tsp *string
		if ts.Valid {
			tsp = &ts.String
		}
		out.AddCollection(collection)
		out.collections[collection] = append(out.collections[collection], newEntry(key, metadata, embedding, tsp))
	}
	return out, rows.Err()
}
