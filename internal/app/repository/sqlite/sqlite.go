// Package sqlite opens the SQL result store on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"reel-digest/internal/app/repository/sqlstore"
)

// Open creates the parent directory of path if needed, opens the database
// and applies the schema.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(string(sqlstore.DialectSQLite), fmt.Sprintf("file:%s?mode=rwc&_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids lock errors.
	db.SetMaxOpenConns(1)

	store := sqlstore.New(db, sqlstore.DialectSQLite)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
