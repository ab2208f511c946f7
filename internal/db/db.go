package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key       VARCHAR PRIMARY KEY,
		data      VARCHAR NOT NULL,
		stored_at BIGINT NOT NULL,
		ttl_ms    BIGINT NOT NULL
	)
`

// Open opens the embedded database backing the persistent cache and makes
// sure the schema exists. An empty path opens an in-memory database.
func Open(ctx context.Context, driver, path string) (*sql.DB, error) {
	if driver != DriverDuckDB && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path
	if driver == DriverSQLite && path == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	// Both engines are happiest with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the cache table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}
