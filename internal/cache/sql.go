package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQL stores entries in the cache_entries table created by db.Migrate.
// The statements are valid for both DuckDB and SQLite.
type SQL struct {
	db *sql.DB
}

// NewSQL wraps an open database handle. The caller owns the schema.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Load(ctx context.Context, key string) (Entry, bool, error) {
	var (
		data     string
		storedAt int64
		ttlMS    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, stored_at, ttl_ms FROM cache_entries WHERE key = ?`, key,
	).Scan(&data, &storedAt, &ttlMS)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to load cache entry %s: %w", key, err)
	}

	return Entry{
		Data:     []byte(data),
		StoredAt: time.UnixMilli(storedAt),
		TTL:      time.Duration(ttlMS) * time.Millisecond,
	}, true, nil
}

func (s *SQL) Save(ctx context.Context, key string, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, data, stored_at, ttl_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			data = excluded.data,
			stored_at = excluded.stored_at,
			ttl_ms = excluded.ttl_ms
	`, key, string(e.Data), e.StoredAt.UnixMilli(), e.TTL.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to save cache entry %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

func (s *SQL) DeletePrefix(ctx context.Context, prefix string) error {
	// substr avoids LIKE wildcard escaping for keys containing '_' or '%'.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE substr(key, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return fmt.Errorf("failed to delete cache prefix %s: %w", prefix, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
