package cache

import (
	"context"
	"time"
)

// Entry is what a backend persists for one key. Data holds JSON.
type Entry struct {
	Data     []byte
	StoredAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry is stale at now. An entry without a
// timestamp is never valid.
func (e Entry) Expired(now time.Time) bool {
	if e.StoredAt.IsZero() {
		return true
	}
	return !now.Before(e.StoredAt.Add(e.TTL))
}

// Backend is the storage behind a Store. Implementations do not interpret
// expiry; the Store does.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}
