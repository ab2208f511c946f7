// Package cache is the client-side expiring key/value store.
//
// Keys are namespaced as "namespace:name" (works:all, categories:all,
// auth:session). Each namespace has its own TTL. Values are stored as JSON
// in a pluggable Backend; the Store alone decides validity:
//
//	data is valid iff stored_at is set and now < stored_at + ttl
//
// Reads always re-check expiry and evict what they find stale. A Store with
// no backend, or whose backend fails, behaves as an empty cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/strrl/folio/internal/logging"
)

// Namespaces used by the client.
const (
	NamespaceWorks      = "works"
	NamespaceCategories = "categories"
	NamespaceAuth       = "auth"
)

// DefaultTTL applies to namespaces without a configured TTL.
const DefaultTTL = 5 * time.Minute

// Store is a namespaced expiring cache over a Backend.
type Store struct {
	backend Backend
	ttls    map[string]time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the default TTL of a namespace.
func WithTTL(namespace string, ttl time.Duration) Option {
	return func(s *Store) { s.ttls[namespace] = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for degraded operations.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store over backend. backend may be nil.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		ttls:    make(map[string]time.Duration),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log)
	return s
}

// Key joins a namespace and a name.
func Key(namespace, name string) string {
	return namespace + ":" + name
}

// Namespace returns the namespace part of key.
func Namespace(key string) string {
	ns, _, _ := strings.Cut(key, ":")
	return ns
}

// TTL returns the configured TTL for the namespace of key.
func (s *Store) TTL(key string) time.Duration {
	if ttl, ok := s.ttls[Namespace(key)]; ok && ttl > 0 {
		return ttl
	}
	return DefaultTTL
}

func (s *Store) ready() bool {
	return s != nil && s.backend != nil
}

// Get decodes the cached value of key into dst and reports whether a valid
// entry was found. Expired or undecodable entries are evicted.
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	if !s.ready() {
		return false
	}

	e, ok, err := s.backend.Load(ctx, key)
	if err != nil {
		s.log.Warn("cache load failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	if e.Expired(s.now()) {
		s.evict(ctx, key)
		return false
	}

	if err := json.Unmarshal(e.Data, dst); err != nil {
		s.log.Warn("cache entry undecodable, evicting", zap.String("key", key), zap.Error(err))
		s.evict(ctx, key)
		return false
	}
	return true
}

// Set stores value under key, timestamped now. A ttl <= 0 uses the
// namespace TTL.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.ready() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.TTL(key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	if err := s.backend.Save(ctx, key, Entry{Data: data, StoredAt: s.now(), TTL: ttl}); err != nil {
		s.log.Warn("cache save failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate removes key unconditionally.
func (s *Store) Invalidate(ctx context.Context, key string) {
	if !s.ready() {
		return
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll removes every entry of a namespace. A bare namespace name
// is treated as "name:".
func (s *Store) InvalidateAll(ctx context.Context, prefix string) {
	if !s.ready() {
		return
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	if err := s.backend.DeletePrefix(ctx, prefix); err != nil {
		s.log.Warn("cache invalidate prefix failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

// Inspect returns the raw entry of key without checking or evicting it.
func (s *Store) Inspect(ctx context.Context, key string) (Entry, bool, error) {
	if !s.ready() {
		return Entry{}, false, nil
	}
	return s.backend.Load(ctx, key)
}

// Now is the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Close releases the backend.
func (s *Store) Close() error {
	if !s.ready() {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) evict(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		s.log.Warn("cache evict failed", zap.String("key", key), zap.Error(err))
	}
}
