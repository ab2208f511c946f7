package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/strrl/folio/internal/config"
	"github.com/strrl/folio/internal/db"
)

// OpenBackend builds the backend selected by cfg.CacheBackend.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendDuckDB, config.BackendSQLite:
		database, err := db.Open(ctx, cfg.CacheBackend, cfg.CachePath)
		if err != nil {
			return nil, err
		}
		return NewSQL(database), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return NewRedis(client, "folio:"), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

// NewFromConfig opens the configured backend and applies the configured TTLs.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Store, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithTTL(NamespaceWorks, cfg.WorksTTL),
		WithTTL(NamespaceCategories, cfg.CategoriesTTL),
		WithTTL(NamespaceAuth, cfg.SessionTTL),
	}, opts...)
	return New(backend, opts...), nil
}
