package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisEntry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt int64           `json:"stored_at"`
	TTLMS    int64           `json:"ttl_ms"`
}

// Redis keeps entries in a Redis server under a key prefix. Redis expiry is
// set to the entry TTL so stale keys disappear on their own.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client. Every key is stored as prefix+key.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Load(ctx context.Context, key string) (Entry, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var re redisEntry
	if err := json.Unmarshal(val, &re); err != nil {
		return Entry{}, false, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return Entry{
		Data:     re.Data,
		StoredAt: time.UnixMilli(re.StoredAt),
		TTL:      time.Duration(re.TTLMS) * time.Millisecond,
	}, true, nil
}

func (r *Redis) Save(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(redisEntry{
		Data:     e.Data,
		StoredAt: e.StoredAt.UnixMilli(),
		TTLMS:    e.TTL.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	return r.client.Set(ctx, r.key(key), data, e.TTL).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.key(prefix)+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del %s: %w", prefix, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
