package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads ./.env (when present) without overriding variables already
// set in the process, then overlays cfg with FOLIO_* variables.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	setString(&cfg.APIBaseURL, os.Getenv("FOLIO_API_URL"))
	setString(&cfg.CacheBackend, os.Getenv("FOLIO_CACHE_BACKEND"))
	setString(&cfg.CachePath, os.Getenv("FOLIO_CACHE_PATH"))
	setString(&cfg.RedisAddr, os.Getenv("FOLIO_REDIS_ADDR"))
	setString(&cfg.CachePolicy, os.Getenv("FOLIO_CACHE_POLICY"))
	setString(&cfg.LogFile, os.Getenv("FOLIO_LOG_FILE"))
	setString(&cfg.LogLevel, os.Getenv("FOLIO_LOG_LEVEL"))

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"FOLIO_WORKS_TTL", &cfg.WorksTTL},
		{"FOLIO_CATEGORIES_TTL", &cfg.CategoriesTTL},
		{"FOLIO_SESSION_TTL", &cfg.SessionTTL},
		{"FOLIO_REQUEST_TIMEOUT", &cfg.RequestTimeout},
	}
	for _, d := range durations {
		raw := os.Getenv(d.name)
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}
