package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendDuckDB = "duckdb"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Cache policies applied after a confirmed mutation.
const (
	// PolicyPatch edits the cached collection in place.
	PolicyPatch = "patch"
	// PolicyInvalidate drops the cached collection so the next read refetches.
	PolicyInvalidate = "invalidate"
)

// Config holds runtime settings for the client.
type Config struct {
	APIBaseURL     string
	WorksTTL       time.Duration
	CategoriesTTL  time.Duration
	SessionTTL     time.Duration
	CacheBackend   string
	CachePath      string
	RedisAddr      string
	CachePolicy    string
	RequestTimeout time.Duration
	LogFile        string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	dir := cacheDir()

	c.APIBaseURL = "http://localhost:5678/api"
	c.WorksTTL = 5 * time.Minute
	c.CategoriesTTL = 5 * time.Minute
	c.SessionTTL = 120 * time.Minute
	c.CacheBackend = BackendDuckDB
	c.CachePath = filepath.Join(dir, "cache.db")
	c.RedisAddr = "127.0.0.1:6379"
	c.CachePolicy = PolicyPatch
	c.RequestTimeout = 10 * time.Second
	c.LogFile = filepath.Join(dir, "folio.log")
	c.LogLevel = "info"
}

// Load builds a Config from defaults, the optional JSON file and the
// environment. Later sources take precedence over earlier ones.
func Load(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if jsonPath != "" {
		if err := parseJSON(cfg, jsonPath); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendMemory, BackendDuckDB, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	switch c.CachePolicy {
	case PolicyPatch, PolicyInvalidate:
	default:
		return fmt.Errorf("unknown cache policy %q", c.CachePolicy)
	}
	if c.WorksTTL <= 0 || c.CategoriesTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	return nil
}

func cacheDir() string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return filepath.Join(v, "folio")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "folio")
	}
	return filepath.Join(os.TempDir(), "folio")
}
