package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folio.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://localhost:5678/api", c.APIBaseURL)
	assert.Equal(t, 5*time.Minute, c.WorksTTL)
	assert.Equal(t, 5*time.Minute, c.CategoriesTTL)
	assert.Equal(t, 120*time.Minute, c.SessionTTL)
	assert.Equal(t, BackendDuckDB, c.CacheBackend)
	assert.Equal(t, PolicyPatch, c.CachePolicy)
	assert.NoError(t, c.Validate())
}

func TestLoad_JSONThenEnv(t *testing.T) {
	path := writeTempJSON(t, `{
		"api_base_url": "http://json:1/api",
		"works_ttl": "1m",
		"session_ttl": 3600000000000,
		"cache_backend": "sqlite"
	}`)

	t.Run("json only", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://json:1/api", cfg.APIBaseURL)
		assert.Equal(t, time.Minute, cfg.WorksTTL)
		assert.Equal(t, time.Hour, cfg.SessionTTL)
		assert.Equal(t, 5*time.Minute, cfg.CategoriesTTL)
		assert.Equal(t, BackendSQLite, cfg.CacheBackend)
	})

	t.Run("env overrides json", func(t *testing.T) {
		t.Setenv("FOLIO_API_URL", "http://env:2/api")
		t.Setenv("FOLIO_CATEGORIES_TTL", "30s")
		t.Setenv("FOLIO_CACHE_POLICY", PolicyInvalidate)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://env:2/api", cfg.APIBaseURL)
		assert.Equal(t, 30*time.Second, cfg.CategoriesTTL)
		assert.Equal(t, PolicyInvalidate, cfg.CachePolicy)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		_, err := Load(writeTempJSON(t, `{ not json`))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("FOLIO_SESSION_TTL", "soon")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("FOLIO_CACHE_BACKEND", "etcd")
		_, err := Load("")
		assert.ErrorContains(t, err, "etcd")
	})
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.CachePolicy = "sometimes"
	assert.Error(t, c.Validate())

	c.LoadDefaults()
	c.SessionTTL = 0
	assert.Error(t, c.Validate())
}
