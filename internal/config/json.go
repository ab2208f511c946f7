package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Duration decodes either a Go duration string ("5m") or integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(n)
	return nil
}

// JSONConfig is the on-disk shape of the configuration file.
type JSONConfig struct {
	APIBaseURL     string   `json:"api_base_url"`
	WorksTTL       Duration `json:"works_ttl"`
	CategoriesTTL  Duration `json:"categories_ttl"`
	SessionTTL     Duration `json:"session_ttl"`
	CacheBackend   string   `json:"cache_backend"`
	CachePath      string   `json:"cache_path"`
	RedisAddr      string   `json:"redis_addr"`
	CachePolicy    string   `json:"cache_policy"`
	RequestTimeout Duration `json:"request_timeout"`
	LogFile        string   `json:"log_file"`
	LogLevel       string   `json:"log_level"`
}

// parseJSON overlays cfg with the non-zero fields of the JSON file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.CacheBackend, jc.CacheBackend)
	setString(&cfg.CachePath, jc.CachePath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.CachePolicy, jc.CachePolicy)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setDuration(&cfg.WorksTTL, time.Duration(jc.WorksTTL))
	setDuration(&cfg.CategoriesTTL, time.Duration(jc.CategoriesTTL))
	setDuration(&cfg.SessionTTL, time.Duration(jc.SessionTTL))
	setDuration(&cfg.RequestTimeout, time.Duration(jc.RequestTimeout))
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
