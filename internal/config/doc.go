// Package config loads runtime configuration for the folio client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file passed to Load.
//  3. A .env file in the working directory and the process environment
//     (FOLIO_* variables).
//  4. Command-line flags, applied by the cobra commands on top of Load.
//
// # JSON schema
//
// Durations accept Go duration strings or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:5678/api",
//	  "works_ttl": "5m",
//	  "categories_ttl": "5m",
//	  "session_ttl": "120m",
//	  "cache_backend": "duckdb",
//	  "cache_policy": "patch"
//	}
package config
