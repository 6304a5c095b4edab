// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// Default values applied before any other source.
const (
	DefaultDSN             = "spacefy.db"
	DefaultHTTPAddress     = "http://localhost:3000"
	DefaultRequestTimeout  = 15 * time.Second
	DefaultHealthPath      = "/health"
	DefaultMaxInactivity   = 30 * 24 * time.Hour
	DefaultRefreshInterval = 5 * time.Minute
	DefaultEnvFile         = ".env"
)

// StructuredConfig is the top-level configuration container. It aggregates
// all sub-configurations and is populated by merging values from the
// defaults, a .env file, environment variables, command-line flags and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Storage holds the local SQLite settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the remote API client settings.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Session holds the local session policy.
	Session Session `envPrefix:"SESSION_"`

	// Workers holds configuration for background jobs.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`

	// EnvFilePath is the .env file to read. Env: ENV_FILE
	EnvFilePath string `env:"ENV_FILE"`
}

// Storage groups the local persistence settings.
type Storage struct {
	// DB holds the SQLite connection settings.
	DB DB `envPrefix:"DB_"`

	// FlattenNestedTx enables the legacy behaviour of running a nested
	// transaction inside the enclosing one instead of rejecting it.
	// Env: STORAGE_FLATTEN_NESTED_TX
	FlattenNestedTx bool `env:"FLATTEN_NESTED_TX"`
}

// DB holds the SQLite connection settings.
type DB struct {
	// DSN is a file path, a "file:" URI, or ":memory:".
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Adapter holds the remote API client settings.
type Adapter struct {
	// HTTPAddress is the base URL of the remote API
	// (e.g. "https://api.spacefy.example").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds every outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// HealthPath is requested to decide whether the remote API is reachable.
	// Env: ADAPTER_HEALTH_PATH
	HealthPath string `env:"HEALTH_PATH"`
}

// Session holds the local session policy.
type Session struct {
	// MaxInactivity is how long a session stays valid after its last login
	// or logout. Env: SESSION_MAX_INACTIVITY
	MaxInactivity time.Duration `env:"MAX_INACTIVITY"`
}

// Workers holds configuration for background jobs.
type Workers struct {
	// RefreshInterval is the period of the cache refresh job.
	// Env: WORKERS_REFRESH_INTERVAL
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`
}

// Defaults returns the configuration used when no source sets a value.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{
			DB: DB{DSN: DefaultDSN},
		},
		Adapter: Adapter{
			HTTPAddress:    DefaultHTTPAddress,
			RequestTimeout: DefaultRequestTimeout,
			HealthPath:     DefaultHealthPath,
		},
		Session: Session{MaxInactivity: DefaultMaxInactivity},
		Workers: Workers{RefreshInterval: DefaultRefreshInterval},
	}
}

// GetStructuredConfig loads and merges the configuration from all available
// sources. Later sources override non-zero fields of earlier ones:
//  1. Defaults
//  2. .env file (path from ENV_FILE, defaults to ".env"; optional)
//  3. Environment variables
//  4. Command-line flags
//  5. JSON file (path resolved from sources 2–4)
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withDefaults().
		withDotEnv().
		withEnv().
		withFlags().
		withJSON().
		build()
}
