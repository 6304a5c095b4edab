// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"flag"
	"fmt"
	"time"
)

// parseFlags parses all configuration flags from args into a fresh config.
//
// Flags:
//
//	-a remote API base URL
//	-d database DSN
//	-c/-config json file path with configs
//	-request-timeout request timeout (e.g., "15s")
//	-health-path connectivity check path
//	-session-max-inactivity session expiry window (e.g., "720h")
//	-refresh-interval cache refresh period (e.g., "5m")
//	-flatten-nested-tx run nested transactions inside the enclosing one
func parseFlags(fs *flag.FlagSet, args []string) (*StructuredConfig, error) {
	var (
		address         string
		databaseDSN     string
		jsonConfigPath  string
		requestTimeout  time.Duration
		healthPath      string
		maxInactivity   time.Duration
		refreshInterval time.Duration
		flattenNestedTx bool
	)

	fs.StringVar(&address, "a", "", "Remote API base URL")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")
	fs.StringVar(&healthPath, "health-path", "", "Connectivity check path")
	fs.DurationVar(&maxInactivity, "session-max-inactivity", 0, "Session expiry window (e.g., 720h)")
	fs.DurationVar(&refreshInterval, "refresh-interval", 0, "Cache refresh interval (e.g., 5m)")
	fs.BoolVar(&flattenNestedTx, "flatten-nested-tx", false, "Run nested transactions inside the enclosing one")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		Storage: Storage{
			DB:              DB{DSN: databaseDSN},
			FlattenNestedTx: flattenNestedTx,
		},
		Adapter: Adapter{
			HTTPAddress:    address,
			RequestTimeout: requestTimeout,
			HealthPath:     healthPath,
		},
		Session:      Session{MaxInactivity: maxInactivity},
		Workers:      Workers{RefreshInterval: refreshInterval},
		JSONFilePath: jsonConfigPath,
	}, nil
}
