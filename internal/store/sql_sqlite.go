// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN selects a private in-memory database.
const MemoryDSN = ":memory:"

// Opener opens the database behind dsn. The engine pings, migrates and pins
// the returned handle itself.
type Opener func(ctx context.Context, dsn string) (*sql.DB, error)

// OpenSQLite is the default [Opener]. File databases get their parent
// directory and file created when missing. The pool is limited to a single
// connection, which the engine pins for its lifetime.
func OpenSQLite(_ context.Context, dsn string) (*sql.DB, error) {
	if path, ok := filePath(dsn); ok {
		if err := createLocalDBFileIfNotExists(path); err != nil {
			return nil, fmt.Errorf("error creating database file: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	return db, nil
}

// normalizeDSN turns the ":memory:" shorthand into a named shared-cache
// memory database so that every connection of one engine sees the same data.
func normalizeDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || dsn == MemoryDSN {
		return "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	return dsn
}

// filePath returns the on-disk path of dsn, or false for memory databases.
func filePath(dsn string) (string, bool) {
	if strings.Contains(dsn, "mode=memory") || dsn == MemoryDSN {
		return "", false
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", false
	}
	return path, true
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		if dir := filepath.Dir(dbFile); dir != "." {
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("error creating DB directory: %w", err)
			}
		}
		// if not found - create
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	// file already exists
	return nil
}
