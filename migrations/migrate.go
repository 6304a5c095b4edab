// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package migrations evolves the local SQLite schema.
//
// Migrations are Go migrations generated from the schema registry and applied
// with a goose provider in ascending order. After goose finishes, the applied
// version is mirrored into PRAGMA user_version.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
	"github.com/pressly/goose/v3"
)

// ErrNilDB is returned when Migrate is called without a database handle.
var ErrNilDB = errors.New("db is nil")

// Migrate applies every pending migration to db and returns the resulting
// schema version.
func Migrate(ctx context.Context, db *sql.DB, reg *schema.Registry) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("migration error: %w", ErrNilDB)
	}
	if reg == nil {
		reg = schema.Default()
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, nil,
		goose.WithGoMigrations(Steps(reg)...),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return 0, fmt.Errorf("migration error creating provider: %w", err)
	}

	if _, err = provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("migration error: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration error reading version: %w", err)
	}

	// PRAGMA does not accept bound parameters
	if _, err = db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return 0, fmt.Errorf("migration error setting user_version: %w", err)
	}

	return version, nil
}

// Steps returns the ordered migrations derived from reg.
func Steps(reg *schema.Registry) []*goose.Migration {
	steps := make([]*goose.Migration, 0, schema.LatestVersion)
	for v := schema.BaseVersion; v <= schema.LatestVersion; v++ {
		stmts, err := statements(reg, v)
		steps = append(steps, goose.NewGoMigration(int64(v), &goose.GoFunc{
			RunTx: func(ctx context.Context, tx *sql.Tx) error {
				if err != nil {
					return err
				}
				for _, stmt := range stmts {
					if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
						return fmt.Errorf("exec %q: %w", stmt, execErr)
					}
				}
				return nil
			},
			Mode: goose.TransactionEnabled,
		}, nil))
	}
	return steps
}

func statements(reg *schema.Registry, version int) ([]string, error) {
	if version == schema.BaseVersion {
		stmts := make([]string, 0, len(reg.TableNames()))
		for _, t := range reg.TableNames() {
			stmt, err := reg.CreateStatement(t)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		return stmts, nil
	}

	stmts := reg.AddColumnStatements(version)
	if version == schema.LatestVersion {
		stmts = append(stmts, reg.IndexStatements()...)
	}
	return stmts, nil
}
