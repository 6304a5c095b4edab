// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package schema is the static description of the local SQLite tables.
//
// The [Registry] is the single source of truth for table names, column
// declaration order, primary keys, uniqueness and foreign-key constraints.
// The storage engine binds values positionally in the order returned by
// [Registry.Columns], and migrations create and evolve tables only through the
// statements generated here. Evolution is additive: a column records the
// schema version that introduced it and is added with ALTER TABLE ADD COLUMN.
package schema
