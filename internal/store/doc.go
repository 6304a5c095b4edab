// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package store implements the local SQLite record store of the Spacefy
// client.
//
// The [Engine] owns a single pinned connection and enforces a single-writer
// transaction discipline on top of it: one transaction at a time, guarded by
// a process-wide lock, with recovery of transactions left open on the
// connection by earlier failures. Records cross the engine boundary as [Row]
// values keyed by column name; the typed [Table] repositories convert them to
// and from the entities in package models.
//
// Only this package touches the SQL connection.
package store
