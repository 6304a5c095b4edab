// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Lifecycle errors returned by [Engine.Init] and by every operation that
// initializes the engine on demand.
var (
	// ErrStorageUnavailable is returned when the database cannot be opened,
	// pinged or migrated.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrVerificationFailed is returned when the post-open liveness check
	// fails on an otherwise opened database.
	ErrVerificationFailed = errors.New("storage verification failed")
)

// Transaction discipline errors.
var (
	// ErrTransactionConflict marks a transaction that was found open on the
	// connection before BEGIN. The engine rolls it back and retries once; the
	// error is logged and only returned when the retry fails as well.
	ErrTransactionConflict = errors.New("unexpected active transaction")

	// ErrNestedTransaction is returned for WithTx inside WithTx, or for
	// transaction control statements sent through ExecuteRaw while a
	// transaction is held, unless nested transaction flattening is enabled.
	ErrNestedTransaction = errors.New("nested transaction")

	// ErrUnterminatedTransaction is returned by ExecuteRaw outside WithTx for
	// a script that would leave a transaction open. Use WithTx instead.
	ErrUnterminatedTransaction = errors.New("script leaves a transaction open, use WithTx")
)

// Record level errors.
var (
	// ErrCodec marks a stored value that could not be decoded. Malformed JSON
	// columns are logged with this error and decoded as empty values.
	ErrCodec = errors.New("record codec error")

	// ErrRecordNotFound is returned by FindOne when no row matches.
	ErrRecordNotFound = errors.New("record not found")

	// ErrUserNotFound is returned when a favorite is written for a user that
	// has no local session row.
	ErrUserNotFound = errors.New("user not found")

	// ErrSpaceNotCached is returned when a favorite references a space that
	// has no row in the local cache.
	ErrSpaceNotCached = errors.New("space not cached")

	// ErrEmptyRecord is returned when a write carries no known columns.
	ErrEmptyRecord = errors.New("record has no columns")
)

// Low-level database operation errors.
var (
	// ErrBuildingSQLQuery is returned when constructing a SQL statement fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a statement or query fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRows is returned when reading a result set fails.
	ErrScanningRows = errors.New("failed to scan rows")
)
