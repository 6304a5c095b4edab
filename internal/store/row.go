// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"strings"
)

// Row is a record keyed by column name. Values written through the engine
// should already be coerced to their SQL storage type by a codec.
type Row map[string]any

// Predicate is a single equality filter "Column = Value".
type Predicate struct {
	Column string
	Value  any
}

// Eq returns the predicate column = value.
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Value: value}
}

// Ptr returns p as a pointer, for FindAll style optional filters.
func (p Predicate) Ptr() *Predicate {
	return &p
}

// BatchError describes one record of an [Engine.UpsertBatch] that was not
// written.
type BatchError struct {
	Index int
	Key   string
	Err   error
}

// Error implements error.
func (b BatchError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", b.Index, b.Key, b.Err)
}

// Unwrap returns the underlying error.
func (b BatchError) Unwrap() error {
	return b.Err
}

// BatchResult reports the outcome of every record of a batch upsert.
type BatchResult struct {
	Saved  int
	Failed []BatchError
}

// OK reports whether every record was written.
func (r BatchResult) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the per-record failures into a single error, or returns nil.
func (r BatchResult) Err() error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		msgs = append(msgs, f.Error())
	}
	return fmt.Errorf("%d of %d records failed: %s",
		len(r.Failed), r.Saved+len(r.Failed), strings.Join(msgs, "; "))
}
