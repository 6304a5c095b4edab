// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
)

// Table is a typed repository over one registered table. It converts
// entities with its [Codec] and delegates every statement to the [Engine],
// so it inherits the engine's transaction discipline: called with a context
// that carries a transaction, every method joins it.
type Table[T any] struct {
	engine *Engine
	name   schema.Table
	codec  Codec[T]
}

// NewTable binds codec to the named table of engine.
func NewTable[T any](engine *Engine, name schema.Table, codec Codec[T]) *Table[T] {
	return &Table[T]{engine: engine, name: name, codec: codec}
}

// Name returns the table the repository is bound to.
func (t *Table[T]) Name() schema.Table {
	return t.name
}

// Insert writes v as a new row.
func (t *Table[T]) Insert(ctx context.Context, v T) error {
	return t.engine.Insert(ctx, t.name, t.codec.Encode(v))
}

// InsertOrIgnore writes v unless its conflict key already exists.
func (t *Table[T]) InsertOrIgnore(ctx context.Context, v T) (bool, error) {
	return t.engine.InsertOrIgnore(ctx, t.name, t.codec.Encode(v))
}

// Upsert inserts v or updates the row with the same conflict key.
func (t *Table[T]) Upsert(ctx context.Context, v T) error {
	return t.engine.Upsert(ctx, t.name, t.codec.Encode(v))
}

// UpsertBatch upserts every value independently.
func (t *Table[T]) UpsertBatch(ctx context.Context, values []T) BatchResult {
	rows := make([]Row, 0, len(values))
	for _, v := range values {
		rows = append(rows, t.codec.Encode(v))
	}
	return t.engine.UpsertBatch(ctx, t.name, rows)
}

// Update writes every column of v to the rows matching where.
func (t *Table[T]) Update(ctx context.Context, v T, where Predicate) (int64, error) {
	return t.engine.Update(ctx, t.name, t.codec.Encode(v), where)
}

// UpdateColumns writes only the given columns to the rows matching where.
func (t *Table[T]) UpdateColumns(ctx context.Context, columns Row, where Predicate) (int64, error) {
	return t.engine.Update(ctx, t.name, columns, where)
}

// Delete removes the rows matching where.
func (t *Table[T]) Delete(ctx context.Context, where Predicate) (int64, error) {
	return t.engine.Delete(ctx, t.name, where)
}

// FindOne returns the first value matching where, or ErrRecordNotFound.
func (t *Table[T]) FindOne(ctx context.Context, where Predicate) (T, error) {
	var zero T

	row, err := t.engine.FindOne(ctx, t.name, where)
	if err != nil {
		return zero, err
	}
	return t.codec.Decode(row, t.engine.log(ctx))
}

// FindAll returns the values matching where, or every value when where is
// nil. Rows that cannot be decoded are logged and skipped.
func (t *Table[T]) FindAll(ctx context.Context, where *Predicate) ([]T, error) {
	log := t.engine.log(ctx)

	rows, err := t.engine.FindAll(ctx, t.name, where)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := t.codec.Decode(row, log)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "Table.FindAll").
				Str("table", t.name.String()).
				Msg("row skipped: cannot be decoded")
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
