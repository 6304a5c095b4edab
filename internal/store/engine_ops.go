// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
)

// Insert writes row into table. Columns are bound in registry declaration
// order; columns missing from row take their SQL default.
func (e *Engine) Insert(ctx context.Context, table schema.Table, row Row) error {
	query, args, err := e.buildInsert(table, row, "")
	if err != nil {
		return err
	}

	if _, err = e.exec(ctx, query, args); err != nil {
		e.log(ctx).Err(err).
			Str("func", "Engine.Insert").
			Str("table", table.String()).
			Msg("failed to insert record")
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// InsertOrIgnore writes row unless a row with the same conflict key already
// exists. It reports whether a row was inserted.
func (e *Engine) InsertOrIgnore(ctx context.Context, table schema.Table, row Row) (bool, error) {
	query, args, err := e.buildInsert(table, row, "OR IGNORE")
	if err != nil {
		return false, err
	}

	res, err := e.exec(ctx, query, args)
	if err != nil {
		e.log(ctx).Err(err).
			Str("func", "Engine.InsertOrIgnore").
			Str("table", table.String()).
			Msg("failed to insert record")
		return false, fmt.Errorf("insert into %s: %w", table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return n > 0, nil
}

// Upsert inserts row or, when a row with the same conflict key exists,
// updates its non-key columns in place. Unlike INSERT OR REPLACE the
// existing row is never deleted, so rows referencing it are kept.
func (e *Engine) Upsert(ctx context.Context, table schema.Table, row Row) error {
	query, args, err := e.buildUpsert(table, row)
	if err != nil {
		return err
	}

	if _, err = e.exec(ctx, query, args); err != nil {
		e.log(ctx).Err(err).
			Str("func", "Engine.Upsert").
			Str("table", table.String()).
			Msg("failed to upsert record")
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	return nil
}

// UpsertBatch upserts every row on its own. Each record is all-or-nothing
// but the batch is not atomic: a failed record is reported in the result and
// the remaining records are still written.
//
// Outside a transaction every record runs in its own WithTx. Inside one,
// every record runs under a savepoint of the held transaction.
func (e *Engine) UpsertBatch(ctx context.Context, table schema.Table, rows []Row) BatchResult {
	log := e.log(ctx)
	result := BatchResult{}

	key, err := e.registry.ConflictKey(table)
	if err != nil {
		for i := range rows {
			result.Failed = append(result.Failed, BatchError{Index: i, Err: err})
		}
		return result
	}

	for i, row := range rows {
		query, args, err := e.buildUpsert(table, row)
		if err == nil {
			err = e.execRecord(ctx, query, args)
		}
		if err != nil {
			log.Warn().Err(err).
				Str("func", "Engine.UpsertBatch").
				Str("table", table.String()).
				Int("index", i).
				Msg("record of batch was not saved")
			result.Failed = append(result.Failed, BatchError{Index: i, Key: keyOf(row, key), Err: err})
			continue
		}
		result.Saved++
	}

	return result
}

func (e *Engine) execRecord(ctx context.Context, query string, args []any) error {
	if h := txFromContext(ctx, e); h != nil {
		return e.savepoint(ctx, h, func() error {
			_, err := h.conn.ExecContext(ctx, query, args...)
			return err
		})
	}
	return e.WithTx(ctx, func(ctx context.Context) error {
		_, err := e.exec(ctx, query, args)
		return err
	})
}

// Update sets the columns of row on every row matching where and returns
// the number of affected rows.
func (e *Engine) Update(ctx context.Context, table schema.Table, row Row, where Predicate) (int64, error) {
	cols, err := e.boundColumns(table, row)
	if err != nil {
		return 0, err
	}
	if err = e.registry.ValidateColumn(table, where.Column); err != nil {
		return 0, err
	}

	b := sq.Update(table.String())
	for _, c := range cols {
		b = b.Set(c, bindValue(row[c]))
	}
	query, args, err := b.Where(sq.Eq{where.Column: where.Value}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := e.exec(ctx, query, args)
	if err != nil {
		e.log(ctx).Err(err).
			Str("func", "Engine.Update").
			Str("table", table.String()).
			Msg("failed to update records")
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return rowsAffected(res)
}

// Delete removes every row matching where and returns the number of deleted
// rows.
func (e *Engine) Delete(ctx context.Context, table schema.Table, where Predicate) (int64, error) {
	if err := e.registry.ValidateColumn(table, where.Column); err != nil {
		return 0, err
	}

	query, args, err := sq.Delete(table.String()).Where(sq.Eq{where.Column: where.Value}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := e.exec(ctx, query, args)
	if err != nil {
		e.log(ctx).Err(err).
			Str("func", "Engine.Delete").
			Str("table", table.String()).
			Msg("failed to delete records")
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return rowsAffected(res)
}

// FindOne returns the first row matching where, or ErrRecordNotFound.
func (e *Engine) FindOne(ctx context.Context, table schema.Table, where Predicate) (Row, error) {
	rows, err := e.find(ctx, table, &where, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s where %s = %v", ErrRecordNotFound, table, where.Column, where.Value)
	}
	return rows[0], nil
}

// FindAll returns every row of table, filtered by where when it is not nil.
func (e *Engine) FindAll(ctx context.Context, table schema.Table, where *Predicate) ([]Row, error) {
	return e.find(ctx, table, where, 0)
}

func (e *Engine) find(ctx context.Context, table schema.Table, where *Predicate, limit uint64) ([]Row, error) {
	ts, err := e.registry.Table(table)
	if err != nil {
		return nil, err
	}

	b := sq.Select(ts.ColumnNames()...).From(table.String())
	if where != nil {
		if err = e.registry.ValidateColumn(table, where.Column); err != nil {
			return nil, err
		}
		b = b.Where(sq.Eq{where.Column: where.Value})
	}
	if limit > 0 {
		b = b.Limit(limit)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := e.QueryRaw(ctx, query, args...)
	if err != nil {
		e.log(ctx).Err(err).
			Str("func", "Engine.find").
			Str("table", table.String()).
			Msg("failed to select records")
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	return rows, nil
}

// ExecuteRaw runs a raw statement or script.
//
// Outside a transaction the statement runs under the transaction lock. A
// script may open a transaction only if it also ends it: an unterminated
// BEGIN is rejected with ErrUnterminatedTransaction before anything runs, and
// a transaction still open after the script (a statement after BEGIN failed)
// is rolled back before the lock is released. Inside a transaction,
// transaction control statements are rejected with ErrNestedTransaction, or
// stripped when nested transaction flattening is enabled.
func (e *Engine) ExecuteRaw(ctx context.Context, query string, args ...any) (sql.Result, error) {
	log := e.log(ctx)

	conn, err := e.connection(ctx)
	if err != nil {
		return nil, err
	}

	if e.InTx(ctx) {
		stmts := splitStatements(query)
		kept := make([]string, 0, len(stmts))
		for _, s := range stmts {
			if classifyStatement(s) == stmtOther {
				kept = append(kept, s)
			}
		}
		if len(kept) != len(stmts) {
			if !e.flattenNested {
				log.Error().Err(ErrNestedTransaction).
					Str("func", "Engine.ExecuteRaw").
					Msg("transaction control statement inside a held transaction")
				return nil, ErrNestedTransaction
			}
			if len(kept) == 0 {
				return driver.RowsAffected(0), nil
			}
			query = strings.Join(kept, "; ")
		}

		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			log.Err(err).Str("func", "Engine.ExecuteRaw").Msg("failed to execute statement")
			return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		return res, nil
	}

	opens, leavesOpen := scriptTransaction(splitStatements(query))
	if leavesOpen {
		log.Error().Err(ErrUnterminatedTransaction).
			Str("func", "Engine.ExecuteRaw").
			Msg("script opens a transaction outside WithTx")
		return nil, ErrUnterminatedTransaction
	}

	var res sql.Result
	err = e.withLock(ctx, func() error {
		var execErr error
		res, execErr = conn.ExecContext(ctx, query, args...)
		if opens && transactionActive(conn) {
			// the lock must not be released over an open transaction
			if execErr == nil {
				execErr = ErrUnterminatedTransaction
			}
			return e.rollbackWith(ctx, conn, execErr)
		}
		return execErr
	})
	if err != nil {
		log.Err(err).Str("func", "Engine.ExecuteRaw").Msg("failed to execute statement")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return res, nil
}

// scriptTransaction reports whether stmts contain a BEGIN and whether the
// last transaction control statement leaves a transaction open.
func scriptTransaction(stmts []string) (opens, leavesOpen bool) {
	for _, s := range stmts {
		switch classifyStatement(s) {
		case stmtBegin:
			opens, leavesOpen = true, true
		case stmtEnd:
			leavesOpen = false
		}
	}
	return opens, leavesOpen
}

// QueryRaw runs a raw query and returns every row. TEXT and BLOB values are
// returned as string.
func (e *Engine) QueryRaw(ctx context.Context, query string, args ...any) ([]Row, error) {
	conn, err := e.connection(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return result, nil
}

// exec runs a mutating statement in the transaction carried by ctx, or in a
// transaction of its own.
func (e *Engine) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	if h := txFromContext(ctx, e); h != nil {
		res, err := h.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		return res, nil
	}

	var res sql.Result
	err := e.WithTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = e.exec(ctx, query, args)
		return err
	})
	return res, err
}

// boundColumns returns the columns of row in registry declaration order and
// rejects columns the table does not have.
func (e *Engine) boundColumns(table schema.Table, row Row) ([]string, error) {
	ts, err := e.registry.Table(table)
	if err != nil {
		return nil, err
	}
	for c := range row {
		if _, ok := ts.Column(c); !ok {
			return nil, fmt.Errorf("%w: %s.%s", schema.ErrUnknownColumn, table, c)
		}
	}

	cols := make([]string, 0, len(row))
	for _, c := range ts.Columns {
		if _, ok := row[c.Name]; ok {
			cols = append(cols, c.Name)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRecord, table)
	}
	return cols, nil
}

func (e *Engine) buildInsert(table schema.Table, row Row, options string) (string, []any, error) {
	cols, err := e.boundColumns(table, row)
	if err != nil {
		return "", nil, err
	}

	values := make([]any, 0, len(cols))
	for _, c := range cols {
		values = append(values, bindValue(row[c]))
	}

	b := sq.Insert(table.String()).Columns(cols...).Values(values...)
	if options != "" {
		b = b.Options(options)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func (e *Engine) buildUpsert(table schema.Table, row Row) (string, []any, error) {
	key, err := e.registry.ConflictKey(table)
	if err != nil {
		return "", nil, err
	}
	for _, k := range key {
		if _, ok := row[k]; !ok {
			return "", nil, fmt.Errorf("%w: %s upsert needs %s", ErrEmptyRecord, table, strings.Join(key, ", "))
		}
	}

	cols, err := e.boundColumns(table, row)
	if err != nil {
		return "", nil, err
	}

	ts, _ := e.registry.Table(table)
	updates := make([]string, 0, len(cols))
	for _, c := range cols {
		if slices.Contains(key, c) || slices.Contains(ts.PrimaryKey, c) {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	suffix := fmt.Sprintf("ON CONFLICT(%s) DO NOTHING", strings.Join(key, ", "))
	if len(updates) > 0 {
		suffix = fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s", strings.Join(key, ", "), strings.Join(updates, ", "))
	}

	values := make([]any, 0, len(cols))
	for _, c := range cols {
		values = append(values, bindValue(row[c]))
	}

	query, args, err := sq.Insert(table.String()).Columns(cols...).Values(values...).Suffix(suffix).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return n, nil
}

func keyOf(row Row, key []string) string {
	parts := make([]string, 0, len(key))
	for _, k := range key {
		parts = append(parts, fmt.Sprint(row[k]))
	}
	return strings.Join(parts, ",")
}
