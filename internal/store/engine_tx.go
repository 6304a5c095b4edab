// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// beginRetryInterval is the pause between the failed BEGIN and its single
// retry after an unexpected transaction was rolled back.
var beginRetryInterval = 10 * time.Millisecond

type txKey struct {
	engine *Engine
}

// txHandle is stored in the context of a held transaction.
type txHandle struct {
	conn       *sql.Conn
	savepoints int
}

func txFromContext(ctx context.Context, e *Engine) *txHandle {
	h, _ := ctx.Value(txKey{engine: e}).(*txHandle)
	return h
}

// InTx reports whether ctx carries a transaction held on this engine.
func (e *Engine) InTx(ctx context.Context) bool {
	return txFromContext(ctx, e) != nil
}

// WithTx runs fn inside a transaction.
//
// The transaction lock is taken before BEGIN and released after COMMIT or
// ROLLBACK, including when fn panics. An error returned by fn rolls the
// transaction back; a rollback failure is reported together with the
// original error. The context passed to fn carries the transaction, and
// engine operations called with it join the transaction instead of starting
// their own.
//
// Calling WithTx with a context that already carries a transaction returns
// ErrNestedTransaction, unless the engine was built with
// WithNestedTxFlattening, in which case fn simply runs in the enclosing
// transaction.
func (e *Engine) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	log := e.log(ctx)

	if e.InTx(ctx) {
		if e.flattenNested {
			return fn(ctx)
		}
		log.Error().Err(ErrNestedTransaction).Str("func", "Engine.WithTx").Msg("nested transaction rejected")
		return ErrNestedTransaction
	}

	conn, err := e.connection(ctx)
	if err != nil {
		return err
	}

	if err = e.acquire(ctx); err != nil {
		log.Err(err).Str("func", "Engine.WithTx").Msg("transaction lock was not acquired")
		return fmt.Errorf("acquire transaction lock: %w", err)
	}
	defer e.release()

	if err = e.begin(ctx, conn); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := e.rollback(ctx, conn); rbErr != nil {
				log.Err(rbErr).Str("func", "Engine.WithTx").Msg("rollback after panic failed")
			}
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{engine: e}, &txHandle{conn: conn})
	if err = fn(txCtx); err != nil {
		return e.rollbackWith(ctx, conn, err)
	}

	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		log.Err(err).Str("func", "Engine.WithTx").Msg("failed to commit transaction")
		return e.rollbackWith(ctx, conn, fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// acquire takes the transaction lock or gives up when ctx is done.
func (e *Engine) acquire(ctx context.Context) error {
	select {
	case e.txLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() {
	<-e.txLock
}

// withLock runs fn while holding the transaction lock.
func (e *Engine) withLock(ctx context.Context, fn func() error) error {
	if err := e.acquire(ctx); err != nil {
		return fmt.Errorf("acquire transaction lock: %w", err)
	}
	defer e.release()

	return fn()
}

// begin starts a transaction on conn. A transaction found open on the
// connection is rolled back, logged as ErrTransactionConflict, and BEGIN is
// retried once. A busy or locked database gets the same single retry.
func (e *Engine) begin(ctx context.Context, conn *sql.Conn) error {
	log := e.log(ctx)

	op := func() error {
		if transactionActive(conn) {
			e.recoverConflict(ctx, conn, "autocommit check")
		}

		_, err := conn.ExecContext(ctx, "BEGIN")
		if err == nil {
			return nil
		}
		if isActiveTransactionError(err) {
			e.recoverConflict(ctx, conn, err.Error())
			return fmt.Errorf("%w: %w", ErrTransactionConflict, err)
		}
		if e.errorClassificator.Classify(err) == Retryable {
			log.Warn().Err(err).Str("func", "Engine.begin").Msg("database busy, retrying BEGIN")
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(beginRetryInterval), 1),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		log.Err(err).Str("func", "Engine.begin").Msg("failed to begin transaction")
		return fmt.Errorf("begin transaction: %w", err)
	}
	return nil
}

func (e *Engine) recoverConflict(ctx context.Context, conn *sql.Conn, reason string) {
	log := e.log(ctx)
	log.Warn().
		Err(ErrTransactionConflict).
		Str("func", "Engine.begin").
		Str("reason", reason).
		Msg("rolling back transaction left open on the connection")

	if err := e.rollback(ctx, conn); err != nil {
		log.Err(err).Str("func", "Engine.begin").Msg("rollback of unexpected transaction failed")
	}
}

// rollback issues ROLLBACK even when ctx is already cancelled.
func (e *Engine) rollback(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
	return err
}

// rollbackWith rolls back and returns cause, annotated with the rollback
// failure if there was one.
func (e *Engine) rollbackWith(ctx context.Context, conn *sql.Conn, cause error) error {
	if rbErr := e.rollback(ctx, conn); rbErr != nil {
		e.log(ctx).Err(rbErr).Str("func", "Engine.rollback").Msg("failed to rollback transaction")
		return fmt.Errorf("%w (rollback: %v)", cause, rbErr)
	}
	return cause
}

// transactionActive reads the autocommit state of the driver connection. It reports false for
// drivers that do not expose their autocommit state.
func transactionActive(conn *sql.Conn) bool {
	active := false
	_ = conn.Raw(func(driverConn any) error {
		if ac, ok := driverConn.(interface{ AutoCommit() bool }); ok {
			active = !ac.AutoCommit()
		}
		return nil
	})
	return active
}

func isActiveTransactionError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "within a transaction")
}

// savepoint runs fn under a SAVEPOINT of the held transaction so that a
// failure of fn undoes only its own changes.
func (e *Engine) savepoint(ctx context.Context, h *txHandle, fn func() error) error {
	h.savepoints++
	name := fmt.Sprintf("sp_%d", h.savepoints)

	if _, err := h.conn.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%w: savepoint: %w", ErrExecutingQuery, err)
	}

	if err := fn(); err != nil {
		_, rbErr := h.conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK TO "+name)
		_, relErr := h.conn.ExecContext(context.WithoutCancel(ctx), "RELEASE "+name)
		if rbErr = errors.Join(rbErr, relErr); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if _, err := h.conn.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("%w: release savepoint: %w", ErrExecutingQuery, err)
	}
	return nil
}

// txStatement classifies a single SQL statement by its leading keyword.
type txStatement int

const (
	stmtOther txStatement = iota
	stmtBegin
	stmtEnd
)

func classifyStatement(stmt string) txStatement {
	fields := strings.Fields(strings.ToUpper(stmt))
	if len(fields) == 0 {
		return stmtOther
	}
	switch fields[0] {
	case "BEGIN":
		return stmtBegin
	case "COMMIT", "END":
		return stmtEnd
	case "ROLLBACK":
		// ROLLBACK TO <savepoint> stays inside the transaction
		if len(fields) > 1 && fields[1] == "TO" {
			return stmtOther
		}
		return stmtEnd
	}
	return stmtOther
}

// splitStatements splits a script on semicolons outside of quoted text.
func splitStatements(script string) []string {
	var (
		stmts []string
		cur   strings.Builder
		quote rune
	)
	for _, r := range script {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
