// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
	"github.com/MarcoDecco/spacefy-mobile/migrations"
	"github.com/looplab/fsm"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of an [Engine].
type State string

// Engine lifecycle states.
const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

const (
	eventOpen   = "open"
	eventOpened = "opened"
	eventFail   = "fail"
	eventReset  = "reset"
)

// MigrateFunc brings the schema of db up to date and returns its version.
type MigrateFunc func(ctx context.Context, db *sql.DB, reg *schema.Registry) (int64, error)

// Option configures an [Engine].
type Option func(*Engine)

// WithOpener replaces [OpenSQLite].
func WithOpener(o Opener) Option {
	return func(e *Engine) {
		e.opener = o
	}
}

// WithMigrate replaces [migrations.Migrate].
func WithMigrate(m MigrateFunc) Option {
	return func(e *Engine) {
		e.migrate = m
	}
}

// WithRegistry replaces [schema.Default].
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLogger sets the logger used for lifecycle events and for calls whose
// context carries no logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithNestedTxFlattening makes a nested WithTx run inside the enclosing
// transaction, and strips BEGIN/COMMIT/ROLLBACK from ExecuteRaw statements
// issued while a transaction is held. Without it both are rejected with
// ErrNestedTransaction.
func WithNestedTxFlattening() Option {
	return func(e *Engine) {
		e.flattenNested = true
	}
}

// Engine is the single-writer SQLite record store.
//
// All statements run on one pinned connection. Writers are serialized by a
// transaction lock; reads are not serialized against writers. An Engine is
// safe for concurrent use.
type Engine struct {
	dsn           string
	registry      *schema.Registry
	opener        Opener
	migrate       MigrateFunc
	logger        *logger.Logger
	flattenNested bool

	errorClassificator ErrorClassificator

	// txLock is the transaction lock: a send acquires it, a receive releases.
	txLock chan struct{}

	group   singleflight.Group
	mu      sync.Mutex // serializes open/clear/close
	machine *fsm.FSM
	db      *sql.DB
	conn    atomic.Pointer[sql.Conn]
	version int64
}

// NewEngine returns an uninitialized engine for dsn. Nothing is opened until
// Init or the first operation.
func NewEngine(dsn string, opts ...Option) *Engine {
	e := &Engine{
		dsn:      normalizeDSN(dsn),
		registry: schema.Default(),
		opener:   OpenSQLite,
		migrate:  migrations.Migrate,
		logger:   logger.Nop(),
		txLock:   make(chan struct{}, 1),

		errorClassificator: NewSQLiteErrorClassifier(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.machine = fsm.NewFSM(
		string(StateUninitialized),
		fsm.Events{
			{Name: eventOpen, Src: []string{string(StateUninitialized), string(StateFailed)}, Dst: string(StateInitializing)},
			{Name: eventOpened, Src: []string{string(StateInitializing)}, Dst: string(StateReady)},
			{Name: eventFail, Src: []string{string(StateInitializing)}, Dst: string(StateFailed)},
			{Name: eventReset, Src: []string{string(StateFailed), string(StateReady)}, Dst: string(StateUninitialized)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, ev *fsm.Event) {
				e.logger.Debug().
					Str("func", "Engine.enterState").
					Str("from", ev.Src).
					Str("to", ev.Dst).
					Msg("storage engine state changed")
			},
		},
	)

	return e
}

// Registry returns the schema registry the engine was built with.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.machine.Current())
}

// SchemaVersion returns the schema version reported by the last successful
// migration.
func (e *Engine) SchemaVersion() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Init opens, migrates and verifies the database. It is idempotent and
// concurrent callers share a single initialization. With clear set, every
// table is emptied and the engine is re-opened; clearing from inside WithTx
// fails with ErrNestedTransaction.
func (e *Engine) Init(ctx context.Context, clear bool) error {
	key := "init"
	if clear {
		if e.InTx(ctx) {
			e.log(ctx).Error().Err(ErrNestedTransaction).
				Str("func", "Engine.Init").
				Msg("clear requested inside a held transaction")
			return ErrNestedTransaction
		}
		key = "init-clear"
	}

	_, err, _ := e.group.Do(key, func() (any, error) {
		return nil, e.init(ctx, clear)
	})
	return err
}

func (e *Engine) init(ctx context.Context, clear bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() != StateReady {
		if err := e.open(ctx); err != nil {
			return err
		}
	}
	if !clear {
		return nil
	}

	if err := e.clearTables(ctx); err != nil {
		return err
	}

	e.closeLocked(ctx)
	return e.open(ctx)
}

// open must be called with e.mu held.
func (e *Engine) open(ctx context.Context) error {
	log := e.log(ctx)

	if err := e.machine.Event(ctx, eventOpen); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	db, err := e.opener(ctx, e.dsn)
	if err != nil {
		log.Err(err).Str("func", "Engine.open").Msg("error opening database")
		return e.failOpen(ctx, nil, nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
	}

	if err = db.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "Engine.open").Msg("error connecting database (ping)")
		return e.failOpen(ctx, db, nil, fmt.Errorf("%w: ping: %w", ErrStorageUnavailable, err))
	}

	version, err := e.migrate(ctx, db, e.registry)
	if err != nil {
		log.Err(err).Str("func", "Engine.open").Msg("error migrating database")
		return e.failOpen(ctx, db, nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		log.Err(err).Str("func", "Engine.open").Msg("error acquiring connection")
		return e.failOpen(ctx, db, nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
	}

	if _, err = conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		log.Err(err).Str("func", "Engine.open").Msg("error enabling foreign keys")
		return e.failOpen(ctx, db, conn, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
	}

	var one int
	if err = conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil || one != 1 {
		if err == nil {
			err = fmt.Errorf("liveness check returned %d", one)
		}
		log.Err(err).Str("func", "Engine.open").Msg("database liveness check failed")
		return e.failOpen(ctx, db, conn, fmt.Errorf("%w: %w", ErrVerificationFailed, err))
	}

	e.db = db
	e.conn.Store(conn)
	e.version = version

	if err = e.machine.Event(ctx, eventOpened); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	log.Debug().
		Str("func", "Engine.open").
		Int64("schema_version", version).
		Msg("connected to database successfully")
	return nil
}

// failOpen releases whatever was opened, moves the machine through failed
// back to uninitialized and returns cause.
func (e *Engine) failOpen(ctx context.Context, db *sql.DB, conn *sql.Conn, cause error) error {
	if conn != nil {
		_ = conn.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	_ = e.machine.Event(ctx, eventFail)
	_ = e.machine.Event(ctx, eventReset)
	return cause
}

// Close releases the connection. A later operation re-opens the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closeLocked(context.Background())
}

func (e *Engine) closeLocked(ctx context.Context) error {
	var firstErr error
	if conn := e.conn.Swap(nil); conn != nil {
		firstErr = conn.Close()
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.db = nil
	}
	if e.State() == StateReady || e.State() == StateFailed {
		_ = e.machine.Event(ctx, eventReset)
	}
	return firstErr
}

// clearTables empties every table in reverse dependency order and resets the
// AUTOINCREMENT counters. Must be called with e.mu held on a ready engine.
func (e *Engine) clearTables(ctx context.Context) error {
	log := e.log(ctx)
	conn := e.conn.Load()

	err := e.withLock(ctx, func() error {
		// foreign_keys cannot be changed inside a transaction
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
			return fmt.Errorf("disable foreign keys: %w", err)
		}

		err := e.deleteAll(ctx, conn)
		if _, fkErr := conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); fkErr != nil && err == nil {
			err = fmt.Errorf("enable foreign keys: %w", fkErr)
		}
		if err != nil {
			return err
		}

		if _, err = conn.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn().Err(err).Str("func", "Engine.clearTables").Msg("vacuum failed")
		}
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "Engine.clearTables").Msg("error clearing tables")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().Str("func", "Engine.clearTables").Msg("local database cleared")
	return nil
}

// deleteAll runs the DELETE statements of clearTables in one transaction.
// Must be called with the transaction lock held.
func (e *Engine) deleteAll(ctx context.Context, conn *sql.Conn) error {
	if err := e.begin(ctx, conn); err != nil {
		return err
	}

	tables := e.registry.TableNames()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := conn.ExecContext(ctx, "DELETE FROM "+tables[i].String()); err != nil {
			return e.rollbackWith(ctx, conn, fmt.Errorf("clear %s: %w", tables[i], err))
		}
	}

	var seq int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").Scan(&seq)
	if err != nil {
		return e.rollbackWith(ctx, conn, fmt.Errorf("check sqlite_sequence: %w", err))
	}
	if seq > 0 {
		if _, err = conn.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
			return e.rollbackWith(ctx, conn, fmt.Errorf("reset sqlite_sequence: %w", err))
		}
	}

	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return e.rollbackWith(ctx, conn, fmt.Errorf("commit clear: %w", err))
	}
	return nil
}

// connection returns the pinned connection, initializing the engine first
// when needed.
func (e *Engine) connection(ctx context.Context) (*sql.Conn, error) {
	if h := txFromContext(ctx, e); h != nil {
		return h.conn, nil
	}
	if conn := e.conn.Load(); conn != nil && e.State() == StateReady {
		return conn, nil
	}
	if err := e.Init(ctx, false); err != nil {
		return nil, err
	}
	conn := e.conn.Load()
	if conn == nil {
		return nil, fmt.Errorf("%w: engine closed", ErrStorageUnavailable)
	}
	return conn, nil
}

func (e *Engine) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, e.logger)
}
