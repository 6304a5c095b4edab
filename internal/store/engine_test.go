// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	e := NewEngine(MemoryDSN, opts...)
	require.NoError(t, e.Init(context.Background(), false))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func userRow(id, email string) Row {
	return Row{"id": id, "email": email, "token": "tok-" + id, "last_login": int64(1000), "is_logged_in": int64(0)}
}

func spaceRow(id, name string) Row {
	return Row{"id": id, "name": name, "price_per_hour": 10.0, "max_people": int64(4)}
}

func TestEngine_Init(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(MemoryDSN, WithLogger(logger.Nop()))
	defer e.Close()

	assert.Equal(t, StateUninitialized, e.State())

	require.NoError(t, e.Init(ctx, false))
	assert.Equal(t, StateReady, e.State())
	assert.Equal(t, int64(schema.LatestVersion), e.SchemaVersion())

	// second call is a no-op
	require.NoError(t, e.Init(ctx, false))
	assert.Equal(t, StateReady, e.State())

	rows, err := e.QueryRaw(ctx, "PRAGMA user_version")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, schema.LatestVersion, rows[0]["user_version"])
}

func TestEngine_InitOnDemand(t *testing.T) {
	e := NewEngine(MemoryDSN, WithLogger(logger.Nop()))
	defer e.Close()

	require.NoError(t, e.Insert(context.Background(), schema.Users, userRow("u1", "a@b.c")))
	assert.Equal(t, StateReady, e.State())
}

func TestEngine_ConcurrentInit(t *testing.T) {
	e := NewEngine(MemoryDSN, WithLogger(logger.Nop()))
	defer e.Close()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.Init(context.Background(), false)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, StateReady, e.State())
}

func TestEngine_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(ctx, schema.Spaces, spaceRow("s1", "Loft")))
	require.NoError(t, e.Upsert(ctx, schema.Spaces, spaceRow("s1", "Loft")))

	rows, err := e.FindAll(ctx, schema.Spaces, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	updated := spaceRow("s1", "Big Loft")
	updated["price_per_hour"] = 25.5
	require.NoError(t, e.Upsert(ctx, schema.Spaces, updated))

	row, err := e.FindOne(ctx, schema.Spaces, Eq("id", "s1"))
	require.NoError(t, err)
	assert.Equal(t, "Big Loft", row["name"])
	assert.InDelta(t, 25.5, row["price_per_hour"], 1e-9)

	rows, err = e.FindAll(ctx, schema.Spaces, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEngine_UpsertKeepsReferencingRows(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")))
	require.NoError(t, e.Insert(ctx, schema.Spaces, spaceRow("s1", "Loft")))
	require.NoError(t, e.Insert(ctx, schema.FavoriteSpaces, Row{"space_id": "s1", "user_id": "u1", "created_at": int64(1)}))

	require.NoError(t, e.Upsert(ctx, schema.Spaces, spaceRow("s1", "Renamed")))
	require.NoError(t, e.Upsert(ctx, schema.Users, userRow("u1", "new@b.c")))

	rows, err := e.FindAll(ctx, schema.FavoriteSpaces, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEngine_InsertOrIgnore(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	inserted, err := e.InsertOrIgnore(ctx, schema.Users, userRow("u1", "a@b.c"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = e.InsertOrIgnore(ctx, schema.Users, userRow("u1", "other@b.c"))
	require.NoError(t, err)
	assert.False(t, inserted)

	row, err := e.FindOne(ctx, schema.Users, Eq("id", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", row["email"])
}

func TestEngine_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")))
	require.NoError(t, e.Insert(ctx, schema.Users, userRow("u2", "b@b.c")))

	n, err := e.Update(ctx, schema.Users, Row{"is_logged_in": int64(1)}, Eq("id", "u2"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := e.FindAll(ctx, schema.Users, Eq("is_logged_in", 1).Ptr())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u2", rows[0]["id"])

	n, err = e.Delete(ctx, schema.Users, Eq("id", "u1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = e.Delete(ctx, schema.Users, Eq("id", "missing"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestEngine_FindOneNotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.FindOne(context.Background(), schema.Users, Eq("id", "nobody"))
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestEngine_RejectsUnknownNames(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	err := e.Insert(ctx, schema.Users, Row{"id": "u1", "nickname": "x"})
	assert.ErrorIs(t, err, schema.ErrUnknownColumn)

	_, err = e.FindAll(ctx, schema.Table("bookings"), nil)
	assert.ErrorIs(t, err, schema.ErrUnknownTable)

	_, err = e.Delete(ctx, schema.Users, Eq("nickname", "x"))
	assert.ErrorIs(t, err, schema.ErrUnknownColumn)

	err = e.Insert(ctx, schema.Users, Row{})
	assert.ErrorIs(t, err, ErrEmptyRecord)

	err = e.Upsert(ctx, schema.Users, Row{"email": "a@b.c"})
	assert.ErrorIs(t, err, ErrEmptyRecord)
}

func TestEngine_ForeignKeysCascade(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")))
	require.NoError(t, e.Insert(ctx, schema.Spaces, spaceRow("s1", "Loft")))
	require.NoError(t, e.Insert(ctx, schema.FavoriteSpaces, Row{"space_id": "s1", "user_id": "u1"}))

	err := e.Insert(ctx, schema.FavoriteSpaces, Row{"space_id": "missing", "user_id": "u1"})
	require.Error(t, err)

	_, err = e.Delete(ctx, schema.Users, Eq("id", "u1"))
	require.NoError(t, err)

	rows, err := e.FindAll(ctx, schema.FavoriteSpaces, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEngine_WithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		e := newTestEngine(t)
		err := e.WithTx(ctx, func(ctx context.Context) error {
			assert.True(t, e.InTx(ctx))
			if err := e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")); err != nil {
				return err
			}
			return e.Insert(ctx, schema.Spaces, spaceRow("s1", "Loft"))
		})
		require.NoError(t, err)

		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		require.NoError(t, err)
		_, err = e.FindOne(ctx, schema.Spaces, Eq("id", "s1"))
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		e := newTestEngine(t)
		boom := errors.New("boom")
		err := e.WithTx(ctx, func(ctx context.Context) error {
			if err := e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		e := newTestEngine(t)
		assert.Panics(t, func() {
			_ = e.WithTx(ctx, func(ctx context.Context) error {
				_ = e.Insert(ctx, schema.Users, userRow("u1", "a@b.c"))
				panic("boom")
			})
		})

		_, err := e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		assert.ErrorIs(t, err, ErrRecordNotFound)

		// lock was released
		require.NoError(t, e.WithTx(ctx, func(ctx context.Context) error { return nil }))
	})
}

func TestEngine_NestedTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected by default", func(t *testing.T) {
		e := newTestEngine(t)
		var inner error
		err := e.WithTx(ctx, func(ctx context.Context) error {
			inner = e.WithTx(ctx, func(ctx context.Context) error { return nil })
			return nil
		})
		require.NoError(t, err)
		assert.ErrorIs(t, inner, ErrNestedTransaction)
	})

	t.Run("flattened when enabled", func(t *testing.T) {
		e := newTestEngine(t, WithNestedTxFlattening())
		err := e.WithTx(ctx, func(ctx context.Context) error {
			return e.WithTx(ctx, func(ctx context.Context) error {
				return e.Insert(ctx, schema.Users, userRow("u1", "a@b.c"))
			})
		})
		require.NoError(t, err)

		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		require.NoError(t, err)
	})

	t.Run("flattened inner failure rolls back the outer", func(t *testing.T) {
		e := newTestEngine(t, WithNestedTxFlattening())
		boom := errors.New("boom")
		err := e.WithTx(ctx, func(ctx context.Context) error {
			if err := e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")); err != nil {
				return err
			}
			return e.WithTx(ctx, func(ctx context.Context) error { return boom })
		})
		require.ErrorIs(t, err, boom)

		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestEngine_ExecuteRawInsideTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected by default", func(t *testing.T) {
		e := newTestEngine(t)
		err := e.WithTx(ctx, func(ctx context.Context) error {
			_, err := e.ExecuteRaw(ctx, "BEGIN")
			return err
		})
		assert.ErrorIs(t, err, ErrNestedTransaction)
	})

	t.Run("stripped when flattening", func(t *testing.T) {
		e := newTestEngine(t, WithNestedTxFlattening())
		err := e.WithTx(ctx, func(ctx context.Context) error {
			_, err := e.ExecuteRaw(ctx,
				"BEGIN; INSERT INTO users (id, email) VALUES ('u1', 'a@b.c'); COMMIT")
			return err
		})
		require.NoError(t, err)

		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		require.NoError(t, err)
	})

	t.Run("savepoint rollback is allowed", func(t *testing.T) {
		e := newTestEngine(t)
		err := e.WithTx(ctx, func(ctx context.Context) error {
			if _, err := e.ExecuteRaw(ctx, "SAVEPOINT manual"); err != nil {
				return err
			}
			if err := e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")); err != nil {
				return err
			}
			if _, err := e.ExecuteRaw(ctx, "ROLLBACK TO manual"); err != nil {
				return err
			}
			_, err := e.ExecuteRaw(ctx, "RELEASE manual")
			return err
		})
		require.NoError(t, err)

		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestEngine_RecoversUnexpectedTransaction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	// транзакция, открытая мимо движка
	_, err := e.conn.Load().ExecContext(ctx, "BEGIN")
	require.NoError(t, err)
	require.True(t, transactionActive(e.conn.Load()))

	require.NoError(t, e.Upsert(ctx, schema.Users, userRow("u1", "a@b.c")))

	row, err := e.FindOne(ctx, schema.Users, Eq("id", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", row["email"])

	assert.False(t, transactionActive(e.conn.Load()))
}

func TestEngine_ExecuteRawOutsideTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("unterminated begin is rejected", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.ExecuteRaw(ctx, "BEGIN")
		assert.ErrorIs(t, err, ErrUnterminatedTransaction)

		_, err = e.ExecuteRaw(ctx, "BEGIN; INSERT INTO users (id, email) VALUES ('u1', 'a@b.c')")
		assert.ErrorIs(t, err, ErrUnterminatedTransaction)

		assert.False(t, transactionActive(e.conn.Load()))
		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("complete script commits", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.ExecuteRaw(ctx,
			"BEGIN; INSERT INTO users (id, email) VALUES ('u1', 'a@b.c'); COMMIT")
		require.NoError(t, err)

		assert.False(t, transactionActive(e.conn.Load()))
		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		require.NoError(t, err)
	})

	t.Run("failed script is rolled back", func(t *testing.T) {
		e := newTestEngine(t)

		// вставка в несуществующую таблицу обрывает скрипт до COMMIT
		_, err := e.ExecuteRaw(ctx,
			"BEGIN; INSERT INTO users (id, email) VALUES ('u1', 'a@b.c'); "+
				"INSERT INTO missing (id) VALUES (1); COMMIT")
		require.ErrorIs(t, err, ErrExecutingQuery)

		assert.False(t, transactionActive(e.conn.Load()))
		_, err = e.FindOne(ctx, schema.Users, Eq("id", "u1"))
		assert.ErrorIs(t, err, ErrRecordNotFound)

		// блокировка отпущена, следующая запись проходит
		require.NoError(t, e.Insert(ctx, schema.Users, userRow("u2", "c@d.e")))
	})

	t.Run("other writers are not lost", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.ExecuteRaw(ctx, "BEGIN")
		require.ErrorIs(t, err, ErrUnterminatedTransaction)
		_, err = e.ExecuteRaw(ctx, "INSERT INTO users (id, email) VALUES ('a', 'a@b.c')")
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- e.Insert(ctx, schema.Users, userRow("b", "b@b.c")) }()
		require.NoError(t, <-done)

		rows, err := e.FindAll(ctx, schema.Users, nil)
		require.NoError(t, err)
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r["id"].(string))
		}
		assert.ElementsMatch(t, []string{"a", "b"}, ids)
	})
}

func TestScriptTransaction(t *testing.T) {
	tests := []struct {
		name       string
		script     string
		opens      bool
		leavesOpen bool
	}{
		{name: "plain statement", script: "DELETE FROM users"},
		{name: "bare begin", script: "begin", opens: true, leavesOpen: true},
		{name: "begin commit", script: "BEGIN; DELETE FROM users; COMMIT", opens: true},
		{name: "begin rollback", script: "BEGIN IMMEDIATE; ROLLBACK", opens: true},
		{name: "rollback to savepoint", script: "BEGIN; ROLLBACK TO sp", opens: true, leavesOpen: true},
		{name: "second begin left open", script: "BEGIN; END; BEGIN", opens: true, leavesOpen: true},
		{name: "quoted keyword", script: "INSERT INTO users (id) VALUES ('x; BEGIN')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opens, leavesOpen := scriptTransaction(splitStatements(tt.script))
			assert.Equal(t, tt.opens, opens)
			assert.Equal(t, tt.leavesOpen, leavesOpen)
		})
	}
}

func TestEngine_SingleActiveTransaction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(ev string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}

	started := make(chan struct{})
	done := make(chan error, 2)

	go func() {
		done <- e.WithTx(ctx, func(ctx context.Context) error {
			record("first:start")
			close(started)
			time.Sleep(50 * time.Millisecond)
			if err := e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")); err != nil {
				return err
			}
			record("first:end")
			return nil
		})
	}()

	<-started
	go func() {
		done <- e.WithTx(ctx, func(ctx context.Context) error {
			record("second:start")
			if err := e.Insert(ctx, schema.Users, userRow("u2", "b@b.c")); err != nil {
				return err
			}
			record("second:end")
			return nil
		})
	}()

	require.NoError(t, <-done)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"first:start", "first:end", "second:start", "second:end"}, events)

	rows, err := e.FindAll(ctx, schema.Users, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestEngine_WithTxHonoursContext(t *testing.T) {
	e := newTestEngine(t)

	release := make(chan struct{})
	held := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = e.WithTx(context.Background(), func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer func() {
		close(release)
		<-finished
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := e.WithTx(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_UpsertBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("outside transaction", func(t *testing.T) {
		e := newTestEngine(t)
		res := e.UpsertBatch(ctx, schema.Spaces, []Row{
			spaceRow("s1", "Loft"),
			{"name": "no id"},
			spaceRow("s2", "Hall"),
		})

		assert.Equal(t, 2, res.Saved)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, 1, res.Failed[0].Index)
		assert.ErrorIs(t, res.Failed[0], ErrEmptyRecord)
		assert.False(t, res.OK())
		assert.Error(t, res.Err())

		rows, err := e.FindAll(ctx, schema.Spaces, nil)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("inside transaction", func(t *testing.T) {
		e := newTestEngine(t)
		require.NoError(t, e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")))
		require.NoError(t, e.Insert(ctx, schema.Spaces, spaceRow("s1", "Loft")))

		var res BatchResult
		err := e.WithTx(ctx, func(ctx context.Context) error {
			res = e.UpsertBatch(ctx, schema.FavoriteSpaces, []Row{
				{"space_id": "s1", "user_id": "u1", "created_at": int64(1)},
				{"space_id": "missing", "user_id": "u1", "created_at": int64(2)},
			})
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Saved)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, "missing,u1", res.Failed[0].Key)

		rows, err := e.FindAll(ctx, schema.FavoriteSpaces, nil)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("empty batch", func(t *testing.T) {
		e := newTestEngine(t)
		res := e.UpsertBatch(ctx, schema.Spaces, nil)
		assert.True(t, res.OK())
		assert.NoError(t, res.Err())
	})
}

func TestEngine_InitClear(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + t.TempDir() + "/clear.db"
	e := NewEngine(dsn, WithLogger(logger.Nop()))
	defer e.Close()
	require.NoError(t, e.Init(ctx, false))

	require.NoError(t, e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")))
	require.NoError(t, e.Insert(ctx, schema.Spaces, spaceRow("s1", "Loft")))
	require.NoError(t, e.Insert(ctx, schema.FavoriteSpaces, Row{"space_id": "s1", "user_id": "u1"}))

	require.NoError(t, e.Init(ctx, true))
	assert.Equal(t, StateReady, e.State())

	for _, table := range e.Registry().TableNames() {
		rows, err := e.FindAll(ctx, table, nil)
		require.NoError(t, err)
		assert.Empty(t, rows, table.String())
	}

	require.NoError(t, e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")))
	require.NoError(t, e.Insert(ctx, schema.Spaces, spaceRow("s1", "Loft")))
	require.NoError(t, e.Insert(ctx, schema.FavoriteSpaces, Row{"space_id": "s1", "user_id": "u1"}))

	row, err := e.FindOne(ctx, schema.FavoriteSpaces, Eq("space_id", "s1"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, row["id"])
}

func TestEngine_InitClearInsideTransaction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	done := make(chan error, 1)
	go func() {
		done <- e.WithTx(ctx, func(ctx context.Context) error {
			if err := e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")); err != nil {
				return err
			}
			if err := e.Init(ctx, true); !errors.Is(err, ErrNestedTransaction) {
				return fmt.Errorf("clear inside transaction: got %v", err)
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Init(clear) deadlocked inside WithTx")
	}

	_, err := e.FindOne(ctx, schema.Users, Eq("id", "u1"))
	require.NoError(t, err)
}

func TestEngine_InitClearWaitsForTransaction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- e.WithTx(ctx, func(ctx context.Context) error {
			if err := e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")); err != nil {
				return err
			}
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	clearDone := make(chan error, 1)
	go func() { clearDone <- e.Init(ctx, true) }()

	// очистка не должна вклиниться в чужую транзакцию
	select {
	case err := <-clearDone:
		t.Fatalf("clear finished while a transaction was held: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-txDone)
	require.NoError(t, <-clearDone)

	rows, err := e.FindAll(ctx, schema.Users, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// внешние ключи снова включены
	err = e.Insert(ctx, schema.FavoriteSpaces, Row{"space_id": "missing", "user_id": "nobody"})
	assert.Error(t, err)
}

func TestEngine_CloseAndReopen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + t.TempDir() + "/reopen.db"
	e := NewEngine(dsn, WithLogger(logger.Nop()))

	require.NoError(t, e.Insert(ctx, schema.Users, userRow("u1", "a@b.c")))
	require.NoError(t, e.Close())
	assert.Equal(t, StateUninitialized, e.State())

	row, err := e.FindOne(ctx, schema.Users, Eq("id", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", row["email"])
	require.NoError(t, e.Close())
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("BEGIN; INSERT INTO t VALUES ('a;b'); ; COMMIT")
	assert.Equal(t, []string{"BEGIN", "INSERT INTO t VALUES ('a;b')", "COMMIT"}, got)
}

func TestClassifyStatement(t *testing.T) {
	tests := []struct {
		stmt string
		want txStatement
	}{
		{"BEGIN", stmtBegin},
		{"begin immediate transaction", stmtBegin},
		{"COMMIT", stmtEnd},
		{"end transaction", stmtEnd},
		{"ROLLBACK", stmtEnd},
		{"ROLLBACK TO sp_1", stmtOther},
		{"SELECT 1", stmtOther},
		{"", stmtOther},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyStatement(tt.stmt))
		})
	}
}
