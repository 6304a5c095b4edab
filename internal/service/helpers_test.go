// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/config"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/store"
	"github.com/stretchr/testify/require"
)

// newTestStorages открывает чистую in-memory базу для одного теста
func newTestStorages(t *testing.T) *store.ClientStorages {
	t.Helper()
	storages, err := store.NewClientStorages(context.Background(),
		config.ClientStorage{DB: config.ClientDB{DSN: store.MemoryDSN}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storages.Close() })
	return storages
}

// clock is a settable time source for expiry tests.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestSessionSvc(t *testing.T, storages *store.ClientStorages, c *clock) *sessionService {
	t.Helper()
	svc := NewSessionService(storages, 0, logger.Nop()).(*sessionService)
	svc.now = c.Now
	return svc
}
