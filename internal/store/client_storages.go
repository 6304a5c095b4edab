// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MarcoDecco/spacefy-mobile/internal/config"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

// ClientStorages groups the storage engine and the typed repositories built
// on it into a single value that can be passed around the service layer.
type ClientStorages struct {
	// Engine is the shared SQLite engine. Services use it for transactions
	// spanning several repositories.
	Engine *Engine

	// Users holds the local session rows.
	Users *UserRepository

	// Spaces is the offline cache of space listings.
	Spaces *Table[models.Space]

	// Favorites holds the (space, user) relations.
	Favorites *FavoriteRepository
}

// NewClientStorages builds the engine for cfg.DB.DSN and the repositories on
// top of it, then initializes the engine. It returns an error if the
// database cannot be opened, migrated or verified.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, log *logger.Logger, opts ...Option) (*ClientStorages, error) {
	log.Info().Msg("creating new storages...")

	if cfg.FlattenNestedTx {
		opts = append(opts, WithNestedTxFlattening())
	}
	opts = append([]Option{WithLogger(log)}, opts...)

	engine := NewEngine(cfg.DB.DSN, opts...)
	if err := engine.Init(ctx, false); err != nil {
		return nil, fmt.Errorf("sqlite storage init error: %w", err)
	}

	return NewClientStoragesFromEngine(engine), nil
}

// NewClientStoragesFromEngine wires the repositories to an existing engine
// without initializing it.
func NewClientStoragesFromEngine(engine *Engine) *ClientStorages {
	return &ClientStorages{
		Engine:    engine,
		Users:     NewUserRepository(engine),
		Spaces:    NewTable(engine, schema.Spaces, SpaceCodec),
		Favorites: NewFavoriteRepository(engine),
	}
}

// Close releases the engine.
func (s *ClientStorages) Close() error {
	return s.Engine.Close()
}
