// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MarcoDecco/spacefy-mobile/internal/adapter"
	"github.com/MarcoDecco/spacefy-mobile/internal/config"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/store"
)

// ClientServices groups every client service built on one set of storages
// and one remote adapter.
type ClientServices struct {
	SessionService  SessionService
	AuthService     AuthService
	FavoriteService FavoriteService
	SpaceService    SpaceService
	RefreshJob      CacheRefreshJob
}

// NewClientServices wires the services together.
func NewClientServices(
	storages *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	connectivity adapter.ConnectivityChecker,
	cfg config.ClientConfig,
	logger *logger.Logger,
) *ClientServices {
	sessionSvc := NewSessionService(storages, cfg.Session.MaxInactivity, logger)
	favoriteSvc := NewFavoriteService(storages, sessionSvc, serverAdapter, connectivity, logger)
	spaceSvc := NewSpaceService(storages, serverAdapter, connectivity, logger)

	return &ClientServices{
		SessionService:  sessionSvc,
		AuthService:     NewAuthService(sessionSvc, serverAdapter, connectivity, logger),
		FavoriteService: favoriteSvc,
		SpaceService:    spaceSvc,
		RefreshJob:      NewCacheRefreshJob(spaceSvc, favoriteSvc, cfg.Workers.RefreshInterval, logger),
	}
}
