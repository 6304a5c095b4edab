// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoDecco/spacefy-mobile/internal/adapter"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/store"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

type spaceService struct {
	storages     *store.ClientStorages
	adapter      adapter.ServerAdapter
	connectivity adapter.ConnectivityChecker
	logger       *logger.Logger
}

// NewSpaceService returns a [SpaceService].
func NewSpaceService(storages *store.ClientStorages, serverAdapter adapter.ServerAdapter, connectivity adapter.ConnectivityChecker, log *logger.Logger) SpaceService {
	return &spaceService{storages: storages, adapter: serverAdapter, connectivity: connectivity, logger: log}
}

func (s *spaceService) RefreshSpaces(ctx context.Context) (store.BatchResult, error) {
	log := logger.FromContextOr(ctx, s.logger)

	if !s.connectivity.IsOnline(ctx) {
		return store.BatchResult{}, fmt.Errorf("refresh spaces: %w", adapter.ErrRemoteUnavailable)
	}

	spaces, err := s.adapter.ListSpaces(ctx)
	if err != nil {
		log.Warn().Err(err).Str("func", "spaceService.RefreshSpaces").Msg("failed to fetch spaces")
		return store.BatchResult{}, fmt.Errorf("refresh spaces: %w", err)
	}

	res := s.storages.Spaces.UpsertBatch(ctx, spaces)
	if !res.OK() {
		log.Warn().Err(res.Err()).
			Str("func", "spaceService.RefreshSpaces").
			Int("saved", res.Saved).
			Int("failed", len(res.Failed)).
			Msg("space cache partially refreshed")
	} else {
		log.Debug().Str("func", "spaceService.RefreshSpaces").Int("saved", res.Saved).Msg("space cache refreshed")
	}
	return res, nil
}

func (s *spaceService) ListSpaces(ctx context.Context, filter *store.Predicate) ([]models.Space, error) {
	spaces, err := s.storages.Spaces.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return spaces, nil
}

func (s *spaceService) GetSpace(ctx context.Context, id string) (models.Space, error) {
	log := logger.FromContextOr(ctx, s.logger)

	id = strings.TrimSpace(id)
	if id == "" {
		return models.Space{}, fmt.Errorf("%w: space id is required", ErrValidation)
	}

	space, err := s.storages.Spaces.FindOne(ctx, store.Eq("id", id))
	if err == nil {
		return space, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) || !s.connectivity.IsOnline(ctx) {
		return models.Space{}, fmt.Errorf("get space: %w", err)
	}

	remote, rErr := s.adapter.GetSpace(ctx, id)
	if rErr != nil {
		log.Warn().Err(rErr).Str("func", "spaceService.GetSpace").Str("space_id", id).Msg("remote space unavailable")
		return models.Space{}, fmt.Errorf("get space: %w", errors.Join(err, rErr))
	}

	if err = s.storages.Spaces.Upsert(ctx, remote); err != nil {
		log.Warn().Err(err).Str("func", "spaceService.GetSpace").Str("space_id", id).Msg("space not cached")
	}
	return remote, nil
}
