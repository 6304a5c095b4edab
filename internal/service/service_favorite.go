// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/adapter"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/store"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

type favoriteService struct {
	storages     *store.ClientStorages
	sessions     SessionService
	adapter      adapter.ServerAdapter
	connectivity adapter.ConnectivityChecker
	now          func() time.Time
	logger       *logger.Logger
}

// NewFavoriteService returns a [FavoriteService]. The remote API is only
// called when connectivity reports online and a token is known.
func NewFavoriteService(
	storages *store.ClientStorages,
	sessions SessionService,
	serverAdapter adapter.ServerAdapter,
	connectivity adapter.ConnectivityChecker,
	log *logger.Logger,
) FavoriteService {
	return &favoriteService{
		storages:     storages,
		sessions:     sessions,
		adapter:      serverAdapter,
		connectivity: connectivity,
		now:          time.Now,
		logger:       log,
	}
}

func (f *favoriteService) ListFavorites(ctx context.Context, fallback models.Identity) ([]models.FavoriteSpace, error) {
	log := logger.FromContextOr(ctx, f.logger)

	if err := f.storages.Engine.Init(ctx, false); err != nil {
		return nil, err
	}

	id, err := f.resolveIdentity(ctx, fallback)
	if err != nil {
		return nil, err
	}

	if id.Token != "" && f.connectivity.IsOnline(ctx) {
		f.mergeRemoteFavorites(ctx, id)
	} else {
		log.Debug().Str("func", "favoriteService.ListFavorites").Msg("serving favorites from local cache")
	}

	favorites, err := f.storages.Favorites.ListSpaces(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// mergeRemoteFavorites upserts every remote favorite into the local cache.
// Local favorites missing from the remote list are kept. Failures are
// logged only.
func (f *favoriteService) mergeRemoteFavorites(ctx context.Context, id models.Identity) {
	log := logger.FromContextOr(ctx, f.logger)

	spaces, err := f.adapter.GetFavorites(ctx, id.UserID, id.Token)
	if err != nil {
		log.Warn().Err(err).
			Str("func", "favoriteService.mergeRemoteFavorites").
			Str("user_id", id.UserID).
			Msg("remote favorites unavailable, using local cache")
		return
	}

	merged := 0
	for _, space := range spaces {
		err = withTx(ctx, f.storages.Engine, func(ctx context.Context) error {
			if err := f.storages.Spaces.Upsert(ctx, space); err != nil {
				return err
			}
			_, err := f.storages.Favorites.Add(ctx, models.Favorite{
				SpaceID:   space.ID,
				UserID:    id.UserID,
				CreatedAt: f.now(),
			})
			return err
		})
		if errors.Is(err, store.ErrUserNotFound) {
			log.Warn().Err(err).
				Str("func", "favoriteService.mergeRemoteFavorites").
				Str("user_id", id.UserID).
				Msg("user has no local row, remote favorites not merged")
			return
		}
		if err != nil {
			log.Warn().Err(err).
				Str("func", "favoriteService.mergeRemoteFavorites").
				Str("space_id", space.ID).
				Msg("remote favorite not merged")
			continue
		}
		merged++
	}

	log.Debug().
		Str("func", "favoriteService.mergeRemoteFavorites").
		Int("remote", len(spaces)).
		Int("merged", merged).
		Msg("remote favorites merged")
}

func (f *favoriteService) ToggleFavorite(ctx context.Context, space models.Space, fallback models.Identity) (bool, error) {
	log := logger.FromContextOr(ctx, f.logger)

	space.ID = strings.TrimSpace(space.ID)
	if space.ID == "" {
		return false, fmt.Errorf("%w: space id is required", ErrValidation)
	}

	id, err := f.resolveIdentity(ctx, fallback)
	if err != nil {
		return false, err
	}

	current, err := f.storages.Favorites.Exists(ctx, id.UserID, space.ID)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	next := !current

	if id.Token != "" && f.connectivity.IsOnline(ctx) {
		remote, err := f.adapter.ToggleFavorite(ctx, id.UserID, space.ID, id.Token)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "favoriteService.ToggleFavorite").
				Str("space_id", space.ID).
				Msg("remote toggle failed, applying local state")
		} else {
			next = remote
		}
	}

	err = withTx(ctx, f.storages.Engine, func(ctx context.Context) error {
		if !next {
			_, err := f.storages.Favorites.Remove(ctx, id.UserID, space.ID)
			return err
		}
		if err := f.cacheSpace(ctx, space); err != nil {
			return err
		}
		_, err := f.storages.Favorites.Add(ctx, models.Favorite{
			SpaceID:   space.ID,
			UserID:    id.UserID,
			CreatedAt: f.now(),
		})
		return err
	})
	if err != nil {
		log.Err(err).
			Str("func", "favoriteService.ToggleFavorite").
			Str("space_id", space.ID).
			Msg("failed to apply favorite locally")
		return false, fmt.Errorf("toggle favorite: %w", err)
	}

	return next, nil
}

// cacheSpace upserts a complete space. A space carrying only its id is
// inserted when missing so that the cached listing is not blanked.
func (f *favoriteService) cacheSpace(ctx context.Context, space models.Space) error {
	if space.Name != "" {
		return f.storages.Spaces.Upsert(ctx, space)
	}
	_, err := f.storages.Spaces.InsertOrIgnore(ctx, space)
	return err
}

func (f *favoriteService) IsFavorite(ctx context.Context, userID, spaceID string) (bool, error) {
	userID, spaceID = strings.TrimSpace(userID), strings.TrimSpace(spaceID)
	if userID == "" || spaceID == "" {
		return false, fmt.Errorf("%w: user id and space id are required", ErrValidation)
	}
	return f.storages.Favorites.Exists(ctx, userID, spaceID)
}

func (f *favoriteService) MarkViewed(ctx context.Context, userID, spaceID string) error {
	userID, spaceID = strings.TrimSpace(userID), strings.TrimSpace(spaceID)
	if userID == "" || spaceID == "" {
		return fmt.Errorf("%w: user id and space id are required", ErrValidation)
	}

	if _, err := f.storages.Favorites.Touch(ctx, userID, spaceID, f.now()); err != nil {
		return fmt.Errorf("mark viewed: %w", err)
	}
	return nil
}

// resolveIdentity prefers the current session over fallback.
func (f *favoriteService) resolveIdentity(ctx context.Context, fallback models.Identity) (models.Identity, error) {
	log := logger.FromContextOr(ctx, f.logger)

	user, err := f.sessions.GetCurrentUser(ctx, "")
	if err != nil {
		log.Warn().Err(err).Str("func", "favoriteService.resolveIdentity").Msg("current session unavailable")
	}
	if user != nil {
		return models.Identity{UserID: user.ID, Token: user.Token}, nil
	}

	id := models.Identity{UserID: strings.TrimSpace(fallback.UserID), Token: strings.TrimSpace(fallback.Token)}
	if id.UserID == "" {
		return models.Identity{}, fmt.Errorf("%w: no user identity", ErrValidation)
	}
	return id, nil
}
