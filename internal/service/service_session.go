// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/store"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

// DefaultMaxInactivity is the session expiry window used when none is
// configured.
const DefaultMaxInactivity = 30 * 24 * time.Hour

type sessionService struct {
	storages      *store.ClientStorages
	maxInactivity time.Duration
	now           func() time.Time
	logger        *logger.Logger
}

// NewSessionService returns a [SessionService] expiring sessions that have
// been inactive for longer than maxInactivity (DefaultMaxInactivity when
// zero or negative).
func NewSessionService(storages *store.ClientStorages, maxInactivity time.Duration, log *logger.Logger) SessionService {
	if maxInactivity <= 0 {
		maxInactivity = DefaultMaxInactivity
	}
	return &sessionService{
		storages:      storages,
		maxInactivity: maxInactivity,
		now:           time.Now,
		logger:        log,
	}
}

func (s *sessionService) SaveSession(ctx context.Context, id, email, token string) (models.User, error) {
	log := logger.FromContextOr(ctx, s.logger)

	id = strings.TrimSpace(id)
	email = sanitizeEmail(email)
	token = strings.TrimSpace(token)
	if id == "" || email == "" || token == "" {
		return models.User{}, fmt.Errorf("%w: id, email and token are required", ErrValidation)
	}

	user := models.User{
		ID:         id,
		Email:      email,
		Token:      token,
		LastLogin:  s.now(),
		IsLoggedIn: true,
	}

	err := withTx(ctx, s.storages.Engine, func(ctx context.Context) error {
		if _, err := s.storages.Users.LogoutOthers(ctx, id); err != nil {
			return err
		}
		return s.storages.Users.Upsert(ctx, user)
	})
	if err != nil {
		log.Err(err).Str("func", "sessionService.SaveSession").Str("user_id", id).Msg("failed to save session")
		return models.User{}, fmt.Errorf("save session: %w", err)
	}

	log.Info().Str("func", "sessionService.SaveSession").Str("user_id", id).Msg("session saved")
	return user, nil
}

func (s *sessionService) GetCurrentUser(ctx context.Context, email string) (*models.User, error) {
	log := logger.FromContextOr(ctx, s.logger)

	where := store.Eq("is_logged_in", 1)
	if email = sanitizeEmail(email); email != "" {
		where = store.Eq("email", email)
	}

	users, err := s.storages.Users.FindAll(ctx, where.Ptr())
	if err != nil {
		log.Err(err).Str("func", "sessionService.GetCurrentUser").Msg("failed to load session")
		return nil, fmt.Errorf("get current user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	user := mostRecent(users)
	if s.expired(user) {
		log.Info().
			Str("func", "sessionService.GetCurrentUser").
			Str("user_id", user.ID).
			Time("last_login", user.LastLogin).
			Msg("session expired")
		if user.IsLoggedIn {
			if _, err = s.storages.Users.UpdateColumns(ctx, store.Row{"is_logged_in": 0}, store.Eq("id", user.ID)); err != nil {
				log.Err(err).Str("func", "sessionService.GetCurrentUser").Msg("failed to log out expired session")
				return nil, fmt.Errorf("expire session: %w", err)
			}
		}
		return nil, nil
	}

	return &user, nil
}

func (s *sessionService) GetUserSession(ctx context.Context, id string) (*models.User, error) {
	user, err := s.storages.Users.FindOne(ctx, store.Eq("id", strings.TrimSpace(id)))
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user session: %w", err)
	}
	return &user, nil
}

func (s *sessionService) Logout(ctx context.Context, id string) error {
	log := logger.FromContextOr(ctx, s.logger)

	n, err := s.storages.Users.UpdateColumns(ctx, store.Row{
		"is_logged_in": 0,
		"last_login":   s.now(),
	}, store.Eq("id", strings.TrimSpace(id)))
	if err != nil {
		log.Err(err).Str("func", "sessionService.Logout").Str("user_id", id).Msg("failed to log out")
		return fmt.Errorf("logout: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	log.Info().Str("func", "sessionService.Logout").Str("user_id", id).Msg("logged out")
	return nil
}

func (s *sessionService) ClearSession(ctx context.Context, id string) error {
	log := logger.FromContextOr(ctx, s.logger)

	if _, err := s.storages.Users.Delete(ctx, store.Eq("id", strings.TrimSpace(id))); err != nil {
		log.Err(err).Str("func", "sessionService.ClearSession").Str("user_id", id).Msg("failed to clear session")
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *sessionService) IsLoggedIn(ctx context.Context, id string) (bool, error) {
	user, err := s.GetUserSession(ctx, id)
	if err != nil || user == nil {
		return false, err
	}
	return user.IsLoggedIn && !s.expired(*user), nil
}

func (s *sessionService) expired(user models.User) bool {
	return s.now().Sub(user.LastLogin) > s.maxInactivity
}

func sanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// mostRecent returns the user with the latest LastLogin, preferring a
// logged-in row.
func mostRecent(users []models.User) models.User {
	return slices.MaxFunc(users, func(a, b models.User) int {
		if a.IsLoggedIn != b.IsLoggedIn {
			if a.IsLoggedIn {
				return 1
			}
			return -1
		}
		return a.LastLogin.Compare(b.LastLogin)
	})
}

// withTx joins the transaction carried by ctx or starts a new one.
func withTx(ctx context.Context, engine *store.Engine, fn func(ctx context.Context) error) error {
	if engine.InTx(ctx) {
		return fn(ctx)
	}
	return engine.WithTx(ctx, fn)
}
