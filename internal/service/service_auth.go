// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcoDecco/spacefy-mobile/internal/adapter"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

type authService struct {
	sessions     SessionService
	adapter      adapter.ServerAdapter
	connectivity adapter.ConnectivityChecker
	logger       *logger.Logger
}

// NewAuthService returns an [AuthService] that stores sessions through
// sessions and authenticates through serverAdapter.
func NewAuthService(sessions SessionService, serverAdapter adapter.ServerAdapter, connectivity adapter.ConnectivityChecker, log *logger.Logger) AuthService {
	return &authService{sessions: sessions, adapter: serverAdapter, connectivity: connectivity, logger: log}
}

func (a *authService) Login(ctx context.Context, email, password string) (models.User, error) {
	log := logger.FromContextOr(ctx, a.logger)

	email = sanitizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return models.User{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	if a.connectivity.IsOnline(ctx) {
		res, err := a.adapter.Login(ctx, models.Credentials{Email: email, Password: password})
		if err == nil {
			if res.Email == "" {
				res.Email = email
			}
			return a.sessions.SaveSession(ctx, res.UserID, res.Email, res.Token)
		}
		if !isRemoteUnavailable(err) {
			log.Err(err).Str("func", "authService.Login").Msg("remote login rejected")
			return models.User{}, mapAdapterError(err)
		}
		log.Warn().Err(err).Str("func", "authService.Login").Msg("remote api unavailable, trying offline login")
	}

	return a.offlineLogin(ctx, email)
}

// offlineLogin re-enters the preserved session of email without the remote
// API.
func (a *authService) offlineLogin(ctx context.Context, email string) (models.User, error) {
	log := logger.FromContextOr(ctx, a.logger)

	user, err := a.sessions.GetCurrentUser(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("offline login: %w", err)
	}
	if user == nil || user.Token == "" {
		log.Info().Str("func", "authService.offlineLogin").Msg("no usable local session")
		return models.User{}, ErrOfflineLoginUnavailable
	}

	saved, err := a.sessions.SaveSession(ctx, user.ID, user.Email, user.Token)
	if err != nil {
		return models.User{}, fmt.Errorf("offline login: %w", err)
	}
	a.adapter.SetToken(saved.Token)

	log.Info().Str("func", "authService.offlineLogin").Str("user_id", saved.ID).Msg("logged in offline")
	return saved, nil
}

func (a *authService) Logout(ctx context.Context) error {
	user, err := a.sessions.GetCurrentUser(ctx, "")
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoActiveUser
	}

	if err = a.sessions.Logout(ctx, user.ID); err != nil {
		return err
	}
	a.adapter.SetToken("")
	return nil
}

func (a *authService) RestoreSession(ctx context.Context) (*models.User, error) {
	user, err := a.sessions.GetCurrentUser(ctx, "")
	if err != nil || user == nil {
		return nil, err
	}
	a.adapter.SetToken(user.Token)
	return user, nil
}
