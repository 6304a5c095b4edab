// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/service"
	"github.com/MarcoDecco/spacefy-mobile/internal/store"
	"github.com/MarcoDecco/spacefy-mobile/internal/workers"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var errNoServices = errors.New("client services are not configured")

// App is the client runtime: it restores the saved session, runs the
// background workers and closes local storage on shutdown.
type App struct {
	services *service.ClientServices
	storages *store.ClientStorages
	workers  *workers.Workers
	logger   *logger.Logger
}

// NewApp returns the client runtime. storages is closed when Run returns.
func NewApp(services *service.ClientServices, storages *store.ClientStorages, log *logger.Logger) (*App, error) {
	if services == nil || storages == nil {
		return nil, errNoServices
	}
	if log == nil {
		log = logger.Nop()
	}

	return &App{
		services: services,
		storages: storages,
		workers:  workers.NewWorkers(services.RefreshJob),
		logger:   log,
	}, nil
}

// Run blocks until SIGTERM, SIGINT or SIGQUIT.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	l := a.logger.GetChildLogger()
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("run_id", uuid.NewString())
	})
	ctx = l.WithContext(ctx)
	log := logger.FromContextOr(ctx, a.logger)

	user, err := a.services.AuthService.RestoreSession(ctx)
	if err != nil {
		log.Err(err).Str("func", "App.run").Msg("error restoring session")
		return a.shutdown(ctx, fmt.Errorf("restore session: %w", err))
	}
	if user != nil {
		log.Info().Str("user_id", user.ID).Msg("session restored")
	} else {
		log.Info().Msg("no active session, favorites are refreshed after login")
	}

	a.workers.Run(ctx)
	log.Info().Msg("client started")

	<-ctx.Done()
	return a.shutdown(ctx, nil)
}

func (a *App) shutdown(ctx context.Context, cause error) error {
	log := logger.FromContextOr(ctx, a.logger)

	a.services.RefreshJob.Stop()

	if err := a.storages.Close(); err != nil {
		log.Err(err).Str("func", "App.shutdown").Msg("error closing local storage")
		return errors.Join(cause, fmt.Errorf("close storage: %w", err))
	}

	log.Info().Msg("client shutdown gracefully")
	return cause
}
