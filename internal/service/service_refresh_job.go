// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

const defaultRefreshInterval = 5 * time.Minute

type cacheRefreshJob struct {
	spaces    SpaceService
	favorites FavoriteService
	interval  time.Duration
	logger    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCacheRefreshJob creates a job that refreshes the space cache and the
// favorites of the current user on a ticker. The job is idle until Start or
// Run is called.
func NewCacheRefreshJob(spaces SpaceService, favorites FavoriteService, interval time.Duration, log *logger.Logger) CacheRefreshJob {
	return &cacheRefreshJob{spaces: spaces, favorites: favorites, interval: interval, logger: log}
}

// Run implements CacheRefreshJob.
func (j *cacheRefreshJob) Run(ctx context.Context) {
	j.Start(ctx, j.interval)
}

// Start implements CacheRefreshJob. It stops any previously running job, then
// launches a background goroutine that refreshes once immediately and then
// every interval. The goroutine exits when ctx is cancelled or Stop is called.
func (j *cacheRefreshJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		j.refresh(jobCtx)
		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.refresh(jobCtx)
			}
		}
	}()
}

// Stop implements CacheRefreshJob. Safe to call when the job is not running.
func (j *cacheRefreshJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// refresh never surfaces errors: background refresh degrades silently.
func (j *cacheRefreshJob) refresh(ctx context.Context) {
	log := logger.FromContextOr(ctx, j.logger)

	if _, err := j.spaces.RefreshSpaces(ctx); err != nil && ctx.Err() == nil {
		log.Debug().Err(err).Str("func", "cacheRefreshJob.refresh").Msg("space refresh skipped")
	}

	_, err := j.favorites.ListFavorites(ctx, models.Identity{})
	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, ErrValidation):
		log.Debug().Str("func", "cacheRefreshJob.refresh").Msg("no current user, favorites refresh skipped")
	default:
		log.Warn().Err(err).Str("func", "cacheRefreshJob.refresh").Msg("favorites refresh failed")
	}
}
