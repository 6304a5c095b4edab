// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

// FavoriteRepository is the favorite_spaces table plus the relation queries
// the reconciler needs.
type FavoriteRepository struct {
	*Table[models.Favorite]
}

// NewFavoriteRepository returns the favorite repository of engine.
func NewFavoriteRepository(engine *Engine) *FavoriteRepository {
	return &FavoriteRepository{Table: NewTable(engine, schema.FavoriteSpaces, FavoriteCodec)}
}

// Add inserts the (space, user) relation unless it already exists and
// reports whether a row was inserted. The user must have a local row,
// otherwise ErrUserNotFound is returned. A space missing from the cache
// yields ErrSpaceNotCached.
func (r *FavoriteRepository) Add(ctx context.Context, fav models.Favorite) (bool, error) {
	var inserted bool
	err := r.inTx(ctx, func(ctx context.Context) error {
		if err := r.requireUser(ctx, fav.UserID); err != nil {
			return err
		}
		var err error
		inserted, err = r.InsertOrIgnore(ctx, fav)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s: %w", ErrSpaceNotCached, fav.SpaceID, err)
		}
		return err
	})
	return inserted, err
}

// Remove deletes the (space, user) relation and reports whether it existed.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, spaceID string) (bool, error) {
	res, err := r.engine.ExecuteRaw(ctx,
		"DELETE FROM favorite_spaces WHERE user_id = ? AND space_id = ?", userID, spaceID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// Exists reports whether the (space, user) relation is stored.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, spaceID string) (bool, error) {
	rows, err := r.engine.QueryRaw(ctx,
		"SELECT 1 FROM favorite_spaces WHERE user_id = ? AND space_id = ? LIMIT 1", userID, spaceID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return len(rows) > 0, nil
}

// Touch stamps LastViewed of the relation and reports whether it exists.
func (r *FavoriteRepository) Touch(ctx context.Context, userID, spaceID string, at time.Time) (bool, error) {
	res, err := r.engine.ExecuteRaw(ctx,
		"UPDATE favorite_spaces SET last_viewed = ? WHERE user_id = ? AND space_id = ?",
		timeNanos(at), userID, spaceID)
	if err != nil {
		return false, fmt.Errorf("touch favorite: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// ListSpaces joins the favorites of userID with their cached spaces, most
// recently favorited first.
func (r *FavoriteRepository) ListSpaces(ctx context.Context, userID string) ([]models.FavoriteSpace, error) {
	log := r.engine.log(ctx)

	rows, err := r.engine.QueryRaw(ctx, listFavoriteSpaces, userID)
	if err != nil {
		log.Err(err).
			Str("func", "FavoriteRepository.ListSpaces").
			Str("user_id", userID).
			Msg("failed to query favorite spaces")
		return nil, fmt.Errorf("list favorite spaces: %w", err)
	}

	out := make([]models.FavoriteSpace, 0, len(rows))
	for _, row := range rows {
		space, err := decodeSpace(row, log)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "FavoriteRepository.ListSpaces").
				Msg("favorite space skipped: cannot be decoded")
			continue
		}
		favoritedAt, err := timeValue(row["favorited_at"])
		if err != nil {
			log.Warn().Err(fmt.Errorf("%w: favorited_at: %w", ErrCodec, err)).
				Str("func", "FavoriteRepository.ListSpaces").
				Str("space_id", space.ID).
				Msg("favorite timestamp cannot be decoded, using zero time")
		}
		lastViewed, err := timeValue(row["favorite_last_viewed"])
		if err != nil {
			log.Warn().Err(fmt.Errorf("%w: last_viewed: %w", ErrCodec, err)).
				Str("func", "FavoriteRepository.ListSpaces").
				Str("space_id", space.ID).
				Msg("favorite timestamp cannot be decoded, using zero time")
		}

		out = append(out, models.FavoriteSpace{
			Space:       space,
			FavoritedAt: favoritedAt,
			LastViewed:  lastViewed,
		})
	}
	return out, nil
}

func (r *FavoriteRepository) requireUser(ctx context.Context, userID string) error {
	rows, err := r.engine.QueryRaw(ctx, countUserByID, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if n, _ := intValue(rows[0]["n"]); n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// inTx joins the transaction carried by ctx or starts one.
func (r *FavoriteRepository) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.engine.InTx(ctx) {
		return fn(ctx)
	}
	return r.engine.WithTx(ctx, fn)
}
