// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

// FavoriteCodec maps models.Favorite to the favorite_spaces table. A zero ID
// is left out of the row so that SQLite assigns one.
var FavoriteCodec = Codec[models.Favorite]{Encode: encodeFavorite, Decode: decodeFavorite}

func encodeFavorite(f models.Favorite) Row {
	row := Row{
		"space_id":    f.SpaceID,
		"user_id":     f.UserID,
		"created_at":  timeNanos(f.CreatedAt),
		"last_viewed": timeNanos(f.LastViewed),
	}
	if f.ID != 0 {
		row["id"] = f.ID
	}
	return row
}

func decodeFavorite(row Row, _ *logger.Logger) (models.Favorite, error) {
	id, err := intValue(row["id"])
	if err != nil {
		return models.Favorite{}, fmt.Errorf("favorite_spaces.id: %w", err)
	}
	createdAt, err := timeValue(row["created_at"])
	if err != nil {
		return models.Favorite{}, fmt.Errorf("favorite_spaces.created_at: %w", err)
	}
	lastViewed, err := timeValue(row["last_viewed"])
	if err != nil {
		return models.Favorite{}, fmt.Errorf("favorite_spaces.last_viewed: %w", err)
	}

	return models.Favorite{
		ID:         id,
		SpaceID:    textValue(row["space_id"]),
		UserID:     textValue(row["user_id"]),
		CreatedAt:  createdAt,
		LastViewed: lastViewed,
	}, nil
}
