// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Favorite is the relation between a user and a space they marked.
// There is exactly one Favorite per (SpaceID, UserID) pair.
type Favorite struct {
	ID         int64
	SpaceID    string
	UserID     string
	CreatedAt  time.Time
	LastViewed time.Time
}

// FavoriteSpace is a favorited Space together with the relation timestamps.
type FavoriteSpace struct {
	Space
	FavoritedAt time.Time `json:"favoritedAt"`
	LastViewed  time.Time `json:"lastViewed"`
}
