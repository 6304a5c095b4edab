// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the offline-first business logic of the Spacefy
// client on top of the local store and the remote API adapter.
//
// Writes and authentication surface their errors. Reads and background
// refreshes degrade to the local cache: remote failures are logged and the
// locally stored state is returned instead.
package service

import (
	"context"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/store"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

// SessionService manages the locally persisted session: at most one user
// row is logged in at a time.
type SessionService interface {
	// SaveSession sanitizes id, email and token, logs every other user out
	// and upserts this user as logged in with LastLogin set to now, all in
	// one transaction. Returns ErrValidation if any value is empty after
	// trimming.
	SaveSession(ctx context.Context, id, email, token string) (models.User, error)

	// GetCurrentUser returns the user with the given email, or the logged-in
	// user when email is empty. A session inactive for longer than the
	// configured window is logged out and reported as nil.
	GetCurrentUser(ctx context.Context, email string) (*models.User, error)

	// GetUserSession returns the row of id regardless of its login state, or
	// nil when there is none.
	GetUserSession(ctx context.Context, id string) (*models.User, error)

	// Logout marks id as logged out and refreshes LastLogin. The row and its
	// token are kept so that a later offline login can succeed. Returns
	// ErrSessionNotFound if id has no row.
	Logout(ctx context.Context, id string) error

	// ClearSession deletes the row of id and, by cascade, its favorites.
	ClearSession(ctx context.Context, id string) error

	// IsLoggedIn reports whether id has a logged-in, non-expired session.
	IsLoggedIn(ctx context.Context, id string) (bool, error)
}

// AuthService authenticates against the remote API with an offline fallback.
type AuthService interface {
	// Login authenticates online and saves the session. When the remote API
	// is unreachable it falls back to the preserved token of a non-expired
	// local row with the same email.
	Login(ctx context.Context, email, password string) (models.User, error)

	// Logout logs the current user out locally and forgets the adapter token.
	// Returns ErrNoActiveUser if nobody is logged in.
	Logout(ctx context.Context) error

	// RestoreSession puts the token of the current session back on the
	// adapter. It returns nil, nil when there is no current session.
	RestoreSession(ctx context.Context) (*models.User, error)
}

// FavoriteService reconciles the favorite relation between the local cache
// and the remote API.
type FavoriteService interface {
	// ListFavorites refreshes the favorites of the effective user from the
	// remote API when possible and always returns the local state. The
	// effective user is the current session, or fallback when nobody is
	// logged in.
	ListFavorites(ctx context.Context, fallback models.Identity) ([]models.FavoriteSpace, error)

	// ToggleFavorite flips the favorite state of space for the effective user
	// and returns the new state. The remote answer wins when the remote API is
	// reachable; otherwise the local state is inverted.
	ToggleFavorite(ctx context.Context, space models.Space, fallback models.Identity) (bool, error)

	// IsFavorite reports whether userID has favorited spaceID locally.
	IsFavorite(ctx context.Context, userID, spaceID string) (bool, error)

	// MarkViewed stamps LastViewed of the (space, user) relation.
	MarkViewed(ctx context.Context, userID, spaceID string) error
}

// SpaceService maintains the offline cache of space listings.
type SpaceService interface {
	// RefreshSpaces upserts every space of the remote listing into the cache.
	// Records are written independently; failed records are reported in the
	// result.
	RefreshSpaces(ctx context.Context) (store.BatchResult, error)

	// ListSpaces returns the cached spaces, filtered by filter when it is not
	// nil.
	ListSpaces(ctx context.Context, filter *store.Predicate) ([]models.Space, error)

	// GetSpace returns the cached space, fetching and caching it from the
	// remote API when it is not cached yet.
	GetSpace(ctx context.Context, id string) (models.Space, error)
}

// CacheRefreshJob periodically refreshes the space cache and the favorites of
// the current user in the background.
type CacheRefreshJob interface {
	// Start launches the background goroutine. It refreshes every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any previously
	// running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Run starts the job with the configured interval.
	Run(ctx context.Context)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}
