// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client side of the Spacefy remote API.
//
// [ServerAdapter] decouples the service layer from HTTP: implementations are
// responsible for serialisation, the bearer token header and mapping
// transport-level failures to the sentinel values defined in this package.
// [ConnectivityChecker] answers whether the remote API is reachable at all.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] (e.g. [ErrUnauthorized]
// for 401). Transport failures and 5xx answers additionally match
// [ErrRemoteUnavailable].
package adapter

import (
	"context"

	"github.com/MarcoDecco/spacefy-mobile/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines communication with the Spacefy remote API.
type ServerAdapter interface {
	// SetToken stores the bearer token attached to authenticated requests
	// that are not given an explicit token.
	SetToken(token string)

	// Token returns the stored bearer token, or an empty string.
	Token() string

	// Login authenticates with POST /auth/login. On success the returned
	// token is also stored via SetToken.
	Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error)

	// GetFavorites returns the spaces favorited by userID
	// (GET /users/favorites/{userId}). An empty token means the stored one.
	GetFavorites(ctx context.Context, userID, token string) ([]models.Space, error)

	// ToggleFavorite flips the favorite state of spaceID for userID on the
	// server (POST /users/{userId}/favorite) and returns the resulting state.
	// An empty token means the stored one.
	ToggleFavorite(ctx context.Context, userID, spaceID, token string) (bool, error)

	// ListSpaces returns every listed space (GET /spaces).
	ListSpaces(ctx context.Context) ([]models.Space, error)

	// GetSpace returns one space (GET /spaces/{id}).
	GetSpace(ctx context.Context, id string) (models.Space, error)
}

// ConnectivityChecker reports whether the remote API can be reached.
type ConnectivityChecker interface {
	// IsOnline never fails: any error counts as offline.
	IsOnline(ctx context.Context) bool
}
