// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// LoginRequest is the body of POST /auth/login.
type LoginRequest = Credentials

// LoginResponse is the body returned by POST /auth/login. The bearer token may
// come either in Token or in the Authorization response header.
type LoginResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

// RemoteFavorite is one entry of GET /users/favorites/{userId}. The space is
// populated by the server under the spaceId key.
type RemoteFavorite struct {
	SpaceID Space `json:"spaceId"`
}

// ToggleFavoriteRequest is the body of POST /users/{userId}/favorite.
type ToggleFavoriteRequest struct {
	SpaceID string `json:"spaceId"`
}

// ToggleFavoriteResponse is the answer of POST /users/{userId}/favorite.
type ToggleFavoriteResponse struct {
	IsFavorited bool `json:"isFavorited"`
}
