// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	// ErrValidation is returned for malformed input, before storage is touched.
	ErrValidation = errors.New("validation error")

	ErrNoActiveUser    = errors.New("no active user")
	ErrSessionNotFound = errors.New("session not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenIsExpired     = errors.New("token is expired")

	// ErrOfflineLoginUnavailable is returned when the remote API cannot be
	// reached and no usable local session exists for the email.
	ErrOfflineLoginUnavailable = errors.New("offline login unavailable")
)
