// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains the error message strings the Spacefy remote API
// writes into its response bodies.
//
// The client matches them to tell apart failures that share an HTTP status
// (e.g. a wrong password and an expired token are both 401).
package app

const (
	// MsgInvalidCredentials is returned by POST /auth/login when the
	// email/password combination does not match an account.
	MsgInvalidCredentials = "invalid credentials"

	// MsgUserNotFound is returned by POST /auth/login for an unknown email.
	MsgUserNotFound = "user not found"

	// MsgTokenIsExpired is returned when the bearer token has expired.
	MsgTokenIsExpired = "token expired"

	// MsgTokenIsInvalid is returned when the bearer token cannot be verified.
	MsgTokenIsInvalid = "invalid token"

	// MsgMissingFields is returned when required body fields are missing.
	MsgMissingFields = "missing required fields"
)
