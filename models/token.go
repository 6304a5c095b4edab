// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// AuthResult is the outcome of a successful remote authentication.
type AuthResult struct {
	// UserID is taken from the response body or, when absent, from the "sub"
	// claim of the bearer token.
	UserID string

	// Email echoes the authenticated account's e-mail.
	Email string

	// Token is the bearer credential to attach to later requests.
	Token string
}
