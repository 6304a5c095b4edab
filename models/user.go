// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// User is the locally persisted session record of an authenticated account.
//
// At most one User is expected to have IsLoggedIn set at any time. A logged-out
// User keeps its Token so that a later offline login can still succeed.
type User struct {
	// ID is the opaque identity assigned by the remote authority.
	ID string `json:"id"`

	// Email is the sanitized (trimmed, lower-cased) login e-mail.
	Email string `json:"email"`

	// Token is the opaque bearer credential returned on the last successful
	// authentication. It is never cleared by a logout.
	Token string `json:"-"`

	// LastLogin is refreshed on login and logout and drives the inactivity
	// expiry of the session.
	LastLogin time.Time `json:"lastLogin"`

	// IsLoggedIn marks the current session.
	IsLoggedIn bool `json:"isLoggedIn"`
}

// Credentials carries the values entered on the login screen.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is a user id / bearer token pair supplied by a caller that already
// knows who the user is (for example a screen that received them from
// navigation parameters). It is used when no session row is logged in.
type Identity struct {
	UserID string
	Token  string
}

// IsZero reports whether neither a user id nor a token is set.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.Token == ""
}
