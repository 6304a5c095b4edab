// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import "errors"

// ErrRemoteUnavailable marks a request that did not get a usable answer:
// the transport failed, or the server answered with a 5xx status. Callers
// fall back to local data on this error.
var ErrRemoteUnavailable = errors.New("remote api unavailable")

// Status errors mapped from HTTP responses by mapHTTPError.
var (
	// ErrBadRequest is mapped from 400.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized is mapped from 401.
	ErrUnauthorized = errors.New("client unauthorized")
	// ErrForbidden is mapped from 403.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is mapped from 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict is mapped from 409.
	ErrConflict = errors.New("conflict")
	// ErrInternalServerError is mapped from 500.
	ErrInternalServerError = errors.New("internal server error")
	// ErrBadGateway is mapped from 502.
	ErrBadGateway = errors.New("bad gateway")
)

// ErrMissingToken is returned when the login answer carries no token.
var ErrMissingToken = errors.New("no token in login response")
