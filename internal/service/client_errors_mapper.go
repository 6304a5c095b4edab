// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"strings"

	"github.com/MarcoDecco/spacefy-mobile/internal/adapter"
	"github.com/MarcoDecco/spacefy-mobile/internal/app"
)

// mapAdapterError translates the adapter's transport error into a service business error
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(extractBody(err))

	switch {
	case errors.Is(err, adapter.ErrBadRequest):
		if strings.Contains(msg, app.MsgMissingFields) {
			return ErrValidation
		}
		return errors.Join(ErrValidation, err)

	case errors.Is(err, adapter.ErrUnauthorized):
		switch {
		case strings.Contains(msg, app.MsgTokenIsExpired):
			return ErrTokenIsExpired
		case strings.Contains(msg, app.MsgTokenIsInvalid):
			return ErrTokenIsExpired
		}
		return ErrInvalidCredentials

	case errors.Is(err, adapter.ErrNotFound):
		if strings.Contains(msg, app.MsgUserNotFound) {
			return ErrInvalidCredentials
		}
	}

	return err
}

// extractBody extracts the body from a message of the form "bad request: <body>"
func extractBody(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		return msg[idx+2:]
	}
	return msg
}

// isRemoteUnavailable reports whether err means the remote API gave no
// usable answer.
func isRemoteUnavailable(err error) bool {
	return errors.Is(err, adapter.ErrRemoteUnavailable)
}
