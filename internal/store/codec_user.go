// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

// UserCodec maps models.User to the users table.
var UserCodec = Codec[models.User]{Encode: encodeUser, Decode: decodeUser}

func encodeUser(u models.User) Row {
	return Row{
		"id":           u.ID,
		"email":        u.Email,
		"token":        u.Token,
		"last_login":   timeNanos(u.LastLogin),
		"is_logged_in": boolInt(u.IsLoggedIn),
	}
}

func decodeUser(row Row, _ *logger.Logger) (models.User, error) {
	lastLogin, err := timeValue(row["last_login"])
	if err != nil {
		return models.User{}, fmt.Errorf("users.last_login: %w", err)
	}
	loggedIn, err := boolValue(row["is_logged_in"])
	if err != nil {
		return models.User{}, fmt.Errorf("users.is_logged_in: %w", err)
	}

	return models.User{
		ID:         textValue(row["id"]),
		Email:      textValue(row["email"]),
		Token:      textValue(row["token"]),
		LastLogin:  lastLogin,
		IsLoggedIn: loggedIn,
	}, nil
}
