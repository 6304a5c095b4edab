// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MarcoDecco/spacefy-mobile/internal/schema"
	"github.com/MarcoDecco/spacefy-mobile/models"
)

// UserRepository is the users table plus the session bookkeeping queries.
type UserRepository struct {
	*Table[models.User]
}

// NewUserRepository returns the user repository of engine.
func NewUserRepository(engine *Engine) *UserRepository {
	return &UserRepository{Table: NewTable(engine, schema.Users, UserCodec)}
}

// LogoutOthers clears the logged-in flag of every user except keepID and
// returns the number of rows changed.
func (r *UserRepository) LogoutOthers(ctx context.Context, keepID string) (int64, error) {
	res, err := r.engine.ExecuteRaw(ctx, logoutOtherUsers, keepID)
	if err != nil {
		r.engine.log(ctx).Err(err).
			Str("func", "UserRepository.LogoutOthers").
			Str("user_id", keepID).
			Msg("failed to log out other users")
		return 0, fmt.Errorf("logout other users: %w", err)
	}
	return rowsAffected(res)
}
