// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	listFavoriteSpaces = `
		SELECT
			s.id,
			s.name,
			s.image_urls,
			s.location,
			s.price_per_hour,
			s.description,
			s.amenities,
			s.type,
			s.max_people,
			s.week_days,
			s.rules,
			s.last_updated,
			f.created_at AS favorited_at,
			f.last_viewed AS favorite_last_viewed
		FROM favorite_spaces f
		JOIN spaces s ON s.id = f.space_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.id DESC;`

	countUserByID = `SELECT COUNT(*) AS n FROM users WHERE id = ?;`

	logoutOtherUsers = `UPDATE users SET is_logged_in = 0 WHERE id <> ? AND is_logged_in <> 0;`
)
