// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"strings"

	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/models"
	"github.com/goccy/go-json"
)

// SpaceCodec maps models.Space to the spaces table.
var SpaceCodec = Codec[models.Space]{Encode: encodeSpace, Decode: decodeSpace}

func encodeSpace(s models.Space) Row {
	return Row{
		"id":             s.ID,
		"name":           s.Name,
		"image_urls":     encodeStrings(s.ImageURLs),
		"location":       encodeLocation(s.Location),
		"price_per_hour": s.PricePerHour,
		"description":    s.Description,
		"amenities":      encodeStrings(uniqueStrings(s.Amenities)),
		"type":           s.Type,
		"max_people":     int64(s.MaxPeople),
		"week_days":      encodeStrings(uniqueStrings(s.WeekDays)),
		"rules":          encodeStrings(s.Rules),
		"last_updated":   timeNanos(s.LastUpdated),
	}
}

func decodeSpace(row Row, log *logger.Logger) (models.Space, error) {
	price, err := floatValue(row["price_per_hour"])
	if err != nil {
		return models.Space{}, fmt.Errorf("spaces.price_per_hour: %w", err)
	}
	maxPeople, err := intValue(row["max_people"])
	if err != nil {
		return models.Space{}, fmt.Errorf("spaces.max_people: %w", err)
	}
	lastUpdated, err := timeValue(row["last_updated"])
	if err != nil {
		return models.Space{}, fmt.Errorf("spaces.last_updated: %w", err)
	}

	return models.Space{
		ID:           textValue(row["id"]),
		Name:         textValue(row["name"]),
		ImageURLs:    decodeStrings(row["image_urls"], "spaces.image_urls", log),
		Location:     decodeLocation(row["location"], log),
		PricePerHour: price,
		Description:  textValue(row["description"]),
		Amenities:    uniqueStrings(decodeStrings(row["amenities"], "spaces.amenities", log)),
		Type:         textValue(row["type"]),
		MaxPeople:    int(maxPeople),
		WeekDays:     uniqueStrings(decodeStrings(row["week_days"], "spaces.week_days", log)),
		Rules:        decodeStrings(row["rules"], "spaces.rules", log),
		LastUpdated:  lastUpdated,
	}, nil
}

// encodeLocation stores a structured location as a JSON object and a plain
// one as its address text.
func encodeLocation(l models.Location) string {
	if !l.IsStructured() {
		return l.Address
	}
	b, err := json.Marshal(l)
	if err != nil {
		return l.FormattedAddress
	}
	return string(b)
}

// decodeLocation reads a JSON object as a structured location; anything else,
// including a malformed object, is kept verbatim as the address.
func decodeLocation(v any, log *logger.Logger) models.Location {
	raw := textValue(v)
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return models.Location{Address: raw}
	}

	var l models.Location
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		log.Warn().
			Err(fmt.Errorf("%w: %w", ErrCodec, err)).
			Str("func", "store.decodeLocation").
			Msg("malformed location object kept as address")
		return models.Location{Address: raw}
	}
	return l
}
