// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
)

// Space is a rentable listing cached locally for offline browsing.
//
// ImageURLs, Amenities, WeekDays and Rules are always non-nil once a Space has
// passed through the local store; an absent column decodes to an empty slice.
type Space struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ImageURLs    []string  `json:"imageUrls"`
	Location     Location  `json:"location"`
	PricePerHour float64   `json:"pricePerHour"`
	Description  string    `json:"description"`
	Amenities    []string  `json:"amenities"`
	Type         string    `json:"type"`
	MaxPeople    int       `json:"maxPeople"`
	WeekDays     []string  `json:"weekDays"`
	Rules        []string  `json:"rules"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Coordinates is a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is either a plain address string or a structured geocoded place.
//
// When any of Coordinates, FormattedAddress or PlaceID is set the location is
// structured and Address is ignored by the JSON encoding.
type Location struct {
	Address          string       `json:"-"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	FormattedAddress string       `json:"formattedAddress,omitempty"`
	PlaceID          string       `json:"placeId,omitempty"`
}

// IsStructured reports whether the location carries geocoded fields.
func (l Location) IsStructured() bool {
	return l.Coordinates != nil || l.FormattedAddress != "" || l.PlaceID != ""
}

// String returns the best human readable form of the location.
func (l Location) String() string {
	if l.IsStructured() {
		return l.FormattedAddress
	}
	return l.Address
}

type structuredLocation struct {
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	FormattedAddress string       `json:"formattedAddress,omitempty"`
	PlaceID          string       `json:"placeId,omitempty"`
}

// MarshalJSON encodes a plain location as a JSON string and a structured one
// as an object.
func (l Location) MarshalJSON() ([]byte, error) {
	if !l.IsStructured() {
		return json.Marshal(l.Address)
	}
	return json.Marshal(structuredLocation{
		Coordinates:      l.Coordinates,
		FormattedAddress: l.FormattedAddress,
		PlaceID:          l.PlaceID,
	})
}

// UnmarshalJSON accepts both the string and the object form.
func (l *Location) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = Location{}
		return nil
	}

	if trimmed[0] == '"' {
		var address string
		if err := json.Unmarshal(trimmed, &address); err != nil {
			return err
		}
		*l = Location{Address: address}
		return nil
	}

	var s structuredLocation
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*l = Location{
		Coordinates:      s.Coordinates,
		FormattedAddress: s.FormattedAddress,
		PlaceID:          s.PlaceID,
	}
	return nil
}
