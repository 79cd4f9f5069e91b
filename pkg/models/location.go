// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"math"
	"time"
)

// Location is a geocoded place. Lat and Lon stay nil until the ingestion
// job has geocoded the place; such rows exist in storage but are never drawn.
type Location struct {
	PlaceID          string   `json:"place_id"`
	FormattedAddress *string  `json:"formatted_address"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	Types            []string `json:"types"`
}

// LocationStat is the aggregated read view of a location: how often it was
// mentioned inside the recency window (Count), overall (RawCount), and the
// publish date of the newest article that mentions it.
type LocationStat struct {
	PlaceID          string     `json:"place_id"`
	FormattedAddress *string    `json:"formatted_address"`
	Lat              *float64   `json:"lat"`
	Lon              *float64   `json:"lon"`
	Types            []string   `json:"types"`
	Count            *int64     `json:"count"`
	RawCount         *int64     `json:"raw_count"`
	PubDate          *time.Time `json:"pub_date"`
}

// HasCoordinates reports whether both coordinates are present and finite.
func (s *LocationStat) HasCoordinates() bool {
	if s.Lat == nil || s.Lon == nil {
		return false
	}
	return !math.IsNaN(*s.Lat) && !math.IsNaN(*s.Lon) &&
		!math.IsInf(*s.Lat, 0) && !math.IsInf(*s.Lon, 0)
}

// RecentLocationStat is a LocationStat from the recent-window query. It also
// carries the curated display name, if any, and the mention text most
// articles used for the place.
type RecentLocationStat struct {
	LocationStat
	ManualName          *string `json:"manual_name"`
	ArticleLocationName *string `json:"article_location_name"`
}

// RecentLocation is one entry of the cold-start summary shown before the
// user has picked a place.
type RecentLocation struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
	Count   int64  `json:"count"`
}
