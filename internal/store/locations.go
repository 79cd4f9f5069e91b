// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides read access to the tables and functions the
// ingestion job maintains. Nothing in this package writes.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"newsmap/pkg/models"
)

// statsPageSize is the number of rows fetched per round trip when reading
// the full stats view. Reading stops at the first short page.
const statsPageSize = 1000

// LocationStore reads aggregated location statistics.
type LocationStore struct {
	db       *sql.DB
	pageSize int
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db, pageSize: statsPageSize}
}

// Stats returns every row of get_location_stats, counting mentions inside
// the last recentDays days. Rows come back ordered by place id.
func (s *LocationStore) Stats(ctx context.Context, recentDays int) ([]models.LocationStat, error) {
	stats := make([]models.LocationStat, 0)
	for offset := 0; ; offset += s.pageSize {
		rows, err := s.db.QueryContext(ctx, `
			SELECT place_id, formatted_address, lat, lon, types, count, raw_count, pub_date
			FROM get_location_stats($1)
			LIMIT $2 OFFSET $3
		`, recentDays, s.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("query location stats: %w", err)
		}

		n := 0
		for rows.Next() {
			var st models.LocationStat
			var types pq.StringArray
			if err := rows.Scan(
				&st.PlaceID, &st.FormattedAddress, &st.Lat, &st.Lon, &types,
				&st.Count, &st.RawCount, &st.PubDate,
			); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan location stat: %w", err)
			}
			st.Types = []string(types)
			stats = append(stats, st)
			n++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate location stats: %w", err)
		}

		if n < s.pageSize {
			return stats, nil
		}
	}
}

// Recent returns the places mentioned inside the last recentDays days,
// most mentioned first, with their curated and most common mention names.
func (s *LocationStore) Recent(ctx context.Context, recentDays int) ([]models.RecentLocationStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT place_id, formatted_address, lat, lon, types, count, raw_count, pub_date,
		       manual_name, article_location_name
		FROM get_location_stats_recent($1)
	`, recentDays)
	if err != nil {
		return nil, fmt.Errorf("query recent locations: %w", err)
	}
	defer rows.Close()

	stats := make([]models.RecentLocationStat, 0)
	for rows.Next() {
		var st models.RecentLocationStat
		var types pq.StringArray
		if err := rows.Scan(
			&st.PlaceID, &st.FormattedAddress, &st.Lat, &st.Lon, &types,
			&st.Count, &st.RawCount, &st.PubDate,
			&st.ManualName, &st.ArticleLocationName,
		); err != nil {
			return nil, fmt.Errorf("scan recent location: %w", err)
		}
		st.Types = []string(types)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent locations: %w", err)
	}
	return stats, nil
}
