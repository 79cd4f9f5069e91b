package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type seedPlace struct {
	placeID string
	address string
	lat     float64
	lon     float64
	types   []string
	mention string
}

var seedPlaces = []seedPlace{
	{"ChIJOwg_06VPwokRYv534QaPC8g", "New York, NY, USA", 40.7127753, -74.0059728, []string{"locality", "political"}, "New York City"},
	{"ChIJvbGg56pZwokRp_E3JbivnLQ", "Flatbush, Brooklyn, NY, USA", 40.6409209, -73.9624297, []string{"neighborhood", "political"}, "Flatbush"},
	{"ChIJK1kKR2lDwokRBXtcbIvRCUE", "Astoria, Queens, NY, USA", 40.7643574, -73.9234619, []string{"neighborhood", "political"}, "Astoria"},
}

// Seed populates an empty database with a few places and articles so the
// map has something to draw in development. It is a no-op once any
// location exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM locations").Scan(&count); err != nil {
		return fmt.Errorf("seed check locations: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i, p := range seedPlaces {
		if _, err := tx.Exec(`
			INSERT INTO locations (place_id, formatted_address, lat, lon, types)
			VALUES ($1, $2, $3, $4, $5)
		`, p.placeID, p.address, p.lat, p.lon, pq.StringArray(p.types)); err != nil {
			return fmt.Errorf("seed insert location: %w", err)
		}

		// Place i gets i+1 articles, one day apart, so dots differ in size
		// and color.
		for j := 0; j <= i; j++ {
			articleID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("seed/%s/%d", p.placeID, j))).String()
			pubDate := now.AddDate(0, 0, -(i*3 + j))
			if _, err := tx.Exec(`
				INSERT INTO articles (uuid3, headline, author, link, pub_date, feed_name)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, articleID,
				fmt.Sprintf("Local news from %s #%d", p.mention, j+1),
				"Newsroom",
				fmt.Sprintf("https://example.com/news/%s/%d", p.placeID, j),
				pubDate,
				"Example Local",
			); err != nil {
				return fmt.Errorf("seed insert article: %w", err)
			}

			if _, err := tx.Exec(`
				INSERT INTO location_article_relations (id, article_uuid, place_id, location_name)
				VALUES ($1, $2, $3, $4)
			`, uuid.NewString(), articleID, p.placeID, p.mention); err != nil {
				return fmt.Errorf("seed insert relation: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample locations", "locations", len(seedPlaces))
	return nil
}
