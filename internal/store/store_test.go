// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"newsmap/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "newsmap")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "newsmap")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// fixture is a place with a set of articles inserted for one test.
type fixture struct {
	placeID  string
	articles []string
}

// insertPlace creates a geocoded location with one article per pubDate and
// registers cleanup of everything it wrote.
func insertPlace(t *testing.T, db *sql.DB, mention string, pubDates ...time.Time) fixture {
	t.Helper()

	f := fixture{placeID: "test-" + uuid.NewString()}
	_, err := db.Exec(`
		INSERT INTO locations (place_id, formatted_address, lat, lon, types)
		VALUES ($1, $2, 40.7128, -74.006, $3)
	`, f.placeID, "Test Place, NY, USA", pq.StringArray{"neighborhood", "political"})
	if err != nil {
		t.Fatalf("insert location: %v", err)
	}

	for i, pub := range pubDates {
		articleID := uuid.NewString()
		_, err := db.Exec(`
			INSERT INTO articles (uuid3, headline, link, pub_date, feed_name)
			VALUES ($1, $2, $3, $4, 'Test Feed')
		`, articleID, "Headline "+articleID[:8], "https://example.com/"+articleID, pub)
		if err != nil {
			t.Fatalf("insert article %d: %v", i, err)
		}
		_, err = db.Exec(`
			INSERT INTO location_article_relations (id, article_uuid, place_id, location_name, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), articleID, f.placeID, mention, pub)
		if err != nil {
			t.Fatalf("insert relation %d: %v", i, err)
		}
		f.articles = append(f.articles, articleID)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM location_article_relations WHERE place_id = $1", f.placeID)
		db.Exec("DELETE FROM location_names WHERE place_id = $1", f.placeID)
		for _, id := range f.articles {
			db.Exec("DELETE FROM articles WHERE uuid3 = $1", id)
		}
		db.Exec("DELETE FROM locations WHERE place_id = $1", f.placeID)
	})
	return f
}
