package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only writes into an empty database, so calling it twice is safe
	// even when other packages share the same database.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var locations int
	if err := db.QueryRow("SELECT COUNT(*) FROM locations").Scan(&locations); err != nil {
		t.Fatalf("count locations: %v", err)
	}
	if locations < 1 {
		t.Errorf("expected at least 1 location, got %d", locations)
	}

	var relations int
	if err := db.QueryRow("SELECT COUNT(*) FROM location_article_relations").Scan(&relations); err != nil {
		t.Fatalf("count relations: %v", err)
	}
	if relations < 1 {
		t.Errorf("expected at least 1 relation, got %d", relations)
	}
}
