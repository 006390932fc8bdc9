// Package testutil sets up throwaway verse stores for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/dtnitsch/verse-scraper/models"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// VerseTableSchema mirrors the production verse table with text key columns.
const VerseTableSchema = `
CREATE TABLE IF NOT EXISTS "მუხლები" (
    "წიგნი" TEXT NOT NULL,
    "თავი" TEXT NOT NULL,
    "მუხლი" TEXT NOT NULL,
    "ძველი_ტექსტი" TEXT,
    "თემა" TEXT,
    UNIQUE ("წიგნი", "თავი", "მუხლი")
);`

// Chapter declares how many verse rows to seed for one chapter of a book.
type Chapter struct {
	Book    string
	Chapter int
	Verses  int
}

// StoreConfig returns the default store naming pointed at an SQLite DSN.
func StoreConfig(dsn string) models.StoreConfig {
	cfg := models.DefaultConfig().Store
	cfg.Driver = "sqlite"
	cfg.DSN = dsn
	return cfg
}

// OpenVerseDB creates an in-memory SQLite verse table pre-populated with one empty
// row per verse of the given chapters. The database is closed when the test ends.
func OpenVerseDB(t testing.TB, chapters ...Chapter) *sqlx.DB {
	t.Helper()

	sqlDB, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	SeedVerses(t, sqlDB, chapters...)
	return sqlDB
}

// SeedVerses creates the verse table if needed and inserts one empty row per verse.
func SeedVerses(t testing.TB, sqlDB *sqlx.DB, chapters ...Chapter) {
	t.Helper()

	if _, err := sqlDB.Exec(VerseTableSchema); err != nil {
		t.Fatalf("failed to create verse table: %v", err)
	}

	for _, ch := range chapters {
		for v := 1; v <= ch.Verses; v++ {
			_, err := sqlDB.Exec(
				`INSERT INTO "მუხლები" ("წიგნი", "თავი", "მუხლი") VALUES (?, ?, ?)`,
				ch.Book, fmt.Sprint(ch.Chapter), fmt.Sprint(v),
			)
			if err != nil {
				t.Fatalf("failed to seed %s %d:%d: %v", ch.Book, ch.Chapter, v, err)
			}
		}
	}
}
