//go:build integration

package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/dtnitsch/verse-scraper/internal/testutil"
	"github.com/dtnitsch/verse-scraper/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway Postgres and returns a store pointed at it.
func setupPostgres(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env:          map[string]string{"POSTGRES_HOST_AUTH_METHOD": "trust"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}

	cfg := models.DefaultConfig().Store
	cfg.DSN = fmt.Sprintf("postgres://postgres@%s:%s/postgres?sslmode=disable", host, port.Port())

	database, err := Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := database.Exec(testutil.VerseTableSchema); err != nil {
		t.Fatal(err)
	}
	for v := 1; v <= 25; v++ {
		_, err := database.Exec(`INSERT INTO "მუხლები" ("წიგნი", "თავი", "მუხლი") VALUES ($1, $2, $3)`,
			"ლუკას სახარება", "2", fmt.Sprint(v))
		if err != nil {
			t.Fatal(err)
		}
	}
	// non-numeric verse labels must not break numeric range matching
	for _, row := range [][2]string{{"ლუკას სახარება", "2a"}, {"მათეს სახარება", "პროლოგი"}} {
		_, err := database.Exec(`INSERT INTO "მუხლები" ("წიგნი", "თავი", "მუხლი") VALUES ($1, $2, $3)`,
			row[0], "2", row[1])
		if err != nil {
			t.Fatal(err)
		}
	}
	return database
}

func TestPostgres_ApplyRange(t *testing.T) {
	database := setupPostgres(t)
	ctx := context.Background()
	ref := models.Reference{Book: "ლუკას სახარება", Chapter: "2", From: "1", To: "20"}

	rows, err := database.Apply(ctx, []Update{
		{Field: FieldTheme, Value: "იესო ქრისტეს შობა", Where: VerseRange(ref)},
		{Field: FieldText, Value: "და იყო მათ დღეთა შინა.", Where: VerseAt(ref.Book, "2", "1")},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if rows != 21 {
		t.Errorf("Apply() rows = %d, want 21", rows)
	}

	row, err := database.Verse(ctx, ref.Book, "2", "1")
	if err != nil {
		t.Fatal(err)
	}
	if row.Theme != "იესო ქრისტეს შობა" || row.Text != "და იყო მათ დღეთა შინა." {
		t.Errorf("verse 1 = %+v", row)
	}

	row, err = database.Verse(ctx, ref.Book, "2", "21")
	if err != nil {
		t.Fatal(err)
	}
	if row.Theme != "" {
		t.Errorf("verse 21 theme = %q, want untouched", row.Theme)
	}

	n, err := database.Match(ctx, []Update{{Field: FieldTheme, Where: VerseRange(ref)}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 20 {
		t.Errorf("Match() = %d, want 20", n)
	}
}
