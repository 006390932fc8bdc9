package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/verse-scraper/internal/testutil"
	"github.com/dtnitsch/verse-scraper/pkg/db"
	"github.com/dtnitsch/verse-scraper/pkg/session"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

// runApp runs the CLI with args and returns what it wrote, followed by any exit
// message, and the exit code.
func runApp(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Name:           "verse-scraper",
		Commands:       Commands(),
		Writer:         &out,
		ErrWriter:      &out,
		ExitErrHandler: func(*cli.Context, error) {},
	}

	err := app.RunContext(context.Background(), append([]string{"verse-scraper"}, args...))
	if err == nil {
		return out.String(), 0
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		out.WriteString(err.Error())
		return out.String(), exitErr.ExitCode()
	}
	t.Fatalf("unexpected error: %v", err)
	return "", -1
}

// setupStoreFile creates an SQLite verse store on disk so the CLI can open it by DSN.
func setupStoreFile(t *testing.T, chapters ...testutil.Chapter) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verses.db")
	sqlDB, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.SeedVerses(t, sqlDB, chapters...)
	if err := sqlDB.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeConfig(t *testing.T, origin, dsn string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`site:
  origin: %s
  delay: 0s
store:
  driver: sqlite
  dsn: %s
jobs:
  - name: john-text
    mode: flat
    book_slug: john
    book: John
    first_chapter: 3
    last_chapter: 4
`, origin, dsn)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readVerse(t *testing.T, dsn, book, chapter, verse string) *db.VerseRow {
	t.Helper()
	database, err := db.Open(context.Background(), testutil.StoreConfig(dsn))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	row, err := database.Verse(context.Background(), book, chapter, verse)
	if err != nil {
		t.Fatal(err)
	}
	return row
}

func TestRunAction_EndToEnd(t *testing.T) {
	server := newFakeSite(t, map[string]string{"/ka/biblia/john/4": flatChapter4})
	dsn := setupStoreFile(t, testutil.Chapter{Book: "John", Chapter: 4, Verses: 5})
	sessionDir, cacheDir := t.TempDir(), t.TempDir()

	out, code := runApp(t, "run", "--config", writeConfig(t, server.URL, dsn),
		"--session-dir", sessionDir, "--cache-dir", cacheDir, "--quiet")
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "Scraping finished!") {
		t.Errorf("output missing completion message:\n%s", out)
	}

	if got := readVerse(t, dsn, "John", "4", "2").Text; got != "Text two." {
		t.Errorf("John 4:2 text = %q", got)
	}
	if got := readVerse(t, dsn, "John", "4", "4").Text; got != "" {
		t.Errorf("John 4:4 text = %q, want untouched", got)
	}

	if _, err := os.Stat(session.GetSessionsIndexPath(sessionDir)); err != nil {
		t.Errorf("session index not written: %v", err)
	}

	// only the published page is cached; the 404 for chapter 3 is not
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("cache holds %d pages, want 1", len(entries))
	}
}

func TestRunAction_DryRunWritesNothing(t *testing.T) {
	server := newFakeSite(t, map[string]string{"/ka/biblia/john/4": flatChapter4})
	dsn := setupStoreFile(t, testutil.Chapter{Book: "John", Chapter: 4, Verses: 3})

	_, code := runApp(t, "run", "--config", writeConfig(t, server.URL, dsn), "--dry-run", "--quiet")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if got := readVerse(t, dsn, "John", "4", "1").Text; got != "" {
		t.Errorf("dry run wrote %q", got)
	}
}

func TestRunAction_ExitCodes(t *testing.T) {
	dsn := setupStoreFile(t)
	config := writeConfig(t, "http://127.0.0.1:1", dsn)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown job", []string{"run", "--config", config, "--job", "acts"}, 1},
		{"missing config", []string{"run", "--config", filepath.Join(t.TempDir(), "nope.yaml")}, 1},
		{"unsupported driver", []string{"run", "--config", config, "--driver", "mysql"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, code := runApp(t, append(tt.args, "--quiet")...); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRunAction_UnknownJobSchema(t *testing.T) {
	dsn := setupStoreFile(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`store:
  driver: sqlite
  dsn: %s
jobs:
  - name: acts-themes
    mode: tagged
    book_slug: sakmeni
    schema: sasoeba-v0
    first_chapter: 1
    last_chapter: 28
`, dsn)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	out, code := runApp(t, "run", "--config", path, "--quiet")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "sasoeba-v0") {
		t.Errorf("output does not name the bad schema:\n%s", out)
	}
}

func TestJobsAction(t *testing.T) {
	out, code := runApp(t, "jobs")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"john-text", "mark-themes", "luke-theme-links",
		"https://sasoeba.ge/ka/biblia/mtskheturi-g-mtatsmindelis/sakharebai-iovanesi/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJobsAction_LastRun(t *testing.T) {
	server := newFakeSite(t, map[string]string{"/ka/biblia/john/4": flatChapter4})
	dsn := setupStoreFile(t, testutil.Chapter{Book: "John", Chapter: 4, Verses: 3})
	config := writeConfig(t, server.URL, dsn)
	sessionDir := t.TempDir()

	if _, code := runApp(t, "run", "--config", config, "--session-dir", sessionDir, "--quiet"); code != 0 {
		t.Fatalf("run exit code = %d", code)
	}
	index, err := session.LoadIndex(sessionDir)
	if err != nil || len(index.Sessions) != 1 {
		t.Fatalf("LoadIndex() = %+v, %v", index, err)
	}

	out, code := runApp(t, "jobs", "--config", config, "--session-dir", sessionDir)
	if code != 0 {
		t.Fatalf("jobs exit code = %d", code)
	}
	if !strings.Contains(out, index.Sessions[0].SessionID) {
		t.Errorf("jobs output missing last run %s:\n%s", index.Sessions[0].SessionID, out)
	}
}

func TestParseRefAction(t *testing.T) {
	out, code := runApp(t, "parse-ref", "Matthew 5:3-12", "not a reference")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"Matthew", "12", "(no reference)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, code := runApp(t, "parse-ref"); code != 1 {
		t.Errorf("exit code without labels = %d, want 1", code)
	}
}

func TestNormalizeAction(t *testing.T) {
	out, code := runApp(t, "normalize", "3. In the beginning...")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "In the beginning...") {
		t.Errorf("output missing cleaned text:\n%s", out)
	}
}
