package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dtnitsch/verse-scraper/models"
	"github.com/lib/pq"
)

// Field is a mutable verse column.
type Field string

const (
	FieldText  Field = "text"
	FieldTheme Field = "theme"
)

// Selector picks verse rows by book and chapter, and either a single verse
// (To empty) or an inclusive verse range.
type Selector struct {
	Book    string
	Chapter string
	From    string
	To      string
}

// VerseAt selects exactly one verse.
func VerseAt(book, chapter, verse string) Selector {
	return Selector{Book: book, Chapter: chapter, From: verse}
}

// VerseRange selects the verses covered by a parsed reference.
func VerseRange(ref models.Reference) Selector {
	return Selector{Book: ref.Book, Chapter: ref.Chapter, From: ref.From, To: ref.To}
}

func (s Selector) String() string {
	if s.To != "" {
		return fmt.Sprintf("%s %s:%s-%s", s.Book, s.Chapter, s.From, s.To)
	}
	return fmt.Sprintf("%s %s:%s", s.Book, s.Chapter, s.From)
}

// Update sets one field on every row matched by Where.
type Update struct {
	Field Field
	Value string
	Where Selector
}

// Apply runs all updates in one transaction and commits. Matching zero rows is not
// an error. The transaction is rolled back if any update fails.
func (db *DB) Apply(ctx context.Context, updates []Update) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	var total int64
	for _, u := range updates {
		query, args, err := db.updateStatement(u)
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to update %s: %w", u.Where, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return total, nil
}

// Match counts the rows the updates would touch without writing anything.
func (db *DB) Match(ctx context.Context, updates []Update) (int64, error) {
	var total int64
	for _, u := range updates {
		where, args, err := db.predicate(u.Where)
		if err != nil {
			return 0, err
		}
		query := db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", pq.QuoteIdentifier(db.table), where))
		var n int64
		if err := db.GetContext(ctx, &n, query, args...); err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", u.Where, err)
		}
		total += n
	}
	return total, nil
}

// VerseRow is the mutable part of one verse record.
type VerseRow struct {
	Text  string `db:"text"`
	Theme string `db:"theme"`
}

// Verse reads one verse record. It returns sql.ErrNoRows when the row does not exist.
func (db *DB) Verse(ctx context.Context, book, chapter, verse string) (*VerseRow, error) {
	where, args, err := db.predicate(VerseAt(book, chapter, verse))
	if err != nil {
		return nil, err
	}
	query := db.Rebind(fmt.Sprintf(
		"SELECT COALESCE(%s, '') AS text, COALESCE(%s, '') AS theme FROM %s WHERE %s",
		pq.QuoteIdentifier(db.columns.Text),
		pq.QuoteIdentifier(db.columns.Theme),
		pq.QuoteIdentifier(db.table),
		where,
	))

	var row VerseRow
	if err := db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read verse %s %s:%s: %w", book, chapter, verse, err)
	}
	return &row, nil
}

func (db *DB) updateStatement(u Update) (string, []any, error) {
	column, err := db.column(u.Field)
	if err != nil {
		return "", nil, err
	}
	where, args, err := db.predicate(u.Where)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s",
		pq.QuoteIdentifier(db.table), pq.QuoteIdentifier(column), where)
	return db.Rebind(query), append([]any{u.Value}, args...), nil
}

func (db *DB) column(f Field) (string, error) {
	switch f {
	case FieldText:
		return db.columns.Text, nil
	case FieldTheme:
		return db.columns.Theme, nil
	default:
		return "", fmt.Errorf("unknown verse field %q", f)
	}
}

// predicate builds the WHERE clause for s with ? placeholders.
// Verse ranges compare numerically since verse numbers may be stored as text.
func (db *DB) predicate(s Selector) (string, []any, error) {
	clauses := []string{
		pq.QuoteIdentifier(db.columns.Book) + " = ?",
		pq.QuoteIdentifier(db.columns.Chapter) + " = ?",
	}
	args := []any{s.Book, s.Chapter}

	verse := pq.QuoteIdentifier(db.columns.Verse)
	if s.To == "" {
		clauses = append(clauses, verse+" = ?")
		args = append(args, s.From)
		return strings.Join(clauses, " AND "), args, nil
	}

	from, err := strconv.Atoi(s.From)
	if err != nil {
		return "", nil, fmt.Errorf("invalid range start %q: %w", s.From, err)
	}
	to, err := strconv.Atoi(s.To)
	if err != nil {
		return "", nil, fmt.Errorf("invalid range end %q: %w", s.To, err)
	}
	clauses = append(clauses, db.verseNumber(verse)+" BETWEEN ? AND ?")
	args = append(args, from, to)
	return strings.Join(clauses, " AND "), args, nil
}

// verseNumber casts the verse column to an integer, or NULL when it is not plain
// digits. The CASE keeps Postgres from ever casting a value like "12a".
func (db *DB) verseNumber(col string) string {
	if db.DriverName() == DriverPostgres {
		return fmt.Sprintf("CASE WHEN CAST(%[1]s AS TEXT) ~ '^[0-9]+$' THEN CAST(CAST(%[1]s AS TEXT) AS INTEGER) END", col)
	}
	return fmt.Sprintf("CASE WHEN %[1]s <> '' AND %[1]s NOT GLOB '*[^0-9]*' THEN CAST(%[1]s AS INTEGER) END", col)
}
