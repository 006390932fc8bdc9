package db

import (
	"context"
	"fmt"

	"github.com/dtnitsch/verse-scraper/models"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB is the verse store. It only ever updates rows that already exist.
type DB struct {
	*sqlx.DB
	table   string
	columns models.Columns
}

// openDB opens and pings a database for the given driver.
func openDB(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	sqlDB, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// a single connection keeps :memory: databases shared and writes serialized
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close() // Close error less important than ping error
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return sqlDB, nil
}

// Open connects to the verse store described by cfg.
func Open(ctx context.Context, cfg models.StoreConfig) (*DB, error) {
	sqlDB, err := openDB(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return New(sqlDB, cfg), nil
}

// New wraps an already open connection.
func New(sqlDB *sqlx.DB, cfg models.StoreConfig) *DB {
	return &DB{
		DB:      sqlDB,
		table:   cfg.Table,
		columns: cfg.Columns,
	}
}

// Table returns the verse table name.
func (db *DB) Table() string {
	return db.table
}
