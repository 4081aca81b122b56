// Package testdb opens databases with the entries schema for tests.
package testdb

import (
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // register postgresql driver
	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
)

const (
	sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
  uuid            TEXT NOT NULL,
  log_index       INTEGER NOT NULL,
  log_id          TEXT NOT NULL,
  integrated_time INTEGER NOT NULL,
  body            TEXT NOT NULL,
  fetched_at      TIMESTAMP NOT NULL,
  PRIMARY KEY(uuid)
);
`

	truncateTables = `
DELETE FROM entries;
`
)

// SQLiteDB returns an in-memory SQLite db instance holding an empty entries
// table.
func SQLiteDB() *sqlx.DB {
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		panic(err)
	}

	return db
}

// PostgreSQLDB returns a PostgreSQL db instance for entrydb testing. The
// schema must already have been migrated.
func PostgreSQLDB() *sqlx.DB {
	connStr := "dbname=entrydb_development sslmode=disable"

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		connStr = dbURL
	}

	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		panic(err)
	}

	if _, err := db.Exec(truncateTables); err != nil {
		panic(err)
	}

	return db
}
