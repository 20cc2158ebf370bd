package store

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS registry_owner (
		slot       INTEGER PRIMARY KEY,
		account_id BLOB NOT NULL CHECK (length(account_id) = 32)
	)`,
	`CREATE TABLE IF NOT EXISTS student_names (
		id   INTEGER PRIMARY KEY CHECK (id BETWEEN 0 AND 4294967295),
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS student_levels (
		id    INTEGER PRIMARY KEY CHECK (id BETWEEN 0 AND 4294967295),
		level INTEGER NOT NULL CHECK (level BETWEEN 0 AND 3)
	)`,
}

// NewSQLite builds a store on an embedded SQLite database. Call Migrate
// before first use.
func NewSQLite(db *sql.DB) *SQLStore {
	return newSQLStore(db, dialect{
		name:     "sqlite",
		schema:   sqliteSchema,
		rebind:   rebindNone,
		classify: classifySQLite,
	})
}

func classifySQLite(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	return err
}
