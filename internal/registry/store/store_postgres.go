package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS registry_owner (
		slot       SMALLINT PRIMARY KEY,
		account_id BYTEA NOT NULL CHECK (octet_length(account_id) = 32)
	)`,
	`CREATE TABLE IF NOT EXISTS student_names (
		id   BIGINT PRIMARY KEY CHECK (id BETWEEN 0 AND 4294967295),
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS student_levels (
		id    BIGINT PRIMARY KEY CHECK (id BETWEEN 0 AND 4294967295),
		level SMALLINT NOT NULL CHECK (level BETWEEN 0 AND 3)
	)`,
}

// NewPostgres builds a store on a Postgres handle opened with either the
// pgx stdlib driver or lib/pq. Call Migrate before first use.
func NewPostgres(db *sql.DB) *SQLStore {
	return newSQLStore(db, dialect{
		name:     "postgres",
		schema:   postgresSchema,
		rebind:   rebindDollar,
		classify: classifyPostgres,
	})
}

// classifyPostgres marks connection-level failures as ErrUnavailable so the
// service can report them distinctly. Both driver error types are handled
// because the driver is chosen by configuration.
func classifyPostgres(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && isUnavailableSQLState(pgErr.Code) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && isUnavailableSQLState(string(pqErr.Code)) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// isUnavailableSQLState covers connection exceptions (class 08), operator
// intervention such as admin shutdown (class 57) and insufficient resources
// (class 53).
func isUnavailableSQLState(code string) bool {
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", "53", "57":
		return true
	}
	return false
}
