// Package db implements the SQLite journal of the signals emitted by the
// voting session, so external observers can audit the workflow without
// polling the session state.
package db

import (
	"database/sql"
)

// SQLite represents the SQLite database
type SQLite struct {
	db *sql.DB
}

// NewSQLite returns a new *SQLite database
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{
		db: db,
	}
}

// Migrate creates the tables needed for the database
func (r *SQLite) Migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS signals(
		id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		payload BLOB NOT NULL,
		insertedDatetime DATETIME
	);
	`
	_, err := r.db.Exec(query)
	if err != nil {
		return err
	}

	return nil
}
