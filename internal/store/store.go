// Package store implements the local business datastore on SQLite.
//
// Each entity gets its own accessor file (clients.go, timesheets.go,
// ...); all timestamps are persisted as RFC 3339 strings.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is the persisted timestamp format.
const timeLayout = time.RFC3339Nano

// Store provides access to the SQLite datastore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the datastore at path. Use
// ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The modernc driver serializes access per connection; a single
	// connection avoids table-lock errors from concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// formatTime renders a timestamp for persistence.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a persisted timestamp.
func parseTime(v string) (time.Time, error) {
	return time.Parse(timeLayout, v)
}

// nullString maps an optional string to its nullable column value.
func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// nullTime maps an optional timestamp to its nullable column value.
func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return formatTime(*p)
}

// scanNullString converts a scanned nullable column back to a pointer.
func scanNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// scanNullTime converts a scanned nullable timestamp back to a pointer.
func scanNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
