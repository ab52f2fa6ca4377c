package database

import "errors"

var (
	// ErrOpenFailed is returned when the database cannot be created or opened.
	ErrOpenFailed = errors.New("database: open failed")

	// ErrMigrationFailed wraps any failure while applying or rolling back a migration.
	ErrMigrationFailed = errors.New("database: migration failed")
)
