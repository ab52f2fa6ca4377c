// Package database provides the SQLite connection behind the actuation
// audit trail.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Versioned schema migrations from an embedded filesystem
//   - Connection lifecycle and health checks
//
// The audit trail is append-only history. Nothing in it is read back into
// control state on startup.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.up.sql. A .down.sql beside it is a manual
// rollback script and is never run automatically.
package database
