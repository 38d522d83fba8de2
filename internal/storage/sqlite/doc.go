// Package sqlitestore opens SQLite databases through the pure-Go
// modernc.org/sqlite driver with WAL journaling and an idempotent schema.
package sqlitestore
