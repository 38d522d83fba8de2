package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Options configures the SQLite wrapper.
type Options struct {
	// Path is the database file. Required.
	Path string
	// BusyTimeout bounds how long a writer waits on a locked database.
	BusyTimeout time.Duration
	// Schema statements are executed in order on open. They must be idempotent.
	Schema []string
}

// DB holds two handles on one SQLite file. Writes go through a single
// connection that opens every transaction with BEGIN IMMEDIATE, so the write
// lock is taken up front and writers queue instead of failing on upgrade.
// Reads use a separate pool and run concurrently under WAL.
type DB struct {
	writer *sql.DB
	reader *sql.DB
}

// Open opens (or creates) the database at opts.Path in WAL mode and applies
// the schema.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite: Options.Path is required")
	}
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	base := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=synchronous(full)",
		opts.Path, busy.Milliseconds())

	writer, err := sql.Open("sqlite", base+"&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, err
	}
	for _, stmt := range opts.Schema {
		if _, err := writer.ExecContext(ctx, stmt); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}

	reader, err := sql.Open("sqlite", base)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := reader.PingContext(ctx); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return nil, err
	}
	return &DB{writer: writer, reader: reader}, nil
}

// BeginTx starts a read-only transaction on the reader pool, or an
// immediate write transaction on the writer connection.
func (db *DB) BeginTx(ctx context.Context, readOnly bool) (*sql.Tx, error) {
	if readOnly {
		return db.reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	}
	return db.writer.BeginTx(ctx, nil)
}

// Ping verifies both handles are usable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return err
	}
	return db.reader.PingContext(ctx)
}

// Close closes the database.
func (db *DB) Close() error {
	if db == nil || db.writer == nil {
		return nil
	}
	return errors.Join(db.writer.Close(), db.reader.Close())
}
