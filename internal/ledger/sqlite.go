package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rzbill/auditlog/internal/audit"
	sqlitestore "github.com/rzbill/auditlog/internal/storage/sqlite"
)

// SQLiteSchema creates the ledger tables.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_entries (
		log_id BLOB NOT NULL,
		period BLOB NOT NULL,
		seq    INTEGER NOT NULL,
		record BLOB NOT NULL,
		PRIMARY KEY (log_id, period, seq)
	) WITHOUT ROWID`,
	`CREATE TABLE IF NOT EXISTS audit_owners (
		log_id BLOB PRIMARY KEY,
		owner  TEXT NOT NULL
	) WITHOUT ROWID`,
}

// SQLiteSubstrate stores the ledger in SQLite tables.
type SQLiteSubstrate struct {
	db     *sqlitestore.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteSubstrate uses db, which must have been opened with SQLiteSchema.
func NewSQLiteSubstrate(db *sqlitestore.DB) *SQLiteSubstrate {
	return &SQLiteSubstrate{db: db}
}

func (s *SQLiteSubstrate) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, false)
	if err != nil {
		return err
	}
	if err := fn(&sqliteTx{ctx: ctx, tx: tx, writable: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteSubstrate) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(&sqliteTx{ctx: ctx, tx: tx})
}

func (s *SQLiteSubstrate) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

// Close marks the substrate closed. The underlying DB is closed by its owner.
func (s *SQLiteSubstrate) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type sqliteTx struct {
	ctx      context.Context
	tx       *sql.Tx
	writable bool
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func (t *sqliteTx) Get(logID, period []byte) ([]audit.Entry, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT seq, record FROM audit_entries WHERE log_id = ? AND period = ? ORDER BY seq`,
		nonNil(logID), nonNil(period))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []audit.Entry{}
	for rows.Next() {
		var seq int64
		var rec []byte
		if err := rows.Scan(&seq, &rec); err != nil {
			return nil, err
		}
		e, err := DecodeEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("%w at seq %d", err, seq)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (t *sqliteTx) Len(logID, period []byte) (uint64, error) {
	var n int64
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM audit_entries WHERE log_id = ? AND period = ?`,
		nonNil(logID), nonNil(period)).Scan(&n)
	return uint64(n), err
}

func (t *sqliteTx) Append(logID, period []byte, e audit.Entry) error {
	if !t.writable {
		return ErrReadOnly
	}
	last, err := t.Len(logID, period)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO audit_entries (log_id, period, seq, record) VALUES (?, ?, ?, ?)`,
		nonNil(logID), nonNil(period), int64(last+1), EncodeEntry(e))
	return err
}

func (t *sqliteTx) OwnerOf(logID []byte) (audit.AccountID, bool, error) {
	var owner string
	err := t.tx.QueryRowContext(t.ctx, `SELECT owner FROM audit_owners WHERE log_id = ?`, nonNil(logID)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return audit.AccountID(owner), true, nil
}

func (t *sqliteTx) Claim(logID []byte, owner audit.AccountID) (bool, error) {
	if !t.writable {
		return false, ErrReadOnly
	}
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO audit_owners (log_id, owner) VALUES (?, ?) ON CONFLICT (log_id) DO NOTHING`,
		nonNil(logID), string(owner))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *sqliteTx) Periods(logID []byte) ([][]byte, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT DISTINCT period FROM audit_entries WHERE log_id = ? ORDER BY period`, nonNil(logID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := [][]byte{}
	for rows.Next() {
		var p []byte
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, nonNil(p))
	}
	return out, rows.Err()
}
