package ledger

import (
	"context"
	"errors"

	"github.com/rzbill/auditlog/internal/audit"
)

var (
	// ErrReadOnly is returned when a write is attempted inside View.
	ErrReadOnly = errors.New("ledger: read-only transaction")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("ledger: substrate closed")
)

// Tx is the unit of work handed to Update and View callbacks.
type Tx interface {
	audit.LogStore
	audit.OwnerRegistry
	// Periods lists the periods recorded under logID in byte order.
	Periods(logID []byte) ([][]byte, error)
	// Len returns the number of entries stored for (logID, period).
	Len(logID, period []byte) (uint64, error)
}

// Substrate supplies durable storage and the transaction boundary.
type Substrate interface {
	// Update runs fn as one serialized, all-or-nothing unit. Any error from
	// fn discards every write it made.
	Update(ctx context.Context, fn func(Tx) error) error
	// View runs fn against a consistent snapshot. Writes fail with ErrReadOnly.
	View(ctx context.Context, fn func(Tx) error) error
	// Ping reports whether the substrate is usable.
	Ping(ctx context.Context) error
	Close() error
}

// Backend names a substrate implementation.
type Backend string

const (
	BackendPebble Backend = "pebble"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)
