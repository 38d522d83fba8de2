package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	cfgpkg "github.com/rzbill/auditlog/internal/config"
	"github.com/rzbill/auditlog/internal/eventlog"
	"github.com/rzbill/auditlog/internal/ledger"
	pebblestore "github.com/rzbill/auditlog/internal/storage/pebble"
	sqlitestore "github.com/rzbill/auditlog/internal/storage/sqlite"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Config  cfgpkg.Config
	Logger  logpkg.Logger
}

// Runtime wires storage, config, and the notification log for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	sqlite *sqlitestore.DB
	ledger ledger.Substrate
	events *eventlog.Log
	config cfgpkg.Config
	logger logpkg.Logger
	stats  *storageStats

	// trimmedTo is the highest notification seq removed by retention;
	// compactedTo is the highest one already compacted.
	trimmedTo   atomic.Uint64
	compactedTo atomic.Uint64
}

// Open initializes the underlying storage and returns a Runtime. The Pebble
// database under {DataDir}/store always hosts the notification log and, for
// the pebble backend, the ledger itself.
func Open(opts Options) (*Runtime, error) {
	if opts.DataDir == "" {
		return nil, errors.New("runtime: DataDir is required")
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	fsync, err := pebblestore.ParseFsyncMode(cfg.Storage.Fsync)
	if err != nil {
		return nil, err
	}

	stats := &storageStats{}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       filepath.Join(opts.DataDir, "store"),
		Fsync:         fsync,
		FsyncInterval: time.Duration(cfg.Storage.FsyncIntervalMs) * time.Millisecond,
		Metrics:       stats,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("runtime: open pebble: %w", err)
	}
	rt := &Runtime{db: db, config: cfg, logger: logger.WithComponent("runtime"), stats: stats}

	switch ledger.Backend(cfg.Storage.Backend) {
	case ledger.BackendPebble:
		rt.ledger = ledger.NewPebbleSubstrate(db)
	case ledger.BackendSQLite:
		path := cfg.Storage.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "audit.db")
		}
		sdb, err := sqlitestore.Open(context.Background(), sqlitestore.Options{Path: path, Schema: ledger.SQLiteSchema})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("runtime: open sqlite: %w", err)
		}
		rt.sqlite = sdb
		rt.ledger = ledger.NewSQLiteSubstrate(sdb)
	case ledger.BackendMemory:
		rt.ledger = ledger.NewMemorySubstrate()
	}

	rt.events, err = eventlog.OpenLog(db, cfg.Events.Topic)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.events.SetTrimHook(eventlog.TrimHookFunc(func(topic string, minSeq, maxSeq uint64) {
		rt.trimmedTo.Store(maxSeq)
		rt.logger.Debug("trimmed notifications", logpkg.Str("topic", topic), logpkg.Uint64("min_seq", minSeq), logpkg.Uint64("max_seq", maxSeq))
	}))
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	var errs []error
	if r.ledger != nil {
		errs = append(errs, r.ledger.Close())
		r.ledger = nil
	}
	if r.sqlite != nil {
		errs = append(errs, r.sqlite.Close())
		r.sqlite = nil
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	return errors.Join(errs...)
}

// CheckHealth verifies both the ledger substrate and the Pebble store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil || r.ledger == nil {
		return errors.New("runtime not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	if err := it.Close(); err != nil {
		return err
	}
	return r.ledger.Ping(ctx)
}

// RunRetention trims the notification log on the configured interval until
// ctx is done.
func (r *Runtime) RunRetention(ctx context.Context) {
	ev := r.config.Events
	if ev.TrimIntervalMs <= 0 || (ev.MaxEntries <= 0 && ev.MaxAgeHours <= 0) {
		return
	}
	t := time.NewTicker(time.Duration(ev.TrimIntervalMs) * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.TrimEvents(ctx, time.Now()); err != nil && ctx.Err() == nil {
				r.logger.Warn("notification trim failed", logpkg.Err(err))
			}
		}
	}
}

// TrimEvents applies the retention policy once, relative to now.
func (r *Runtime) TrimEvents(ctx context.Context, now time.Time) error {
	ev := r.config.Events
	if ev.MaxAgeHours > 0 {
		cutoff := now.Add(-time.Duration(ev.MaxAgeHours) * time.Hour).UnixMilli()
		if _, _, err := r.events.TrimOlderThan(ctx, cutoff, 1024, 0); err != nil {
			return err
		}
	}
	if ev.MaxEntries > 0 {
		if _, err := r.events.TrimToMaxEntries(ctx, ev.MaxEntries, 1024, 0); err != nil {
			return err
		}
	}
	// Reclaim the tombstoned prefix once per pass.
	if hi := r.trimmedTo.Load(); hi > r.compactedTo.Load() {
		low := eventlog.KeyLogEntry(r.events.Topic(), 0)
		high := eventlog.KeyLogEntry(r.events.Topic(), hi+1)
		if err := r.db.CompactRange(low, high); err != nil {
			r.logger.Warn("compact trimmed notifications failed", logpkg.Err(err))
			return nil
		}
		r.compactedTo.Store(hi)
	}
	return nil
}

// Ledger returns the transactional substrate holding audit logs.
func (r *Runtime) Ledger() ledger.Substrate { return r.ledger }

// Events returns the durable notification log.
func (r *Runtime) Events() *eventlog.Log { return r.events }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// StorageStats summarizes Pebble activity since Open.
type StorageStats struct {
	Writes       uint64 `json:"writes"`
	Reads        uint64 `json:"reads"`
	Commits      uint64 `json:"commits"`
	BytesWritten uint64 `json:"bytesWritten"`
}

// Stats returns a snapshot of storage counters.
func (r *Runtime) Stats() StorageStats { return r.stats.snapshot() }

type storageStats struct {
	writes, reads, commits, bytesWritten atomic.Uint64
}

func (s *storageStats) ObserveWrite(_ time.Duration, n int) {
	s.writes.Add(1)
	s.bytesWritten.Add(uint64(n))
}

func (s *storageStats) ObserveRead(time.Duration, int) { s.reads.Add(1) }

func (s *storageStats) ObserveBatchCommit(_ time.Duration, _ int, n int) {
	s.commits.Add(1)
	s.bytesWritten.Add(uint64(n))
}

func (s *storageStats) snapshot() StorageStats {
	return StorageStats{
		Writes:       s.writes.Load(),
		Reads:        s.reads.Load(),
		Commits:      s.commits.Load(),
		BytesWritten: s.bytesWritten.Load(),
	}
}
