package auditsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/auditlog/internal/audit"
	cfgpkg "github.com/rzbill/auditlog/internal/config"
	"github.com/rzbill/auditlog/internal/eventlog"
	"github.com/rzbill/auditlog/internal/ledger"
	"github.com/rzbill/auditlog/internal/notify"
	"github.com/rzbill/auditlog/internal/runtime"
	"github.com/rzbill/auditlog/pkg/id"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// Options wires a Service. Ledger is required; everything else is optional.
type Options struct {
	Ledger ledger.Substrate
	// Events backs Watch. Publishing goes through Sink.
	Events *eventlog.Log
	Sink   notify.Sink
	Limits cfgpkg.Limits
	Logger logpkg.Logger
}

// Service provides the audit log operations.
type Service struct {
	ledger ledger.Substrate
	events *eventlog.Log
	sink   notify.Sink
	limits cfgpkg.Limits
	ids    *id.Generator
	logger logpkg.Logger
}

// New returns a Service built from opts.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("auditlog"))
	}
	sink := opts.Sink
	if sink == nil {
		sink = notify.Discard
	}
	return &Service{
		ledger: opts.Ledger,
		events: opts.Events,
		sink:   sink,
		limits: opts.Limits,
		ids:    id.NewGenerator(),
		logger: logger,
	}
}

// FromRuntime wires the runtime's ledger and notification log. Events are
// logged and appended to the durable log.
func FromRuntime(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("auditlog"))
	}
	return New(Options{
		Ledger: rt.Ledger(),
		Events: rt.Events(),
		Sink: notify.Fanout{
			notify.LogSink{Logger: logger.With(logpkg.Component("notify"))},
			notify.EventLogSink{Log: rt.Events()},
		},
		Limits: rt.Config().Limits,
		Logger: logger,
	})
}

// SaveResult reports a successful append.
type SaveResult struct {
	Outcome audit.Outcome
	EventID id.ID
}

// Save appends one entry for caller. Ownership, the append and the size
// checks run in a single ledger transaction; the notification is published
// after it commits. A publish failure is logged and does not fail the call
// because the entry is already durable.
func (s *Service) Save(ctx context.Context, caller audit.AccountID, req audit.Request) (SaveResult, error) {
	start := time.Now()
	log := s.logger.With(
		logpkg.Operation("save_audit_log"),
		logpkg.Bytes("log_id", req.LogID),
		logpkg.Bytes("period", req.Period),
		logpkg.Str("caller", string(caller)),
	)
	if err := s.checkSizes(req); err != nil {
		log.Warn("save rejected", logpkg.Err(err))
		return SaveResult{}, err
	}

	staging := &notify.Staging{}
	var outcome audit.Outcome
	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		staging.Reset()
		var store audit.LogStore = tx
		if s.limits.MaxEntriesPerKey > 0 {
			store = cappedStore{Tx: tx, max: uint64(s.limits.MaxEntriesPerKey)}
		}
		var err error
		outcome, err = audit.Save(store, tx, staging, caller, req)
		return err
	})
	if err != nil {
		if errors.Is(err, audit.ErrUnauthorized) || errors.Is(err, audit.ErrNoCaller) || errors.Is(err, ErrTooLarge) {
			log.Warn("save rejected", logpkg.Err(err))
		} else {
			log.Error("save failed", logpkg.Err(err))
		}
		return SaveResult{}, err
	}

	res := SaveResult{Outcome: outcome}
	staged := staging.Drain()
	events := make([]notify.Event, len(staged))
	for i, ev := range staged {
		events[i] = notify.FromAudit(s.ids.Next(), ev)
	}
	if len(events) > 0 {
		res.EventID = events[len(events)-1].ID
	}
	if err := s.sink.Publish(ctx, events); err != nil {
		log.Error("publish notification failed", logpkg.Err(err))
	}
	log.Debug("saved", logpkg.Str("outcome", outcome.String()), logpkg.Duration("took", time.Since(start)))
	return res, nil
}

func (s *Service) checkSizes(req audit.Request) error {
	check := func(field string, n, limit int) error {
		if limit > 0 && n > limit {
			return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, field, n, limit)
		}
		return nil
	}
	return errors.Join(
		check("title", len(req.Title), s.limits.MaxTitleBytes),
		check("content", len(req.Content), s.limits.MaxContentBytes),
		check("timestamp", len(req.Timestamp), s.limits.MaxTimestampBytes),
	)
}

// cappedStore refuses appends to sequences already holding max entries.
type cappedStore struct {
	ledger.Tx
	max uint64
}

func (c cappedStore) Append(logID, period []byte, e audit.Entry) error {
	n, err := c.Tx.Len(logID, period)
	if err != nil {
		return err
	}
	if n >= c.max {
		return fmt.Errorf("%w: key holds %d entries, limit %d", ErrTooLarge, n, c.max)
	}
	return c.Tx.Append(logID, period, e)
}

// RetrieveOptions narrows a Retrieve.
type RetrieveOptions struct {
	// Filter is an optional CEL expression over title, content, timestamp,
	// reporter, index, size and now_ms.
	Filter string
	// Limit caps the number of returned entries; 0 returns all.
	Limit int
}

// IndexedEntry is an entry together with its position in the sequence.
type IndexedEntry struct {
	Index int
	audit.Entry
}

// Retrieve returns the ordered history of (logID, period). Reads are open to
// every caller. An absent key yields an empty slice.
func (s *Service) Retrieve(ctx context.Context, logID, period []byte, opts RetrieveOptions) ([]IndexedEntry, error) {
	filter, err := newCELFilter(opts.Filter)
	if err != nil {
		return nil, err
	}
	var entries []audit.Entry
	err = s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		entries, err = audit.Retrieve(tx, logID, period)
		return err
	})
	if err != nil {
		s.logger.Error("retrieve failed", logpkg.Bytes("log_id", logID), logpkg.Bytes("period", period), logpkg.Err(err))
		return nil, err
	}
	out := make([]IndexedEntry, 0, len(entries))
	for i, e := range entries {
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		if filter.Eval(i, e) {
			out = append(out, IndexedEntry{Index: i, Entry: e})
		}
	}
	return out, nil
}

// OwnerOf reports the account that owns logID.
func (s *Service) OwnerOf(ctx context.Context, logID []byte) (audit.AccountID, bool, error) {
	var (
		owner audit.AccountID
		ok    bool
	)
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		owner, ok, err = audit.OwnerOf(tx, logID)
		return err
	})
	return owner, ok, err
}

// Periods lists the periods recorded under logID in byte order.
func (s *Service) Periods(ctx context.Context, logID []byte) ([][]byte, error) {
	var periods [][]byte
	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		periods, err = tx.Periods(logID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("auditsvc: list periods: %w", err)
	}
	return periods, nil
}

// Watch streams committed notifications until ctx is done or fn fails.
func (s *Service) Watch(ctx context.Context, opts notify.WatchOptions, fn func(notify.Event) error) error {
	if s.events == nil {
		return ErrNoEvents
	}
	return notify.Watch(ctx, s.events, opts, fn)
}

// CanWatch reports whether Watch has a notification log to read.
func (s *Service) CanWatch() bool { return s.events != nil }

// Health reports whether the ledger is reachable.
func (s *Service) Health(ctx context.Context) error { return s.ledger.Ping(ctx) }
