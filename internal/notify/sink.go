package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/rzbill/auditlog/internal/audit"
	"github.com/rzbill/auditlog/internal/eventlog"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// Sink publishes committed events.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, events []Event) error

func (f SinkFunc) Publish(ctx context.Context, events []Event) error { return f(ctx, events) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, []Event) error { return nil })

// LogSink writes one info line per event.
type LogSink struct{ Logger logpkg.Logger }

func (s LogSink) Publish(_ context.Context, events []Event) error {
	for _, e := range events {
		s.Logger.Info("audit log stored",
			logpkg.Str("event_id", e.ID.String()),
			logpkg.Bytes("log_id", e.LogID),
			logpkg.Bytes("period", e.Period),
			logpkg.Str("reporter", string(e.Reporter)),
			logpkg.Str("outcome", e.Outcome),
		)
	}
	return nil
}

// EventLogSink appends events to a durable eventlog topic.
type EventLogSink struct{ Log *eventlog.Log }

func (s EventLogSink) Publish(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	recs := make([]eventlog.AppendRecord, len(events))
	for i, e := range events {
		payload, err := e.Marshal()
		if err != nil {
			return err
		}
		recs[i] = eventlog.AppendRecord{Header: eventlog.HeaderAt(e.AtMs), Payload: payload}
	}
	_, err := s.Log.Append(ctx, recs)
	return err
}

// Fanout publishes to every sink in order and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, events []Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Staging collects audit events raised inside a transaction. It implements
// audit.EventSink and is discarded when the transaction fails.
type Staging struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *Staging) AuditLogStored(ev audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Drain returns the staged events and empties the buffer.
func (s *Staging) Drain() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

// Reset discards staged events. Used when a transaction is retried or rolled back.
func (s *Staging) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
