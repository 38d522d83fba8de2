package notify

import (
	"context"
	"time"

	"github.com/rzbill/auditlog/internal/eventlog"
)

// WatchOptions controls Watch.
type WatchOptions struct {
	// After resumes strictly after this sequence. Ignored when Group has a
	// committed cursor.
	After uint64
	// SinceMs starts at the first event appended at or after this time when
	// neither After nor a group cursor applies.
	SinceMs int64
	// Group names a durable cursor committed after each delivered event.
	Group string
	// Batch caps events read per poll (default 256).
	Batch int
	// Poll bounds how long to block between reads (default 1s).
	Poll time.Duration
}

// Watch delivers events from l in sequence order until ctx is done or fn
// returns an error. Seq is set on every delivered event.
func Watch(ctx context.Context, l *eventlog.Log, opts WatchOptions, fn func(Event) error) error {
	if opts.Batch <= 0 {
		opts.Batch = 256
	}
	if opts.Poll <= 0 {
		opts.Poll = time.Second
	}
	after := opts.After
	cursor := false
	if opts.Group != "" {
		if tok, ok := l.GetCursor(opts.Group); ok {
			after, cursor = tok.Seq(), true
		}
	}
	if !cursor && after == 0 && opts.SinceMs > 0 {
		seq, err := l.SeekTime(opts.SinceMs)
		if err != nil {
			return err
		}
		after = seq - 1
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		// subscribe before reading so an append between the read and the
		// wait is not missed
		changed := l.Changed()
		items, _, err := l.Read(eventlog.ReadOptions{Start: eventlog.TokenFromSeq(after + 1), Limit: opts.Batch})
		if err != nil {
			return err
		}
		for _, it := range items {
			after = it.Seq
			ev, err := Unmarshal(it.Payload)
			if err != nil {
				continue
			}
			ev.Seq = it.Seq
			if err := fn(ev); err != nil {
				return err
			}
			if opts.Group != "" {
				if err := l.CommitCursor(opts.Group, eventlog.TokenFromSeq(it.Seq)); err != nil {
					return err
				}
			}
		}
		if len(items) == opts.Batch {
			continue
		}
		timer := time.NewTimer(opts.Poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-changed:
		case <-timer.C:
		}
		timer.Stop()
	}
}
