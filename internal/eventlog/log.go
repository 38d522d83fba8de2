package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/rzbill/auditlog/internal/storage/pebble"
)

// AppendRecord represents a single appendable event.
type AppendRecord struct {
	Header  []byte
	Payload []byte
}

// Log provides append-only operations for one topic.
type Log struct {
	db    *pebblestore.DB
	topic string

	mu       sync.Mutex
	lastSeq  uint64
	notifyCh chan struct{}
	trimHook TrimHook
}

// OpenLog initializes a Log and loads the last sequence from metadata (if any).
func OpenLog(db *pebblestore.DB, topic string) (*Log, error) {
	if topic == "" {
		return nil, errors.New("eventlog: topic is required")
	}
	l := &Log{db: db, topic: topic, notifyCh: make(chan struct{}), trimHook: noopTrimHook{}}
	meta, err := db.Get(KeyLogMeta(topic))
	switch {
	case errors.Is(err, pebblestore.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("eventlog: load meta for %q: %w", topic, err)
	case len(meta) >= 8:
		l.lastSeq = binary.BigEndian.Uint64(meta[:8])
	}
	return l, nil
}

// Topic returns the topic name.
func (l *Log) Topic() string { return l.topic }

// LastSeq returns the highest sequence assigned so far (0 when empty).
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// SetTrimHook installs h to observe trimmed ranges. A nil h restores the no-op.
func (l *Log) SetTrimHook(h TrimHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == nil {
		h = noopTrimHook{}
	}
	l.trimHook = h
}

// Append appends the provided records as a single atomic batch. Returns assigned seq numbers.
func (l *Log) Append(ctx context.Context, recs []AppendRecord) ([]uint64, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.db.NewBatch()
	defer b.Close()

	seqs := make([]uint64, len(recs))
	next := l.lastSeq
	for i, r := range recs {
		next++
		if err := b.Set(KeyLogEntry(l.topic, next), EncodeRecord(r.Header, r.Payload), nil); err != nil {
			return nil, err
		}
		seqs[i] = next
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], next)
	if err := b.Set(KeyLogMeta(l.topic), meta[:], nil); err != nil {
		return nil, err
	}

	if err := l.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	l.lastSeq = next
	// wake waiters
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})
	return seqs, nil
}
