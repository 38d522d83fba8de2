package eventlog

import (
	"context"
	"time"

	"github.com/cockroachdb/pebble"
)

// TrimHook is invoked with the contiguous [minSeq, maxSeq] range removed by
// each committed trim batch.
type TrimHook interface {
	Trimmed(topic string, minSeq, maxSeq uint64)
}

// TrimHookFunc adapts a function to TrimHook.
type TrimHookFunc func(topic string, minSeq, maxSeq uint64)

func (f TrimHookFunc) Trimmed(topic string, minSeq, maxSeq uint64) { f(topic, minSeq, maxSeq) }

type noopTrimHook struct{}

func (noopTrimHook) Trimmed(string, uint64, uint64) {}

// TrimOlderThan deletes the oldest entries whose header time is < cutoffMs,
// stopping at the first newer (or undated) entry. Deletes are committed in
// batches of up to batchLimit keys with an optional throttle between commits.
// Returns the number of deleted entries and the last deleted sequence.
func (l *Log) TrimOlderThan(ctx context.Context, cutoffMs int64, batchLimit int, throttle time.Duration) (int, uint64, error) {
	return l.trimWhile(ctx, batchLimit, throttle, func(_ int, value []byte) bool {
		dec, ok := DecodeRecord(value)
		if !ok {
			return false
		}
		ms, ok := HeaderTime(dec.Header)
		return ok && ms < cutoffMs
	})
}

// TrimToMaxEntries deletes the oldest entries until at most maxEntries remain.
// A non-positive maxEntries disables the trim.
func (l *Log) TrimToMaxEntries(ctx context.Context, maxEntries int, batchLimit int, throttle time.Duration) (int, error) {
	if maxEntries <= 0 {
		return 0, nil
	}
	total, err := l.count()
	if err != nil || total <= maxEntries {
		return 0, err
	}
	excess := total - maxEntries
	n, _, err := l.trimWhile(ctx, batchLimit, throttle, func(deleted int, _ []byte) bool {
		return deleted < excess
	})
	return n, err
}

func (l *Log) count() (int, error) {
	low, high := entryBounds(l.topic)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	n := 0
	for ok := iter.First(); ok; ok = iter.Next() {
		n++
	}
	return n, iter.Error()
}

// trimWhile deletes entries from the oldest forward while more returns
// true for (entries deleted so far, value).
func (l *Log) trimWhile(ctx context.Context, batchLimit int, throttle time.Duration, more func(deleted int, value []byte) bool) (int, uint64, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}
	low, high := entryBounds(l.topic)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return 0, 0, err
	}
	defer iter.Close()

	deleted := 0
	var lastSeq uint64
	ok := iter.First()
	for ok && more(deleted, iter.Value()) {
		if err := ctx.Err(); err != nil {
			return deleted, lastSeq, err
		}
		b := l.db.NewBatch()
		n := 0
		var minSeq uint64
		for ok && n < batchLimit && more(deleted+n, iter.Value()) {
			seq := seqFromKey(iter.Key())
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return deleted, lastSeq, err
			}
			if n == 0 {
				minSeq = seq
			}
			lastSeq = seq
			n++
			ok = iter.Next()
		}
		if err := l.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, lastSeq, err
		}
		b.Close()
		deleted += n
		l.mu.Lock()
		hook := l.trimHook
		l.mu.Unlock()
		hook.Trimmed(l.topic, minSeq, lastSeq)
		if throttle > 0 && ok {
			time.Sleep(throttle)
		}
	}
	return deleted, lastSeq, iter.Error()
}
