// Package eventlog implements the durable, append-only notification log that
// records one event per stored audit entry.
//
// # Overview
//
// Each topic is an independent sequence persisted in Pebble. Keys are
// lexicographically ordered for range scans:
//   - ev/{topic}/m           (topic metadata: lastSeq)
//   - ev/{topic}/e/{seq_be8} (entries)
//   - ev/{topic}/c/{group}   (durable consumer cursors)
//
// Records are stored as: uvarint headerLen | header | payload | crc32c(header|payload).
// The header starts with the append time in unix milliseconds (8 bytes BE),
// which drives age-based retention.
//
// API surface (internal)
//
//	l, _ := OpenLog(db, "audit-events")
//	seqs, _ := l.Append(ctx, []AppendRecord{{Header: NowHeader(), Payload: p}})
//
//	// Read forward/reverse from an inclusive start token
//	items, next, _ := l.Read(ReadOptions{Start: TokenFromSeq(seqs[0]), Limit: 100})
//
//	// Block until something new is appended
//	_ = l.WaitForAppend(ctx, 200*time.Millisecond)
//
//	// Durable consumer cursors never move backwards
//	_ = l.CommitCursor("watcher", TokenFromSeq(seqs[len(seqs)-1]))
//
//	// Retention
//	_, _ = l.TrimToMaxEntries(ctx, 100_000, 1024, 0)
//	_, _, _ = l.TrimOlderThan(ctx, cutoffMs, 1024, 0)
package eventlog
