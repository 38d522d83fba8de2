// Package ledger hosts the audit core behind a transactional substrate.
//
// A Substrate serializes writers and commits every mutation made inside
// Update atomically; View runs against a consistent read snapshot. Three
// substrates are provided: Pebble (default, durable), SQLite, and an
// in-memory map used by tests and ephemeral deployments.
//
// # Pebble keyspace
//
// Variable-length components are prefixed with their big-endian uint32
// length, which keeps the encoding collision free for arbitrary bytes:
//   - a/e/{len4}{logId}{len4}{period}/m          (sequence metadata: lastSeq)
//   - a/e/{len4}{logId}{len4}{period}/e{seq_be8} (entries, append order)
//   - a/p/{len4}{logId}{period}                  (period index)
//   - a/o/{logId}                                (owner)
//
// Entries are stored as records: fields as uvarint-length-prefixed bytes
// followed by crc32c over the fields.
package ledger
