// Package audit holds the audit-log core: the entry model, the LogStore and
// OwnerRegistry contracts, and the append/retrieve operations.
//
// The core is synchronous and performs no locking. Callers run Save inside a
// transaction supplied by a hosting substrate (see internal/ledger) that
// serializes writers and commits the owner claim and the entry append
// together.
//
//	outcome, err := audit.Save(tx, tx, sink, caller, audit.Request{
//	    LogID:     []byte("log-file-name"),
//	    Period:    []byte("2021-10-08"),
//	    Title:     []byte("log-title"),
//	    Content:   []byte("transaction with id 123 is processed"),
//	    Timestamp: []byte("2021-10-08 17:30:00 UTC"),
//	})
//	if errors.Is(err, audit.ErrUnauthorized) { /* not the owner */ }
//	entries, _ := audit.Retrieve(tx, []byte("log-file-name"), []byte("2021-10-08"))
package audit
