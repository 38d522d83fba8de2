// Package auditsvc implements the audit log facade consumed by the gRPC and
// HTTP transports. It runs the ownership-gated append inside one ledger
// transaction, enforces the configured size limits, and publishes the
// notification only after the transaction committed.
//
// Example:
//
//	svc := auditsvc.FromRuntime(rt, logger)
//	res, err := svc.Save(ctx, "alice", audit.Request{LogID: id, Period: day, Title: t, Content: c, Timestamp: ts})
//	entries, _ := svc.Retrieve(ctx, id, day, auditsvc.RetrieveOptions{Filter: `reporter == "alice"`})
//	owner, ok, _ := svc.OwnerOf(ctx, id)
package auditsvc
