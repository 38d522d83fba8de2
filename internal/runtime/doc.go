// Package runtime wires storage, config, and the notification log into a
// single-node audit log instance. It exposes Open/Close, health checks,
// notification retention and storage counters.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	_ = rt.Ledger().Update(ctx, func(tx ledger.Tx) error { ... })
package runtime
