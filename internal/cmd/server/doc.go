// Package serverrun starts an audit log node: it opens the runtime for the
// configured backend, then serves the AuditLog API over gRPC and HTTP and
// runs notification retention until the context ends or a listener fails.
//
//	cfg := config.Default()
//	cfg.Storage.Backend = "sqlite"
//	err := serverrun.Run(ctx, serverrun.Options{
//	    DataDir:  "./data",
//	    GRPCAddr: ":50051",
//	    HTTPAddr: ":8080",
//	    Config:   cfg,
//	})
package serverrun
