// Package grpcserver hosts the gRPC server, registering the AuditLog and
// standard Health services and delegating to the audit log service.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	svc := auditsvc.FromRuntime(rt, logger)
//	authn, _ := auth.New(rt.Config().Auth)
//	s := grpcserver.New(rt, svc, authn, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
