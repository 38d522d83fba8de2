// Package httpserver provides the REST gateway for the audit log with SSE
// notification streaming.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	svc := auditsvc.FromRuntime(rt, logger)
//	authn, _ := auth.New(rt.Config().Auth)
//	s := httpserver.New(rt, svc, authn, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
