package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
	"github.com/rzbill/auditlog/internal/auth"
	"github.com/rzbill/auditlog/internal/runtime"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New constructs a gRPC server and registers services. authn resolves
// callers from metadata; nil leaves every call anonymous.
func New(rt *runtime.Runtime, svc *auditsvc.Service, authn auth.Authenticator, logger logpkg.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	logger = logger.With(logpkg.Component("grpc"))
	opts = append(opts,
		grpc.ChainUnaryInterceptor(unaryInterceptor(authn, logger)),
		grpc.ChainStreamInterceptor(streamInterceptor(authn, logger)),
	)
	s := &Server{rt: rt, grpc: grpc.NewServer(opts...), logger: logger}
	healthpb.RegisterHealthServer(s.grpc, &healthSvc{rt: rt})
	auditlogv1.RegisterAuditLogServer(s.grpc, &auditLogSvc{svc: svc})
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.stop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// stop drains in-flight calls. Open Watch streams only end with their
// clients, so the drain is bounded and falls back to a hard stop.
func (s *Server) stop() {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.grpc.Stop()
		<-done
	}
}
