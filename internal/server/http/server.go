package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rzbill/auditlog/internal/auth"
	"github.com/rzbill/auditlog/internal/runtime"
	"github.com/rzbill/auditlog/internal/server/http/controllers"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds the HTTP gateway. authn resolves callers; nil leaves every
// request anonymous, which makes the API read-only.
func New(rt *runtime.Runtime, svc *auditsvc.Service, authn auth.Authenticator, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	logger = logger.With(logpkg.Component("http"))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(accessLog(logger))
	r.Use(cors(rt.Config().Auth.Header))
	if authn != nil {
		r.Use(auth.Middleware(authn))
	}
	if rl := rt.Config().RateLimit; rl.RPS > 0 {
		r.Use(newRateLimiter(rl.RPS, rl.Burst).middleware)
	}
	controllers.NewControllerRegistry(rt, svc, logger).RegisterAllRoutes(r)

	return &Server{
		rt:     rt,
		srv:    &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second},
		logger: logger,
	}
}

// Handler exposes the routed handler for embedding and tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
