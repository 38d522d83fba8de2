package serverrun

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rzbill/auditlog/internal/auth"
	cfgpkg "github.com/rzbill/auditlog/internal/config"
	"github.com/rzbill/auditlog/internal/runtime"
	grpcserver "github.com/rzbill/auditlog/internal/server/grpc"
	httpserver "github.com/rzbill/auditlog/internal/server/http"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

type Options struct {
	DataDir  string
	GRPCAddr string
	HTTPAddr string
	Config   cfgpkg.Config
	// Logger overrides the process logger built from Config.Log.
	Logger logpkg.Logger
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled or a
// listener fails. A listener failure is returned after shutdown.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers that do
	// not pass a signal-aware context still shut down cleanly.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if err := opts.Config.Validate(); err != nil {
		return err
	}

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = buildLogger(opts.Config.Log)
		// Redirect stdlib logs (e.g., Pebble) to our logger
		logpkg.RedirectStdLog(procLogger)
	}

	rt, err := runtime.Open(runtime.Options{
		DataDir: opts.DataDir,
		Config:  opts.Config,
		Logger:  procLogger.With(logpkg.Component("storage")),
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	authn, err := auth.New(opts.Config.Auth)
	if err != nil {
		return err
	}

	procLogger.Info("Starting auditlog server",
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("backend", opts.Config.Storage.Backend),
		logpkg.Str("fsync", opts.Config.Storage.Fsync),
		logpkg.Str("auth", opts.Config.Auth.Mode),
		logpkg.Str("level", opts.Config.Log.Level),
		logpkg.Str("format", opts.Config.Log.Format),
	)
	if opts.Config.Auth.Mode == cfgpkg.AuthModeHeader {
		procLogger.Warn("header auth trusts the caller-supplied account; use jwt mode outside development",
			logpkg.Str("header", opts.Config.Auth.Header))
	}

	// One service instance shared by both transports
	svc := auditsvc.FromRuntime(rt, procLogger.With(logpkg.Component("auditlog")))
	gsrv := grpcserver.New(rt, svc, authn, procLogger)
	hsrv := httpserver.New(rt, svc, authn, procLogger)

	runCtx, cancel := context.WithCancel(sctx)
	defer cancel()
	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	fail := func(name string, err error) {
		if err == nil || runCtx.Err() != nil {
			return
		}
		procLogger.Error(name+" server failed", logpkg.Err(err))
		errOnce.Do(func() { runErr = err })
		cancel()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		fail("grpc", gsrv.ListenAndServe(runCtx, opts.GRPCAddr))
	}()
	go func() {
		defer wg.Done()
		fail("http", hsrv.ListenAndServe(runCtx, opts.HTTPAddr))
	}()
	go func() {
		defer wg.Done()
		rt.RunRetention(runCtx)
	}()

	<-runCtx.Done()
	// Shut the servers down before the deferred runtime close.
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	procLogger.Info("auditlog server stopped")
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// redactedLogKeys never reach log output in clear text.
var redactedLogKeys = []string{"authorization", "token", "secret"}

// buildLogger applies cfg and falls back to an info-level text logger when
// cfg is invalid.
func buildLogger(cfg cfgpkg.Log) logpkg.Logger {
	l, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Level, Format: cfg.Format, RedactKeys: redactedLogKeys})
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	l = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	l.Warn("invalid log config, using defaults", logpkg.Err(err))
	return l
}
