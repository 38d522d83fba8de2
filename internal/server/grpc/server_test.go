package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
	"github.com/rzbill/auditlog/internal/auth"
	cfgpkg "github.com/rzbill/auditlog/internal/config"
	"github.com/rzbill/auditlog/internal/runtime"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

const bufSize = 1 << 20

func dialer(s *grpc.Server) func(context.Context, string) (net.Conn, error) {
	lis := bufconn.Listen(bufSize)
	go func() { _ = s.Serve(lis) }()
	return func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
}

func startServer(t *testing.T, mutate func(*cfgpkg.Config)) *grpc.ClientConn {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = "memory"
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	authn, err := auth.New(cfg.Auth)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	srv := New(rt, auditsvc.FromRuntime(rt, logger), authn, logger)
	d := dialer(srv.grpc)
	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(d), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Close()
		_ = rt.Close()
	})
	return conn
}

func as(ctx context.Context, account string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "x-audit-account", account)
}

func save(ctx context.Context, c auditlogv1.AuditLogClient, logID, period, title string) (auditlogv1.SaveResponse, error) {
	out, err := c.Save(ctx, auditlogv1.SaveRequest{
		LogID: []byte(logID), Period: []byte(period), Title: []byte(title), Content: []byte("c"), Timestamp: []byte("1"),
	}.ToStruct())
	if err != nil {
		return auditlogv1.SaveResponse{}, err
	}
	return auditlogv1.SaveResponseFromStruct(out), nil
}

func TestHealthOverGRPC(t *testing.T) {
	conn := startServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status: %v", res.GetStatus())
	}
	_, err = healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: "nope"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("unknown service: %v", err)
	}
}

func TestSaveRetrieveOverGRPC(t *testing.T) {
	conn := startServer(t, nil)
	c := auditlogv1.NewAuditLogClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := save(as(ctx, "alice"), c, "L", "2024-01", "first")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Outcome != "created" || res.EventID == "" {
		t.Fatalf("unexpected %+v", res)
	}
	if res, err = save(as(ctx, "alice"), c, "L", "2024-02", "second"); err != nil || res.Outcome != "extended" {
		t.Fatalf("extend: %+v %v", res, err)
	}

	out, err := c.Retrieve(ctx, auditlogv1.RetrieveRequest{LogID: []byte("L"), Period: []byte("2024-01")}.ToStruct())
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	got, err := auditlogv1.RetrieveResponseFromStruct(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Entries) != 1 || string(got.Entries[0].Title) != "first" || got.Entries[0].Reporter != "alice" {
		t.Fatalf("entries: %+v", got.Entries)
	}

	out, err = c.Owner(ctx, auditlogv1.LogRequest{LogID: []byte("L")}.ToStruct())
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if o := auditlogv1.OwnerResponseFromStruct(out); !o.Owned || o.Owner != "alice" {
		t.Fatalf("owner: %+v", o)
	}

	out, err = c.Periods(ctx, auditlogv1.LogRequest{LogID: []byte("L")}.ToStruct())
	if err != nil {
		t.Fatalf("periods: %v", err)
	}
	p, err := auditlogv1.PeriodsResponseFromStruct(out)
	if err != nil || len(p.Periods) != 2 || string(p.Periods[0]) != "2024-01" {
		t.Fatalf("periods: %+v %v", p, err)
	}
}

func TestErrorCodesOverGRPC(t *testing.T) {
	conn := startServer(t, func(c *cfgpkg.Config) { c.Limits.MaxTitleBytes = 4 })
	c := auditlogv1.NewAuditLogClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := save(as(ctx, "alice"), c, "L", "P", "t"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"anonymous save", func() error { _, err := save(ctx, c, "L2", "P", "t"); return err }, codes.Unauthenticated},
		{"non owner", func() error { _, err := save(as(ctx, "bob"), c, "L", "P", "t"); return err }, codes.PermissionDenied},
		{"too large", func() error { _, err := save(as(ctx, "alice"), c, "L", "P", "too long"); return err }, codes.ResourceExhausted},
		{"bad filter", func() error {
			_, err := c.Retrieve(ctx, auditlogv1.RetrieveRequest{LogID: []byte("L"), Period: []byte("P"), Filter: "index +"}.ToStruct())
			return err
		}, codes.InvalidArgument},
		{"malformed request", func() error {
			_, err := c.Retrieve(ctx, &structpb.Struct{})
			return err
		}, codes.InvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.Code(tc.call()); got != tc.want {
				t.Fatalf("code: got %v want %v", got, tc.want)
			}
		})
	}
}

func TestInvalidTokenOverGRPC(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	conn := startServer(t, func(c *cfgpkg.Config) {
		c.Auth.Mode = cfgpkg.AuthModeJWT
		c.Auth.Secret = secret
	})
	c := auditlogv1.NewAuditLogClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bad := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer nope")
	if _, err := save(bad, c, "L", "P", "t"); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("invalid token: %v", err)
	}
	tok, err := auth.IssueToken(secret, "auditlog", "carol", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	good := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
	if res, err := save(good, c, "L", "P", "t"); err != nil || res.Outcome != "created" {
		t.Fatalf("valid token: %+v %v", res, err)
	}
}

func TestWatchOverGRPC(t *testing.T) {
	conn := startServer(t, nil)
	c := auditlogv1.NewAuditLogClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := save(as(ctx, "alice"), c, "L", "P", "one"); err != nil {
		t.Fatalf("save: %v", err)
	}
	stream, err := c.Watch(ctx, auditlogv1.WatchRequest{}.ToStruct())
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	first, err := stream.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	ev, err := auditlogv1.EventFromStruct(first)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Seq != 1 || string(ev.LogID) != "L" || ev.Reporter != "alice" || ev.Outcome != "created" {
		t.Fatalf("event: %+v", ev)
	}

	// a rejected save publishes nothing; the next delivered event is the
	// owner's second append
	if _, err := save(as(ctx, "bob"), c, "L", "P", "x"); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("bob: %v", err)
	}
	if _, err := save(as(ctx, "alice"), c, "L", "Q", "two"); err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := stream.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	ev, err = auditlogv1.EventFromStruct(second)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Seq != 2 || string(ev.Period) != "Q" || ev.Outcome != "extended" {
		t.Fatalf("event: %+v", ev)
	}
}
