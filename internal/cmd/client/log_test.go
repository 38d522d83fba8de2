package client

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
	"github.com/rzbill/auditlog/internal/auth"
)

type auditStub struct {
	auditlogv1.UnimplementedAuditLogServer
	mu       sync.Mutex
	md       metadata.MD
	saved    []auditlogv1.SaveRequest
	entries  []auditlogv1.Entry
	events   int
	saveErr  error
	lastWReq auditlogv1.WatchRequest
}

func (s *auditStub) Save(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.md, _ = metadata.FromIncomingContext(ctx)
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	req, err := auditlogv1.SaveRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.saved = append(s.saved, req)
	return auditlogv1.SaveResponse{Outcome: "created", EventID: "ev-1"}.ToStruct(), nil
}

func (s *auditStub) Retrieve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return auditlogv1.RetrieveResponse{Entries: s.entries}.ToStruct(), nil
}

func (s *auditStub) Owner(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return auditlogv1.OwnerResponse{Owner: "alice", Owned: true}.ToStruct(), nil
}

func (s *auditStub) Periods(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return auditlogv1.PeriodsResponse{Periods: [][]byte{[]byte("2024-01"), []byte("2024-02")}}.ToStruct(), nil
}

func (s *auditStub) Watch(in *structpb.Struct, stream auditlogv1.AuditLog_WatchServer) error {
	req, err := auditlogv1.WatchRequestFromStruct(in)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastWReq = req
	s.mu.Unlock()
	for i := 0; i < s.events; i++ {
		ev := auditlogv1.Event{ID: "e", Seq: req.After + uint64(i) + 1, LogID: []byte("L"), Period: []byte("P"), Reporter: "alice", Outcome: "created", AtMs: 1700000000000}
		if err := stream.Send(ev.ToStruct()); err != nil {
			return err
		}
	}
	return nil
}

func startGRPCStub(t *testing.T, svc auditlogv1.AuditLogServer) (addr string, stop func()) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	gs := grpc.NewServer()
	auditlogv1.RegisterAuditLogServer(gs, svc)
	done := make(chan struct{})
	go func() {
		_ = gs.Serve(l)
		close(done)
	}()
	stop = func() {
		gs.GracefulStop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			gs.Stop()
		}
	}
	return l.Addr().String(), stop
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRoot()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestLogSaveSendsAccountHeader(t *testing.T) {
	stub := &auditStub{}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("AUDITLOG_GRPC", addr)

	out, err := runCLI(t, "log", "save", "--account", "alice", "--log-id", "L", "--period", "P", "--title", "t", "--content", "c", "--timestamp", "1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, `"outcome":"created"`) {
		t.Fatalf("expected outcome in output, got: %s", out)
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if got := stub.md.Get("x-audit-account"); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("account metadata: %v", got)
	}
	if len(stub.saved) != 1 || string(stub.saved[0].LogID) != "L" || string(stub.saved[0].Timestamp) != "1" {
		t.Fatalf("saved: %+v", stub.saved)
	}
}

func TestLogSaveSendsBearerToken(t *testing.T) {
	stub := &auditStub{}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("AUDITLOG_GRPC", addr)

	if _, err := runCLI(t, "log", "save", "--token", "abc", "--account", "ignored", "--log-id", "TA==", "--period", "UA==", "--encoding", "base64", "--title", "dA==", "--content", "", "--timestamp", "MQ=="); err != nil {
		t.Fatalf("execute: %v", err)
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if got := stub.md.Get("authorization"); len(got) != 1 || got[0] != "Bearer abc" {
		t.Fatalf("authorization metadata: %v", got)
	}
	if len(stub.md.Get("x-audit-account")) != 0 {
		t.Fatalf("token must take precedence over account")
	}
	if len(stub.saved) != 1 {
		t.Fatalf("saved: %+v", stub.saved)
	}
	got := stub.saved[0]
	if string(got.LogID) != "L" || string(got.Period) != "P" || string(got.Title) != "t" || string(got.Timestamp) != "1" {
		t.Fatalf("fields not base64-decoded: %+v", got)
	}
}

func TestLogSaveSurfacesRejection(t *testing.T) {
	stub := &auditStub{saveErr: status.Error(codes.PermissionDenied, "caller does not own log")}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("AUDITLOG_GRPC", addr)

	_, err := runCLI(t, "log", "save", "--account", "bob", "--log-id", "L", "--period", "P")
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestLogGetPrintsEntries(t *testing.T) {
	stub := &auditStub{entries: []auditlogv1.Entry{
		{Index: 0, Title: []byte("login"), Content: []byte("{}"), Timestamp: []byte("1"), Reporter: "alice"},
		{Index: 1, Title: []byte("blob"), Content: []byte{0xff, 0xfe}, Timestamp: []byte("2"), Reporter: "alice"},
	}}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("AUDITLOG_GRPC", addr)

	out, err := runCLI(t, "log", "get", "--log-id", "L", "--period", "P")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 output lines, got %d: %s", len(lines), out)
	}
	if !strings.Contains(lines[0], `"title":"login"`) || !strings.Contains(lines[1], `"content_b64":"//4="`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestLogGetRaw(t *testing.T) {
	stub := &auditStub{entries: []auditlogv1.Entry{{Title: []byte("x"), Content: []byte{}, Timestamp: []byte{}, Reporter: "alice"}}}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("AUDITLOG_GRPC", addr)

	out, err := runCLI(t, "log", "get", "--raw", "--log-id", "L", "--period", "P")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var wire structpb.Struct
	if err := protojson.Unmarshal([]byte(strings.TrimSpace(out)), &wire); err != nil {
		t.Fatalf("output is not protojson: %v: %s", err, out)
	}
	res, err := auditlogv1.RetrieveResponseFromStruct(&wire)
	if err != nil || len(res.Entries) != 1 || string(res.Entries[0].Title) != "x" {
		t.Fatalf("decoded: %+v %v", res, err)
	}
}

func TestLogOwnerAndPeriods(t *testing.T) {
	addr, stop := startGRPCStub(t, &auditStub{})
	defer stop()
	t.Setenv("AUDITLOG_GRPC", addr)

	out, err := runCLI(t, "log", "owner", "--log-id", "L")
	if err != nil || !strings.Contains(out, `"owner":"alice"`) {
		t.Fatalf("owner: %v %s", err, out)
	}
	out, err = runCLI(t, "log", "periods", "--log-id", "L")
	if err != nil || out != "2024-01\n2024-02\n" {
		t.Fatalf("periods: %v %q", err, out)
	}
}

func TestLogWatchStopsAtLimit(t *testing.T) {
	stub := &auditStub{events: 3}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("AUDITLOG_GRPC", addr)

	out, err := runCLI(t, "log", "watch", "--after", "5", "--group", "ops", "--limit", "2")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"seq":6`) {
		t.Fatalf("unexpected output: %s", out)
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.lastWReq.After != 5 || stub.lastWReq.Group != "ops" {
		t.Fatalf("watch request: %+v", stub.lastWReq)
	}
}

func TestLogWatchBadSince(t *testing.T) {
	if _, err := runCLI(t, "log", "watch", "--since", "yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTokenIssue(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	out, err := runCLI(t, "token", "issue", "--subject", "alice", "--secret", secret, "--ttl", "5m")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	v, err := auth.NewVerifier(secret, "auditlog")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	account, err := v.Verify(strings.TrimSpace(out))
	if err != nil || account != "alice" {
		t.Fatalf("verify: %q %v", account, err)
	}
	if _, err := runCLI(t, "token", "issue", "--subject", "alice", "--secret", ""); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestDecodeArg(t *testing.T) {
	if b, err := decodeArg("x", "aGk=", "base64"); err != nil || string(b) != "hi" {
		t.Fatalf("base64: %q %v", b, err)
	}
	if _, err := decodeArg("x", "%%", "base64"); err == nil {
		t.Fatalf("expected base64 error")
	}
	if _, err := decodeArg("x", "v", "hex"); err == nil {
		t.Fatalf("expected encoding error")
	}
}
