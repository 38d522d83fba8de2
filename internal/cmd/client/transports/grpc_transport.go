// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"errors"
	"io"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
)

// GrpcTransport implements AuditTransport over gRPC.
type GrpcTransport struct {
	dial  func(ctx context.Context) (*grpc.ClientConn, error)
	creds Credentials
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error), creds Credentials) *GrpcTransport {
	return &GrpcTransport{dial: dial, creds: creds}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(ctx context.Context, cli auditlogv1.AuditLogClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(t.outgoing(ctx), auditlogv1.NewAuditLogClient(conn))
}

// outgoing attaches credentials as request metadata.
func (t *GrpcTransport) outgoing(ctx context.Context) context.Context {
	switch {
	case t.creds.Token != "":
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+t.creds.Token)
	case t.creds.Account != "" && t.creds.Header != "":
		return metadata.AppendToOutgoingContext(ctx, strings.ToLower(t.creds.Header), t.creds.Account)
	}
	return ctx
}

// Save appends one entry via gRPC.
func (t *GrpcTransport) Save(ctx context.Context, req auditlogv1.SaveRequest) (auditlogv1.SaveResponse, error) {
	var out auditlogv1.SaveResponse
	err := t.withClient(ctx, func(ctx context.Context, cli auditlogv1.AuditLogClient) error {
		resp, err := cli.Save(ctx, req.ToStruct())
		if err != nil {
			return err
		}
		out = auditlogv1.SaveResponseFromStruct(resp)
		return nil
	})
	return out, err
}

// Retrieve returns the entries of one key.
func (t *GrpcTransport) Retrieve(ctx context.Context, req auditlogv1.RetrieveRequest) (auditlogv1.RetrieveResponse, error) {
	var out auditlogv1.RetrieveResponse
	err := t.withClient(ctx, func(ctx context.Context, cli auditlogv1.AuditLogClient) error {
		resp, err := cli.Retrieve(ctx, req.ToStruct())
		if err != nil {
			return err
		}
		out, err = auditlogv1.RetrieveResponseFromStruct(resp)
		return err
	})
	return out, err
}

// Owner looks up the owner of logID.
func (t *GrpcTransport) Owner(ctx context.Context, logID []byte) (auditlogv1.OwnerResponse, error) {
	var out auditlogv1.OwnerResponse
	err := t.withClient(ctx, func(ctx context.Context, cli auditlogv1.AuditLogClient) error {
		resp, err := cli.Owner(ctx, auditlogv1.LogRequest{LogID: logID}.ToStruct())
		if err != nil {
			return err
		}
		out = auditlogv1.OwnerResponseFromStruct(resp)
		return nil
	})
	return out, err
}

// Periods lists the periods recorded under logID.
func (t *GrpcTransport) Periods(ctx context.Context, logID []byte) (auditlogv1.PeriodsResponse, error) {
	var out auditlogv1.PeriodsResponse
	err := t.withClient(ctx, func(ctx context.Context, cli auditlogv1.AuditLogClient) error {
		resp, err := cli.Periods(ctx, auditlogv1.LogRequest{LogID: logID}.ToStruct())
		if err != nil {
			return err
		}
		out, err = auditlogv1.PeriodsResponseFromStruct(resp)
		return err
	})
	return out, err
}

// Watch streams notifications and invokes onEvent for each.
func (t *GrpcTransport) Watch(ctx context.Context, req auditlogv1.WatchRequest, onEvent func(auditlogv1.Event) error) error {
	return t.withClient(ctx, func(ctx context.Context, cli auditlogv1.AuditLogClient) error {
		stream, err := cli.Watch(ctx, req.ToStruct())
		if err != nil {
			return err
		}
		for {
			m, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
					return nil
				}
				return err
			}
			ev, err := auditlogv1.EventFromStruct(m)
			if err != nil {
				return err
			}
			if cbErr := onEvent(ev); cbErr != nil {
				return cbErr
			}
		}
	})
}
