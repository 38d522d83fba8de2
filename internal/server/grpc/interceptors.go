package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rzbill/auditlog/internal/auth"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// metadataGetter reads the first value of a metadata key.
func metadataGetter(ctx context.Context) auth.Getter {
	md, _ := metadata.FromIncomingContext(ctx)
	return func(name string) string {
		if v := md.Get(strings.ToLower(name)); len(v) > 0 {
			return v[0]
		}
		return ""
	}
}

// authenticate attaches the caller to ctx. Missing credentials leave the
// call anonymous; rejected ones fail with Unauthenticated.
func authenticate(ctx context.Context, a auth.Authenticator) (context.Context, error) {
	if a == nil {
		return ctx, nil
	}
	account, err := a.Authenticate(metadataGetter(ctx))
	switch {
	case errors.Is(err, auth.ErrNoCredentials):
		return ctx, nil
	case err != nil:
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	ctx = auth.WithAccount(ctx, account)
	return logpkg.ContextWith(ctx, logpkg.CallerIDKey, string(account)), nil
}

func unaryInterceptor(a auth.Authenticator, logger logpkg.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		ctx, err := authenticate(ctx, a)
		if err != nil {
			return nil, err
		}
		resp, err := handler(ctx, req)
		err = toStatus(err)
		logCall(logger.WithContext(ctx), info.FullMethod, start, err)
		return resp, err
	}
}

// authStream overrides the stream context with the authenticated one.
type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context { return s.ctx }

func streamInterceptor(a auth.Authenticator, logger logpkg.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx, err := authenticate(ss.Context(), a)
		if err != nil {
			return err
		}
		err = toStatus(handler(srv, &authStream{ServerStream: ss, ctx: ctx}))
		logCall(logger.WithContext(ctx), info.FullMethod, start, err)
		return err
	}
}

func logCall(l logpkg.Logger, method string, start time.Time, err error) {
	l = l.With(logpkg.Str("method", method), logpkg.Duration("took", time.Since(start)))
	switch status.Code(err) {
	case codes.OK, codes.Canceled:
		l.Debug("grpc call")
	case codes.Internal, codes.Unknown, codes.Unavailable:
		l.Warn("grpc call failed", logpkg.Err(err))
	default:
		l.Debug("grpc call rejected", logpkg.Err(err))
	}
}
