package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
	"github.com/rzbill/auditlog/internal/audit"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
)

// toStatus maps service errors onto gRPC codes. Errors that already carry a
// status pass through; unknown failures are reported without detail.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, audit.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, audit.ErrUnauthorized.Error())
	case errors.Is(err, audit.ErrNoCaller):
		return status.Error(codes.Unauthenticated, audit.ErrNoCaller.Error())
	case errors.Is(err, auditsvc.ErrTooLarge):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, auditsvc.ErrInvalidFilter), errors.Is(err, auditlogv1.ErrBadMessage):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, auditsvc.ErrNoEvents):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
