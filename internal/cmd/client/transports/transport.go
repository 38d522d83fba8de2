package transports

import (
	"context"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
)

// Credentials identify the CLI caller. Token wins over Account.
type Credentials struct {
	// Token is an HS256 bearer token.
	Token string
	// Account is sent in Header for servers running header auth.
	Account string
	Header  string
}

// AuditTransport abstracts the transport used by the CLI.
type AuditTransport interface {
	Save(ctx context.Context, req auditlogv1.SaveRequest) (auditlogv1.SaveResponse, error)
	Retrieve(ctx context.Context, req auditlogv1.RetrieveRequest) (auditlogv1.RetrieveResponse, error)
	Owner(ctx context.Context, logID []byte) (auditlogv1.OwnerResponse, error)
	Periods(ctx context.Context, logID []byte) (auditlogv1.PeriodsResponse, error)
	// Watch streams events until ctx is done, the server closes the stream
	// or onEvent fails.
	Watch(ctx context.Context, req auditlogv1.WatchRequest, onEvent func(auditlogv1.Event) error) error
}
