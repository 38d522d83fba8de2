package audit

import "errors"

var (
	// ErrUnauthorized is returned when the caller does not own the log id.
	ErrUnauthorized = errors.New("audit: caller is not the owner of this log id")
	// ErrNoCaller is returned when no authenticated caller identity was supplied.
	ErrNoCaller = errors.New("audit: missing caller identity")
)
