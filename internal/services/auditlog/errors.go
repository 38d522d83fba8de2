package auditsvc

import "errors"

var (
	// ErrTooLarge is returned when a request exceeds a configured limit.
	ErrTooLarge = errors.New("request exceeds configured limit")
	// ErrInvalidFilter is returned when a retrieve filter fails to compile.
	ErrInvalidFilter = errors.New("invalid filter expression")
	// ErrNoEvents is returned by Watch when no notification log is configured.
	ErrNoEvents = errors.New("notification log not configured")
)
