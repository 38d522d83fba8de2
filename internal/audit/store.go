package audit

// LogStore maps (logID, period) to an ordered entry sequence.
type LogStore interface {
	// Get returns the sequence in append order. An absent key yields an
	// empty slice and a nil error.
	Get(logID, period []byte) ([]Entry, error)
	// Append creates the sequence on first use and extends it afterwards.
	Append(logID, period []byte, e Entry) error
}

// OwnerRegistry maps a log id to the account that first wrote to it.
type OwnerRegistry interface {
	OwnerOf(logID []byte) (AccountID, bool, error)
	// Claim records owner when logID has none and reports whether it did.
	// An existing owner is never overwritten.
	Claim(logID []byte, owner AccountID) (bool, error)
}

// EventSink receives one notification per successful append.
type EventSink interface {
	AuditLogStored(ev Event)
}

// Event is the notification raised after a successful append.
type Event struct {
	LogID    []byte
	Period   []byte
	Reporter AccountID
	Outcome  Outcome
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) AuditLogStored(ev Event) { f(ev) }
