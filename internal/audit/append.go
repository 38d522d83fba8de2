package audit

import "fmt"

// Request carries the caller-supplied fields of one append.
type Request struct {
	LogID     []byte
	Period    []byte
	Title     []byte
	Content   []byte
	Timestamp []byte
}

// Outcome names the terminal success state of Save.
type Outcome int

const (
	// OutcomeCreated: the log id had no owner; the caller claimed it and the
	// first entry was written.
	OutcomeCreated Outcome = iota + 1
	// OutcomeExtended: the caller already owned the log id and the entry was
	// appended under the given period.
	OutcomeExtended
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// Save appends one entry on behalf of caller.
//
// Ownership is scoped to the log id: the first writer of a log id becomes its
// owner for every period, and anyone else is rejected with ErrUnauthorized
// before any mutation. On success exactly one entry is appended and, when
// sink is non-nil, exactly one Event is raised.
func Save(store LogStore, owners OwnerRegistry, sink EventSink, caller AccountID, req Request) (Outcome, error) {
	if caller == "" {
		return 0, ErrNoCaller
	}

	owner, ok, err := owners.OwnerOf(req.LogID)
	if err != nil {
		return 0, fmt.Errorf("audit: lookup owner: %w", err)
	}

	outcome := OutcomeExtended
	if !ok {
		claimed, err := owners.Claim(req.LogID, caller)
		if err != nil {
			return 0, fmt.Errorf("audit: claim owner: %w", err)
		}
		if claimed {
			outcome = OutcomeCreated
		} else {
			// lost the claim; whoever won decides
			owner, ok, err = owners.OwnerOf(req.LogID)
			if err != nil {
				return 0, fmt.Errorf("audit: lookup owner: %w", err)
			}
			if !ok || owner != caller {
				return 0, ErrUnauthorized
			}
		}
	} else if owner != caller {
		return 0, ErrUnauthorized
	}

	entry := Entry{
		Title:     req.Title,
		Content:   req.Content,
		Timestamp: req.Timestamp,
		Reporter:  caller,
	}.Clone()
	if err := store.Append(req.LogID, req.Period, entry); err != nil {
		return 0, fmt.Errorf("audit: append entry: %w", err)
	}

	if sink != nil {
		sink.AuditLogStored(Event{
			LogID:    cloneBytes(req.LogID),
			Period:   cloneBytes(req.Period),
			Reporter: caller,
			Outcome:  outcome,
		})
	}
	return outcome, nil
}
