package notify

import (
	"encoding/json"
	"fmt"

	"github.com/rzbill/auditlog/internal/audit"
	"github.com/rzbill/auditlog/pkg/id"
)

// Event is the durable form of audit.Event.
type Event struct {
	ID       id.ID           `json:"id"`
	Seq      uint64          `json:"seq,omitempty"`
	LogID    []byte          `json:"logId"`
	Period   []byte          `json:"period"`
	Reporter audit.AccountID `json:"reporter"`
	Outcome  string          `json:"outcome"`
	AtMs     int64           `json:"atMs"`
}

// FromAudit stamps ev with eventID, whose timestamp becomes AtMs.
func FromAudit(eventID id.ID, ev audit.Event) Event {
	return Event{
		ID:       eventID,
		LogID:    ev.LogID,
		Period:   ev.Period,
		Reporter: ev.Reporter,
		Outcome:  ev.Outcome.String(),
		AtMs:     eventID.Ms(),
	}
}

// Marshal encodes e as the eventlog payload.
func (e Event) Marshal() ([]byte, error) { return json.Marshal(e) }

// Unmarshal decodes a payload written by Marshal.
func Unmarshal(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("notify: decode event: %w", err)
	}
	return e, nil
}
