package audit

import "fmt"

// Retrieve returns the full history for (logID, period). No authorization is
// applied: any caller may read any key.
func Retrieve(store LogStore, logID, period []byte) ([]Entry, error) {
	entries, err := store.Get(logID, period)
	if err != nil {
		return nil, fmt.Errorf("audit: get entries: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// OwnerOf reports the recorded owner of logID. Like Retrieve it is open to
// every caller.
func OwnerOf(owners OwnerRegistry, logID []byte) (AccountID, bool, error) {
	owner, ok, err := owners.OwnerOf(logID)
	if err != nil {
		return "", false, fmt.Errorf("audit: lookup owner: %w", err)
	}
	return owner, ok, nil
}
