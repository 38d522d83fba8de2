package audit

// AccountID identifies an already-authenticated caller.
type AccountID string

// Entry is one immutable audit record.
type Entry struct {
	Title     []byte
	Content   []byte
	Timestamp []byte // caller supplied, never parsed
	Reporter  AccountID
}

// Key addresses one ordered entry sequence.
type Key struct {
	LogID  []byte
	Period []byte
}

// Clone returns a deep copy so stored bytes never alias caller buffers.
func (e Entry) Clone() Entry {
	return Entry{
		Title:     cloneBytes(e.Title),
		Content:   cloneBytes(e.Content),
		Timestamp: cloneBytes(e.Timestamp),
		Reporter:  e.Reporter,
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return append([]byte(nil), b...)
}
