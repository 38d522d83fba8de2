package eventlog

import (
	"encoding/binary"
	"errors"

	pebblestore "github.com/rzbill/auditlog/internal/storage/pebble"
)

// CommitCursor stores the last processed token for group idempotently.
// If the provided token is not past the stored one, the commit is ignored.
func (l *Log) CommitCursor(group string, tok Token) error {
	if group == "" {
		return errors.New("eventlog: cursor group is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := KeyCursor(l.topic, group)
	cur, err := l.db.Get(key)
	switch {
	case errors.Is(err, pebblestore.ErrNotFound):
	case err != nil:
		return err
	case len(cur) >= 8 && tok.Seq() <= binary.BigEndian.Uint64(cur[:8]):
		return nil
	}
	return l.db.Set(key, tok[:])
}

// GetCursor loads the committed token for group.
func (l *Log) GetCursor(group string) (Token, bool) {
	cur, err := l.db.Get(KeyCursor(l.topic, group))
	if err != nil || len(cur) < 8 {
		return Token{}, false
	}
	var t Token
	copy(t[:], cur[:8])
	return t, true
}
