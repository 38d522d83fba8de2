package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/rzbill/auditlog/internal/audit"
	pebblestore "github.com/rzbill/auditlog/internal/storage/pebble"
)

// pebbleReader is satisfied by both *pebble.Batch (indexed) and *pebble.Snapshot.
type pebbleReader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

// PebbleSubstrate stores the ledger in a Pebble database.
type PebbleSubstrate struct {
	db *pebblestore.DB
	// mu serializes Update; the core itself never locks.
	mu     sync.Mutex
	closed bool
}

// NewPebbleSubstrate uses db for storage. The caller keeps ownership of db.
func NewPebbleSubstrate(db *pebblestore.DB) *PebbleSubstrate {
	return &PebbleSubstrate{db: db}
}

func (s *PebbleSubstrate) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b := s.db.NewIndexedBatch()
	defer b.Close()
	if err := fn(&pebbleTx{r: b, w: b}); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}
	return s.db.CommitBatch(ctx, b)
}

func (s *PebbleSubstrate) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.db.NewSnapshot()
	defer snap.Close()
	return fn(&pebbleTx{r: snap})
}

func (s *PebbleSubstrate) Ping(ctx context.Context) error {
	it, err := s.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Close marks the substrate closed. The underlying DB is closed by its owner.
func (s *PebbleSubstrate) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type pebbleTx struct {
	r pebbleReader
	w *pebble.Batch // nil in View
}

func (t *pebbleTx) get(key []byte) ([]byte, bool, error) {
	v, closer, err := t.r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

func (t *pebbleTx) lastSeq(logID, period []byte) (uint64, error) {
	meta, ok, err := t.get(KeySequenceMeta(logID, period))
	if err != nil || !ok {
		return 0, err
	}
	if len(meta) < 8 {
		return 0, fmt.Errorf("ledger: short sequence metadata (%d bytes)", len(meta))
	}
	return binary.BigEndian.Uint64(meta[:8]), nil
}

func (t *pebbleTx) Get(logID, period []byte) ([]audit.Entry, error) {
	prefix := keyEntryPrefix(logID, period)
	iter, err := t.r.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: pebblestore.PrefixUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	entries := []audit.Entry{}
	for valid := iter.First(); valid; valid = iter.Next() {
		e, err := DecodeEntry(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%w at key %x", err, iter.Key())
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (t *pebbleTx) Append(logID, period []byte, e audit.Entry) error {
	if t.w == nil {
		return ErrReadOnly
	}
	last, err := t.lastSeq(logID, period)
	if err != nil {
		return err
	}
	seq := last + 1
	if err := t.w.Set(KeyEntry(logID, period, seq), EncodeEntry(e), nil); err != nil {
		return err
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], seq)
	if err := t.w.Set(KeySequenceMeta(logID, period), meta[:], nil); err != nil {
		return err
	}
	if seq == 1 {
		return t.w.Set(KeyPeriod(logID, period), nil, nil)
	}
	return nil
}

func (t *pebbleTx) OwnerOf(logID []byte) (audit.AccountID, bool, error) {
	v, ok, err := t.get(KeyOwner(logID))
	if err != nil || !ok {
		return "", false, err
	}
	return audit.AccountID(v), true, nil
}

func (t *pebbleTx) Claim(logID []byte, owner audit.AccountID) (bool, error) {
	if t.w == nil {
		return false, ErrReadOnly
	}
	_, ok, err := t.OwnerOf(logID)
	if err != nil || ok {
		return false, err
	}
	if err := t.w.Set(KeyOwner(logID), []byte(owner), nil); err != nil {
		return false, err
	}
	return true, nil
}

func (t *pebbleTx) Periods(logID []byte) ([][]byte, error) {
	prefix := keyPeriodPrefix(logID)
	iter, err := t.r.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: pebblestore.PrefixUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	out := [][]byte{}
	for valid := iter.First(); valid; valid = iter.Next() {
		out = append(out, append([]byte{}, iter.Key()[len(prefix):]...))
	}
	return out, iter.Error()
}

func (t *pebbleTx) Len(logID, period []byte) (uint64, error) {
	return t.lastSeq(logID, period)
}
