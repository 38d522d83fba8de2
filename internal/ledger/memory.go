package ledger

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/rzbill/auditlog/internal/audit"
)

// MemorySubstrate keeps the ledger in process memory. Writes made inside
// Update are staged and applied only when fn succeeds.
type MemorySubstrate struct {
	mu      sync.RWMutex
	entries map[string][]audit.Entry
	owners  map[string]audit.AccountID
	periods map[string]map[string]struct{}
	closed  bool
}

// NewMemorySubstrate returns an empty in-memory substrate.
func NewMemorySubstrate() *MemorySubstrate {
	return &MemorySubstrate{
		entries: map[string][]audit.Entry{},
		owners:  map[string]audit.AccountID{},
		periods: map[string]map[string]struct{}{},
	}
}

func (s *MemorySubstrate) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{s: s, writable: true, appends: map[string][]audit.Entry{}, owners: map[string]audit.AccountID{}}
	if err := fn(tx); err != nil {
		return err
	}
	for k, es := range tx.appends {
		s.entries[k] = append(s.entries[k], es...)
	}
	for k, o := range tx.owners {
		s.owners[k] = o
	}
	for _, p := range tx.newPeriods {
		set, ok := s.periods[p.logID]
		if !ok {
			set = map[string]struct{}{}
			s.periods[p.logID] = set
		}
		set[p.period] = struct{}{}
	}
	return nil
}

func (s *MemorySubstrate) View(ctx context.Context, fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memoryTx{s: s})
}

func (s *MemorySubstrate) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemorySubstrate) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type periodRef struct{ logID, period string }

type memoryTx struct {
	s          *MemorySubstrate
	writable   bool
	appends    map[string][]audit.Entry
	owners     map[string]audit.AccountID
	newPeriods []periodRef
}

func memKey(logID, period []byte) string {
	return string(keySequencePrefix(logID, period))
}

func (t *memoryTx) Get(logID, period []byte) ([]audit.Entry, error) {
	k := memKey(logID, period)
	base := t.s.entries[k]
	out := make([]audit.Entry, 0, len(base)+len(t.appends[k]))
	for _, e := range base {
		out = append(out, e.Clone())
	}
	for _, e := range t.appends[k] {
		out = append(out, e.Clone())
	}
	return out, nil
}

func (t *memoryTx) Append(logID, period []byte, e audit.Entry) error {
	if !t.writable {
		return ErrReadOnly
	}
	k := memKey(logID, period)
	if len(t.s.entries[k]) == 0 && len(t.appends[k]) == 0 {
		t.newPeriods = append(t.newPeriods, periodRef{logID: string(logID), period: string(period)})
	}
	t.appends[k] = append(t.appends[k], e.Clone())
	return nil
}

func (t *memoryTx) OwnerOf(logID []byte) (audit.AccountID, bool, error) {
	if o, ok := t.owners[string(logID)]; ok {
		return o, true, nil
	}
	o, ok := t.s.owners[string(logID)]
	return o, ok, nil
}

func (t *memoryTx) Claim(logID []byte, owner audit.AccountID) (bool, error) {
	if !t.writable {
		return false, ErrReadOnly
	}
	if _, ok, _ := t.OwnerOf(logID); ok {
		return false, nil
	}
	t.owners[string(logID)] = owner
	return true, nil
}

func (t *memoryTx) Periods(logID []byte) ([][]byte, error) {
	seen := map[string]struct{}{}
	for p := range t.s.periods[string(logID)] {
		seen[p] = struct{}{}
	}
	for _, p := range t.newPeriods {
		if p.logID == string(logID) {
			seen[p.period] = struct{}{}
		}
	}
	out := make([][]byte, 0, len(seen))
	for p := range seen {
		out = append(out, []byte(p))
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out, nil
}

func (t *memoryTx) Len(logID, period []byte) (uint64, error) {
	k := memKey(logID, period)
	return uint64(len(t.s.entries[k]) + len(t.appends[k])), nil
}
