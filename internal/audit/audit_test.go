package audit

import (
	"errors"
	"testing"
)

// mapStore is an in-memory LogStore + OwnerRegistry for exercising the core.
type mapStore struct {
	entries map[string][]Entry
	owners  map[string]AccountID
	failGet error
	failApp error
}

func newMapStore() *mapStore {
	return &mapStore{entries: map[string][]Entry{}, owners: map[string]AccountID{}}
}

func mkey(logID, period []byte) string {
	return string(logID) + "\x00" + string(period)
}

func (m *mapStore) Get(logID, period []byte) ([]Entry, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	return append([]Entry(nil), m.entries[mkey(logID, period)]...), nil
}

func (m *mapStore) Append(logID, period []byte, e Entry) error {
	if m.failApp != nil {
		return m.failApp
	}
	k := mkey(logID, period)
	m.entries[k] = append(m.entries[k], e)
	return nil
}

func (m *mapStore) OwnerOf(logID []byte) (AccountID, bool, error) {
	o, ok := m.owners[string(logID)]
	return o, ok, nil
}

func (m *mapStore) Claim(logID []byte, owner AccountID) (bool, error) {
	if _, ok := m.owners[string(logID)]; ok {
		return false, nil
	}
	m.owners[string(logID)] = owner
	return true, nil
}

type recordingSink struct{ events []Event }

func (r *recordingSink) AuditLogStored(ev Event) { r.events = append(r.events, ev) }

func req(logID, period, title string) Request {
	return Request{
		LogID:     []byte(logID),
		Period:    []byte(period),
		Title:     []byte(title),
		Content:   []byte("transaction with id 123 is processed"),
		Timestamp: []byte("2021-10-08 17:30:00 UTC"),
	}
}

func TestSaveOneItem(t *testing.T) {
	s := newMapStore()
	sink := &recordingSink{}
	out, err := Save(s, s, sink, "1", req("log-file-name", "2021-10-08", "log-title"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if out != OutcomeCreated {
		t.Fatalf("outcome = %v, want created", out)
	}
	got, err := Retrieve(s, []byte("log-file-name"), []byte("2021-10-08"))
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	e := got[0]
	if string(e.Title) != "log-title" || string(e.Content) != "transaction with id 123 is processed" ||
		string(e.Timestamp) != "2021-10-08 17:30:00 UTC" || e.Reporter != "1" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if owner, ok, _ := OwnerOf(s, []byte("log-file-name")); !ok || owner != "1" {
		t.Fatalf("owner = %q/%v, want 1", owner, ok)
	}
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if string(ev.LogID) != "log-file-name" || string(ev.Period) != "2021-10-08" || ev.Reporter != "1" || ev.Outcome != OutcomeCreated {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestSaveTwoItemsKeepsOrder(t *testing.T) {
	s := newMapStore()
	if _, err := Save(s, s, nil, "1", req("log-file-name", "2021-10-08", "first")); err != nil {
		t.Fatalf("save1: %v", err)
	}
	out, err := Save(s, s, nil, "1", req("log-file-name", "2021-10-08", "second"))
	if err != nil {
		t.Fatalf("save2: %v", err)
	}
	if out != OutcomeExtended {
		t.Fatalf("outcome = %v, want extended", out)
	}
	got, _ := Retrieve(s, []byte("log-file-name"), []byte("2021-10-08"))
	if len(got) != 2 || string(got[0].Title) != "first" || string(got[1].Title) != "second" {
		t.Fatalf("unexpected sequence: %+v", got)
	}
}

func TestSaveIdenticalEntriesNotDeduplicated(t *testing.T) {
	s := newMapStore()
	for i := 0; i < 3; i++ {
		if _, err := Save(s, s, nil, "1", req("L", "p", "same")); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	got, _ := Retrieve(s, []byte("L"), []byte("p"))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestSaveDifferentKeysIndependent(t *testing.T) {
	s := newMapStore()
	if _, err := Save(s, s, nil, "1", req("log-file-name", "2021-10-08", "a")); err != nil {
		t.Fatalf("save1: %v", err)
	}
	if _, err := Save(s, s, nil, "1", req("different-file-name", "2021-10-08", "b")); err != nil {
		t.Fatalf("save2: %v", err)
	}
	for _, id := range []string{"log-file-name", "different-file-name"} {
		got, _ := Retrieve(s, []byte(id), []byte("2021-10-08"))
		if len(got) != 1 {
			t.Fatalf("%s: len = %d, want 1", id, len(got))
		}
	}
}

func TestOwnerSpansPeriods(t *testing.T) {
	s := newMapStore()
	sink := &recordingSink{}
	if _, err := Save(s, s, sink, "O", req("L", "p1", "a")); err != nil {
		t.Fatalf("save p1: %v", err)
	}
	out, err := Save(s, s, sink, "O", req("L", "p2", "b"))
	if err != nil {
		t.Fatalf("save p2: %v", err)
	}
	if out != OutcomeExtended {
		t.Fatalf("outcome = %v, want extended", out)
	}
	for _, p := range []string{"p1", "p2"} {
		got, _ := Retrieve(s, []byte("L"), []byte(p))
		if len(got) != 1 {
			t.Fatalf("%s: len = %d", p, len(got))
		}
	}
	if len(s.owners) != 1 {
		t.Fatalf("expected one owner record, got %d", len(s.owners))
	}
}

func TestNonOwnerRejected(t *testing.T) {
	tests := []struct {
		name   string
		period string
	}{
		{name: "existing period", period: "p1"},
		{name: "new period", period: "p2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMapStore()
			sink := &recordingSink{}
			if _, err := Save(s, s, sink, "1", req("L", "p1", "a")); err != nil {
				t.Fatalf("save: %v", err)
			}
			_, err := Save(s, s, sink, "2", req("L", tt.period, "intruder"))
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
			got, _ := Retrieve(s, []byte("L"), []byte("p1"))
			if len(got) != 1 || string(got[0].Title) != "a" {
				t.Fatalf("sequence mutated: %+v", got)
			}
			got, _ = Retrieve(s, []byte("L"), []byte("p2"))
			if len(got) != 0 {
				t.Fatalf("p2 should stay empty: %+v", got)
			}
			if owner, _, _ := OwnerOf(s, []byte("L")); owner != "1" {
				t.Fatalf("owner changed to %q", owner)
			}
			if len(sink.events) != 1 {
				t.Fatalf("rejected append must not emit, events = %d", len(sink.events))
			}
		})
	}
}

func TestRetrieveAbsentKeyIsEmpty(t *testing.T) {
	s := newMapStore()
	got, err := Retrieve(s, []byte("nope"), []byte("never"))
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestSaveRequiresCaller(t *testing.T) {
	s := newMapStore()
	if _, err := Save(s, s, nil, "", req("L", "p", "a")); !errors.Is(err, ErrNoCaller) {
		t.Fatalf("err = %v, want ErrNoCaller", err)
	}
	if len(s.owners) != 0 {
		t.Fatalf("no owner should be claimed")
	}
}

func TestSaveStorageErrorWrapped(t *testing.T) {
	s := newMapStore()
	boom := errors.New("disk full")
	s.failApp = boom
	sink := &recordingSink{}
	_, err := Save(s, s, sink, "1", req("L", "p", "a"))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped disk full", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("failed append must not emit")
	}
}

func TestEntryDoesNotAliasRequest(t *testing.T) {
	s := newMapStore()
	r := req("L", "p", "title")
	if _, err := Save(s, s, nil, "1", r); err != nil {
		t.Fatalf("save: %v", err)
	}
	r.Title[0] = 'X'
	got, _ := Retrieve(s, []byte("L"), []byte("p"))
	if string(got[0].Title) != "title" {
		t.Fatalf("stored entry aliased request buffer: %q", got[0].Title)
	}
}

// lostClaimRegistry always reports no owner but refuses the claim, as if a
// concurrent writer won between the check and the claim.
type lostClaimRegistry struct{}

func (r lostClaimRegistry) OwnerOf([]byte) (AccountID, bool, error) { return "", false, nil }
func (r lostClaimRegistry) Claim([]byte, AccountID) (bool, error)   { return false, nil }

func TestLostClaimIsUnauthorized(t *testing.T) {
	s := newMapStore()
	_, err := Save(s, lostClaimRegistry{}, nil, "1", req("L", "p", "a"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if len(s.entries) != 0 {
		t.Fatalf("no entry should be written")
	}
}
