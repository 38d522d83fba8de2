package ledger

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rzbill/auditlog/internal/audit"
	pebblestore "github.com/rzbill/auditlog/internal/storage/pebble"
	sqlitestore "github.com/rzbill/auditlog/internal/storage/sqlite"
)

type substrateFactory struct {
	name string
	// open returns a substrate backed by dir; reopening the same dir must
	// see previously committed data (except for memory).
	open    func(t *testing.T, dir string) Substrate
	durable bool
}

func factories() []substrateFactory {
	return []substrateFactory{
		{name: "memory", open: func(t *testing.T, _ string) Substrate { return NewMemorySubstrate() }},
		{name: "pebble", durable: true, open: openPebble},
		{name: "sqlite", durable: true, open: openSQLite},
	}
}

func openPebble(t *testing.T, dir string) Substrate {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	c := &closingSubstrate{Substrate: NewPebbleSubstrate(db), closeDB: db.Close}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func openSQLite(t *testing.T, dir string) Substrate {
	t.Helper()
	db, err := sqlitestore.Open(context.Background(), sqlitestore.Options{Path: filepath.Join(dir, "audit.db"), Schema: SQLiteSchema})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	c := &closingSubstrate{Substrate: NewSQLiteSubstrate(db), closeDB: db.Close}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// closingSubstrate also releases the DB so the directory can be reopened.
type closingSubstrate struct {
	Substrate
	closeDB func() error
	once    sync.Once
	err     error
}

func (c *closingSubstrate) Close() error {
	c.once.Do(func() {
		_ = c.Substrate.Close()
		c.err = c.closeDB()
	})
	return c.err
}

func save(t *testing.T, s Substrate, caller audit.AccountID, logID, period, title string) (audit.Outcome, error) {
	t.Helper()
	var out audit.Outcome
	err := s.Update(context.Background(), func(tx Tx) error {
		var err error
		out, err = audit.Save(tx, tx, nil, caller, audit.Request{
			LogID:     []byte(logID),
			Period:    []byte(period),
			Title:     []byte(title),
			Content:   []byte("c-" + title),
			Timestamp: []byte("ts"),
		})
		return err
	})
	return out, err
}

func retrieve(t *testing.T, s Substrate, logID, period string) []audit.Entry {
	t.Helper()
	var entries []audit.Entry
	err := s.View(context.Background(), func(tx Tx) error {
		var err error
		entries, err = audit.Retrieve(tx, []byte(logID), []byte(period))
		return err
	})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	return entries
}

func titles(entries []audit.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Title)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSubstrateConformance(t *testing.T) {
	for _, f := range factories() {
		f := f
		t.Run(f.name, func(t *testing.T) {
			t.Run("first writer claims", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				out, err := save(t, s, "alice", "LOG1", "2024-01-01", "login")
				if err != nil || out != audit.OutcomeCreated {
					t.Fatalf("save: out=%v err=%v", out, err)
				}
				got := retrieve(t, s, "LOG1", "2024-01-01")
				if len(got) != 1 || got[0].Reporter != "alice" || string(got[0].Content) != "c-login" {
					t.Fatalf("unexpected entries: %+v", got)
				}
			})

			t.Run("owner extends and order is kept", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				for i, title := range []string{"a", "b", "c"} {
					out, err := save(t, s, "alice", "LOG1", "D", title)
					if err != nil {
						t.Fatalf("save %d: %v", i, err)
					}
					if want := audit.OutcomeExtended; i > 0 && out != want {
						t.Fatalf("save %d outcome = %v, want %v", i, out, want)
					}
				}
				if got := titles(retrieve(t, s, "LOG1", "D")); !equalStrings(got, []string{"a", "b", "c"}) {
					t.Fatalf("titles = %v", got)
				}
			})

			t.Run("non-owner rejected without mutation", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				if _, err := save(t, s, "alice", "LOG1", "D1", "x"); err != nil {
					t.Fatalf("save: %v", err)
				}
				for _, period := range []string{"D1", "D2"} {
					if _, err := save(t, s, "bob", "LOG1", period, "y"); !errors.Is(err, audit.ErrUnauthorized) {
						t.Fatalf("period %s: want ErrUnauthorized, got %v", period, err)
					}
				}
				if got := retrieve(t, s, "LOG1", "D1"); len(got) != 1 {
					t.Fatalf("D1 len = %d, want 1", len(got))
				}
				if got := retrieve(t, s, "LOG1", "D2"); len(got) != 0 {
					t.Fatalf("D2 len = %d, want 0", len(got))
				}
				assertOwner(t, s, "LOG1", "alice")
			})

			t.Run("owner spans periods", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				for _, p := range []string{"D2", "D1", "D3"} {
					if _, err := save(t, s, "alice", "LOG1", p, p); err != nil {
						t.Fatalf("save %s: %v", p, err)
					}
				}
				var periods [][]byte
				var n uint64
				err := s.View(context.Background(), func(tx Tx) error {
					var err error
					if periods, err = tx.Periods([]byte("LOG1")); err != nil {
						return err
					}
					n, err = tx.Len([]byte("LOG1"), []byte("D2"))
					return err
				})
				if err != nil {
					t.Fatalf("view: %v", err)
				}
				want := [][]byte{[]byte("D1"), []byte("D2"), []byte("D3")}
				if len(periods) != len(want) {
					t.Fatalf("periods = %q", periods)
				}
				for i := range want {
					if !bytes.Equal(periods[i], want[i]) {
						t.Fatalf("periods = %q", periods)
					}
				}
				if n != 1 {
					t.Fatalf("len = %d, want 1", n)
				}
			})

			t.Run("absent key is empty", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				got := retrieve(t, s, "nope", "never")
				if got == nil || len(got) != 0 {
					t.Fatalf("want empty non-nil slice, got %#v", got)
				}
			})

			t.Run("empty identifiers are keys too", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				if _, err := save(t, s, "alice", "", "", "blank"); err != nil {
					t.Fatalf("save: %v", err)
				}
				if got := retrieve(t, s, "", ""); len(got) != 1 {
					t.Fatalf("len = %d, want 1", len(got))
				}
				if got := retrieve(t, s, "x", ""); len(got) != 0 {
					t.Fatalf("unrelated key saw %d entries", len(got))
				}
			})

			t.Run("concurrent first writers claim once", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				callers := []audit.AccountID{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"}
				outs := make([]audit.Outcome, len(callers))
				errs := make([]error, len(callers))
				var wg sync.WaitGroup
				for i, c := range callers {
					wg.Add(1)
					go func(i int, c audit.AccountID) {
						defer wg.Done()
						outs[i], errs[i] = save(t, s, c, "RACE", "P", string(c))
					}(i, c)
				}
				wg.Wait()
				created := 0
				var winner audit.AccountID
				for i := range callers {
					switch {
					case errs[i] == nil && outs[i] == audit.OutcomeCreated:
						created++
						winner = callers[i]
					case errors.Is(errs[i], audit.ErrUnauthorized):
					default:
						t.Fatalf("%s: out=%v err=%v", callers[i], outs[i], errs[i])
					}
				}
				if created != 1 {
					t.Fatalf("want exactly one claim, got %d", created)
				}
				got := retrieve(t, s, "RACE", "P")
				if len(got) != 1 || got[0].Reporter != winner {
					t.Fatalf("entries = %+v, winner %s", got, winner)
				}
			})

			t.Run("failed update rolls back", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				boom := errors.New("boom")
				err := s.Update(context.Background(), func(tx Tx) error {
					if _, err := audit.Save(tx, tx, nil, "alice", audit.Request{LogID: []byte("L"), Period: []byte("P")}); err != nil {
						return err
					}
					return boom
				})
				if !errors.Is(err, boom) {
					t.Fatalf("want boom, got %v", err)
				}
				if got := retrieve(t, s, "L", "P"); len(got) != 0 {
					t.Fatalf("rolled back entry visible: %+v", got)
				}
				// Nobody owns L, so bob may claim it now.
				if out, err := save(t, s, "bob", "L", "P", "t"); err != nil || out != audit.OutcomeCreated {
					t.Fatalf("save after rollback: out=%v err=%v", out, err)
				}
			})

			t.Run("view is read only", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				err := s.View(context.Background(), func(tx Tx) error {
					return tx.Append([]byte("L"), []byte("P"), audit.Entry{Reporter: "alice"})
				})
				if !errors.Is(err, ErrReadOnly) {
					t.Fatalf("append in view: want ErrReadOnly, got %v", err)
				}
				err = s.View(context.Background(), func(tx Tx) error {
					_, err := tx.Claim([]byte("L"), "alice")
					return err
				})
				if !errors.Is(err, ErrReadOnly) {
					t.Fatalf("claim in view: want ErrReadOnly, got %v", err)
				}
			})

			t.Run("closed substrate refuses writes", func(t *testing.T) {
				s := f.open(t, t.TempDir())
				if err := s.Close(); err != nil {
					t.Fatalf("close: %v", err)
				}
				if _, err := save(t, s, "alice", "L", "P", "t"); err == nil {
					t.Fatalf("expected error after close")
				}
			})

			if f.durable {
				t.Run("durable across reopen", func(t *testing.T) {
					dir := t.TempDir()
					s := f.open(t, dir)
					if _, err := save(t, s, "alice", "LOG1", "D", "one"); err != nil {
						t.Fatalf("save: %v", err)
					}
					if err := s.Close(); err != nil {
						t.Fatalf("close: %v", err)
					}
					s = f.open(t, dir)
					if got := titles(retrieve(t, s, "LOG1", "D")); !equalStrings(got, []string{"one"}) {
						t.Fatalf("after reopen titles = %v", got)
					}
					if _, err := save(t, s, "bob", "LOG1", "D", "two"); !errors.Is(err, audit.ErrUnauthorized) {
						t.Fatalf("ownership lost across reopen: %v", err)
					}
					if out, err := save(t, s, "alice", "LOG1", "D", "two"); err != nil || out != audit.OutcomeExtended {
						t.Fatalf("extend after reopen: out=%v err=%v", out, err)
					}
				})
			}
		})
	}
}

func assertOwner(t *testing.T, s Substrate, logID string, want audit.AccountID) {
	t.Helper()
	err := s.View(context.Background(), func(tx Tx) error {
		got, ok, err := audit.OwnerOf(tx, []byte(logID))
		if err != nil {
			return err
		}
		if !ok || got != want {
			t.Fatalf("owner of %s = %q (%v), want %q", logID, got, ok, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
