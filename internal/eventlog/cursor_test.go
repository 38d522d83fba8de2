package eventlog

import "testing"

func TestCommitCursorIdempotent(t *testing.T) {
	l, seqs := seedLog(t, 2)
	if _, ok := l.GetCursor("g1"); ok {
		t.Fatalf("unexpected cursor before commit")
	}
	if err := l.CommitCursor("g1", TokenFromSeq(seqs[1])); err != nil {
		t.Fatalf("commit: %v", err)
	}
	// regressions are ignored
	if err := l.CommitCursor("g1", TokenFromSeq(seqs[0])); err != nil {
		t.Fatalf("commit lower: %v", err)
	}
	got, ok := l.GetCursor("g1")
	if !ok || got.Seq() != seqs[1] {
		t.Fatalf("cursor = %d (%v), want %d", got.Seq(), ok, seqs[1])
	}
	if _, ok := l.GetCursor("g2"); ok {
		t.Fatalf("groups must be independent")
	}
	if err := l.CommitCursor("", TokenFromSeq(1)); err == nil {
		t.Fatalf("expected error for empty group")
	}
}
