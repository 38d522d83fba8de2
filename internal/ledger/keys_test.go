package ledger

import (
	"bytes"
	"testing"
)

func TestSequencePrefixCollisionFree(t *testing.T) {
	a := keySequencePrefix([]byte("ab"), []byte("c"))
	b := keySequencePrefix([]byte("a"), []byte("bc"))
	if bytes.Equal(a, b) {
		t.Fatalf("distinct (logId, period) pairs share a prefix: %x", a)
	}
	if bytes.HasPrefix(keySequencePrefix([]byte("a"), []byte("bc")), keySequencePrefix([]byte("a"), []byte("b"))) {
		t.Fatalf("period b must not prefix period bc")
	}
}

func TestEntryKeysOrderBySeq(t *testing.T) {
	k1 := KeyEntry([]byte("log"), []byte("p"), 1)
	k2 := KeyEntry([]byte("log"), []byte("p"), 2)
	k256 := KeyEntry([]byte("log"), []byte("p"), 256)
	if !(bytes.Compare(k1, k2) < 0 && bytes.Compare(k2, k256) < 0) {
		t.Fatalf("entry keys not ordered by seq")
	}
	prefix := keyEntryPrefix([]byte("log"), []byte("p"))
	if !bytes.HasPrefix(k1, prefix) {
		t.Fatalf("entry key missing prefix")
	}
	if bytes.HasPrefix(KeySequenceMeta([]byte("log"), []byte("p")), prefix) {
		t.Fatalf("meta key must not fall inside the entry range")
	}
}

func TestEmptyComponentsEncode(t *testing.T) {
	k := KeyEntry(nil, nil, 1)
	want := len(entrySpace) + 4 + 4 + 1 + 1 + 8
	if len(k) != want {
		t.Fatalf("key len = %d, want %d", len(k), want)
	}
	if bytes.Equal(KeyPeriod(nil, []byte("x")), KeyPeriod([]byte("x"), nil)) {
		t.Fatalf("period keys collide")
	}
}
