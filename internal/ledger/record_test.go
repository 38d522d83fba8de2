package ledger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rzbill/auditlog/internal/audit"
)

func TestEntryRecordRoundTrip(t *testing.T) {
	in := audit.Entry{
		Title:     []byte("login"),
		Content:   bytes.Repeat([]byte{0x00, 0xff}, 300),
		Timestamp: []byte{},
		Reporter:  "alice",
	}
	rec := EncodeEntry(in)
	out, err := DecodeEntry(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out.Title, in.Title) || !bytes.Equal(out.Content, in.Content) || len(out.Timestamp) != 0 || out.Reporter != in.Reporter {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	rec[0] = 'X'
	if out.Title[0] != 'l' {
		t.Fatalf("decoded entry aliases the record")
	}
}

func TestDecodeEntryDetectsCorruption(t *testing.T) {
	rec := EncodeEntry(audit.Entry{Title: []byte("t"), Reporter: "bob"})
	cases := map[string][]byte{
		"short":     rec[:3],
		"flipped":   append(append([]byte{}, rec[:1]...), append([]byte{rec[1] ^ 0x01}, rec[2:]...)...),
		"truncated": rec[:len(rec)-5],
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeEntry(b); !errors.Is(err, ErrCorruptRecord) {
				t.Fatalf("want ErrCorruptRecord, got %v", err)
			}
		})
	}
}
