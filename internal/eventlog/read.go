package eventlog

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"
)

// Token encodes a read position as seq (8 bytes big-endian). The zero Token
// means "from the beginning" (or "from the end" when reading in reverse).
type Token [8]byte

func TokenFromSeq(seq uint64) Token { var t Token; binary.BigEndian.PutUint64(t[:], seq); return t }
func (t Token) Seq() uint64         { return binary.BigEndian.Uint64(t[:]) }
func (t Token) IsZero() bool        { return t == Token{} }

type ReadOptions struct {
	Start   Token // inclusive
	Limit   int   // 0 reads everything
	Reverse bool
}

type Item struct {
	Seq     uint64
	Header  []byte
	Payload []byte
}

// Read returns up to Limit items starting at Start (inclusive). Reverse scans
// descending. The returned Token is the position of the next unread item, or
// zero when the scan reached the end. Records failing their checksum are
// skipped.
func (l *Log) Read(opts ReadOptions) ([]Item, Token, error) {
	low, high := entryBounds(l.topic)
	items := make([]Item, 0, max(1, opts.Limit))
	var next Token

	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return items, next, err
	}
	defer iter.Close()

	startSeq := opts.Start.Seq()
	startKey := KeyLogEntry(l.topic, startSeq)
	var valid bool
	switch {
	case opts.Reverse && startSeq == 0:
		valid = iter.Last()
	case opts.Reverse:
		// inclusive: position on the first key <= startKey
		valid = iter.SeekLT(append(startKey, 0x00))
	case startSeq == 0:
		valid = iter.First()
	default:
		valid = iter.SeekGE(startKey)
	}

	step := iter.Next
	if opts.Reverse {
		step = iter.Prev
	}
	for ; valid && (opts.Limit == 0 || len(items) < opts.Limit); valid = step() {
		if dec, ok := DecodeRecord(iter.Value()); ok {
			items = append(items, Item{Seq: seqFromKey(iter.Key()), Header: dec.Header, Payload: dec.Payload})
		}
	}
	if valid {
		next = TokenFromSeq(seqFromKey(iter.Key()))
	}
	return items, next, iter.Error()
}

// SeekTime returns the first sequence whose header time is >= atMs, or
// LastSeq()+1 when every entry is older. Header times are assumed to be
// non-decreasing in sequence order.
func (l *Log) SeekTime(atMs int64) (uint64, error) {
	first, _, err := l.Read(ReadOptions{Limit: 1})
	if err != nil || len(first) == 0 {
		return l.LastSeq() + 1, err
	}
	last, _, err := l.Read(ReadOptions{Reverse: true, Limit: 1})
	if err != nil || len(last) == 0 {
		return l.LastSeq() + 1, err
	}
	lo, hi := first[0].Seq, last[0].Seq+1 // hi exclusive
	for lo < hi {
		mid := lo + (hi-lo)/2
		items, _, err := l.Read(ReadOptions{Start: TokenFromSeq(mid), Limit: 1})
		if err != nil {
			return 0, err
		}
		if len(items) == 0 {
			lo = hi
			break
		}
		ts, _ := HeaderTime(items[0].Header)
		if ts < atMs {
			lo = items[0].Seq + 1
		} else {
			hi = items[0].Seq
		}
	}
	return lo, nil
}
