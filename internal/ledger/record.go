package ledger

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/rzbill/auditlog/internal/audit"
)

// ErrCorruptRecord is returned when a stored entry fails to decode or its
// checksum does not match.
var ErrCorruptRecord = errors.New("ledger: corrupt entry record")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeEntry serializes e as: field* | crc32c(fields), where each field is
// uvarint length | bytes, in the order title, content, timestamp, reporter.
func EncodeEntry(e audit.Entry) []byte {
	fields := [][]byte{e.Title, e.Content, e.Timestamp, []byte(e.Reporter)}
	size := 4
	for _, f := range fields {
		size += binary.MaxVarintLen64 + len(f)
	}
	out := make([]byte, 0, size)
	var tmp [binary.MaxVarintLen64]byte
	for _, f := range fields {
		n := binary.PutUvarint(tmp[:], uint64(len(f)))
		out = append(out, tmp[:n]...)
		out = append(out, f...)
	}
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc32.Checksum(out, castagnoli))
	return append(out, crcb[:]...)
}

// DecodeEntry parses a record produced by EncodeEntry. Returned slices do
// not alias b.
func DecodeEntry(b []byte) (audit.Entry, error) {
	if len(b) < 4 {
		return audit.Entry{}, ErrCorruptRecord
	}
	body := b[:len(b)-4]
	if crc32.Checksum(body, castagnoli) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return audit.Entry{}, ErrCorruptRecord
	}
	var fields [4][]byte
	rest := body
	for i := range fields {
		l, n := binary.Uvarint(rest)
		if n <= 0 || uint64(len(rest)-n) < l {
			return audit.Entry{}, ErrCorruptRecord
		}
		fields[i] = append([]byte{}, rest[n:n+int(l)]...)
		rest = rest[n+int(l):]
	}
	if len(rest) != 0 {
		return audit.Entry{}, ErrCorruptRecord
	}
	return audit.Entry{
		Title:     fields[0],
		Content:   fields[1],
		Timestamp: fields[2],
		Reporter:  audit.AccountID(fields[3]),
	}, nil
}
