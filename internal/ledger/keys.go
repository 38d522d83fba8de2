package ledger

import "encoding/binary"

var (
	entrySpace  = []byte("a/e/")
	periodSpace = []byte("a/p/")
	ownerSpace  = []byte("a/o/")
	metaSuffix  = byte('m')
	entryMarker = byte('e')
)

func appendLenPrefixed(dst, b []byte) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	dst = append(dst, n[:]...)
	return append(dst, b...)
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keySequencePrefix is shared by the metadata and entry keys of one (logId, period).
func keySequencePrefix(logID, period []byte) []byte {
	k := make([]byte, 0, len(entrySpace)+len(logID)+len(period)+10)
	k = append(k, entrySpace...)
	k = appendLenPrefixed(k, logID)
	k = appendLenPrefixed(k, period)
	k = append(k, '/')
	return k
}

// KeySequenceMeta builds the metadata key holding lastSeq.
func KeySequenceMeta(logID, period []byte) []byte {
	return append(keySequencePrefix(logID, period), metaSuffix)
}

// KeyEntry builds an entry key; big-endian seq keeps append order.
func KeyEntry(logID, period []byte, seq uint64) []byte {
	k := append(keySequencePrefix(logID, period), entryMarker)
	return appendBE8(k, seq)
}

// keyEntryPrefix bounds every entry of one sequence.
func keyEntryPrefix(logID, period []byte) []byte {
	return append(keySequencePrefix(logID, period), entryMarker)
}

// KeyPeriod builds the period index key.
func KeyPeriod(logID, period []byte) []byte {
	k := keyPeriodPrefix(logID)
	return append(k, period...)
}

func keyPeriodPrefix(logID []byte) []byte {
	k := make([]byte, 0, len(periodSpace)+len(logID)+4)
	k = append(k, periodSpace...)
	return appendLenPrefixed(k, logID)
}

// KeyOwner builds the owner key for a log id.
func KeyOwner(logID []byte) []byte {
	k := make([]byte, 0, len(ownerSpace)+len(logID))
	k = append(k, ownerSpace...)
	return append(k, logID...)
}
