package eventlog

import (
	"encoding/binary"
)

// Keyspace layout (byte-wise, lexicographically sortable):
// - ev/{topic}/m
// - ev/{topic}/e/{seq_be8}
// - ev/{topic}/c/{group}

var (
	topicSpace = []byte("ev/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
	cursorSeg  = []byte("/c/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func topicPrefix(topic string, extra int) []byte {
	k := make([]byte, 0, len(topicSpace)+len(topic)+extra)
	k = append(k, topicSpace...)
	return append(k, topic...)
}

// KeyLogMeta builds the topic metadata key.
func KeyLogMeta(topic string) []byte {
	return append(topicPrefix(topic, len(metaSuffix)), metaSuffix...)
}

// KeyLogEntry builds the entry key with a big-endian sequence for proper ordering.
func KeyLogEntry(topic string, seq uint64) []byte {
	k := append(topicPrefix(topic, len(entrySeg)+8), entrySeg...)
	return appendBE8(k, seq)
}

// KeyCursor builds the durable cursor key for a consumer group.
func KeyCursor(topic, group string) []byte {
	k := append(topicPrefix(topic, len(cursorSeg)+len(group)), cursorSeg...)
	return append(k, group...)
}

// entryBounds returns [low, high) covering every entry of topic.
func entryBounds(topic string) (low, high []byte) {
	low = KeyLogEntry(topic, 0)
	high = append(KeyLogEntry(topic, ^uint64(0)), 0x00)
	return low, high
}

func seqFromKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[len(k)-8:])
}
