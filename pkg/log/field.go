package log

import (
	"encoding/hex"
	"time"
)

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field from an arbitrary value.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

func Str(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Bytes renders opaque bytes as text when printable and hex otherwise.
func Bytes(key string, value []byte) Field {
	for _, c := range value {
		if c < 0x20 || c > 0x7e {
			return Field{Key: key, Value: "0x" + hex.EncodeToString(value)}
		}
	}
	return Field{Key: key, Value: string(value)}
}

// Err attaches an error under the "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags an entry with the emitting component.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }

func RequestID(id string) Field { return Field{Key: RequestIDKey, Value: id} }

func Operation(name string) Field { return Field{Key: OperationKey, Value: name} }
