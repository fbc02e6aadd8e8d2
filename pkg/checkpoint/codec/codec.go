// Package codec converts checkpoint keys and offsets to and from the bytes
// stored in log records.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrDecode = errors.New("codec: decode")

// Codec encodes T into a log record key or value and back.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

type stringCodec struct{}

// String stores strings as their raw utf8 bytes.
func String() Codec[string] {
	return stringCodec{}
}

func (stringCodec) Encode(v string) ([]byte, error) {
	return []byte(v), nil
}

func (stringCodec) Decode(b []byte) (string, error) {
	return string(b), nil
}

type bytesCodec struct{}

func Bytes() Codec[[]byte] {
	return bytesCodec{}
}

func (bytesCodec) Encode(v []byte) ([]byte, error) {
	return v, nil
}

func (bytesCodec) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

type int64Codec struct{}

// Int64 stores an int64 as 8 bytes big endian, the same layout as the java
// kafka LongSerializer.
func Int64() Codec[int64] {
	return int64Codec{}
}

func (int64Codec) Encode(v int64) ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b, nil
}

func (int64Codec) Decode(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: int64 needs 8 bytes, got %d", ErrDecode, len(b))
	}

	return int64(binary.BigEndian.Uint64(b)), nil
}
