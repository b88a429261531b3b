package series

import "encoding/binary"

// Codec is the opaque compressed-array collaborator consumed by
// serialize.go. This package does not ship a real compression codec;
// Codec only defines the boundary a caller plugs one into.
type Codec[T any] interface {
	// Encode compresses src into dst, returning the number of bytes
	// written. dst is sized by the caller to EncodedSizeUpperBound(len(src)).
	Encode(dst []byte, src []T) (int, error)
	// Decode decompresses exactly n elements from src into dst. dst is
	// pre-sized to n by the caller.
	Decode(dst []T, src []byte, n int) error
	// EncodedSizeUpperBound returns a safe upper bound on Encode's output
	// size for n elements, used to size the caller's scratch buffer.
	EncodedSizeUpperBound(n int) int
}

// RawInt64Codec is the reference Codec for int64 elements: it performs
// no compression at all, writing/reading each element as a fixed-width
// little-endian int64. It exists so serialize.go's round trip is
// exercisable without a real compression library.
type RawInt64Codec struct{}

func (RawInt64Codec) EncodedSizeUpperBound(n int) int {
	return n * 8
}

func (RawInt64Codec) Encode(dst []byte, src []int64) (int, error) {
	need := len(src) * 8
	if len(dst) < need {
		return 0, ErrInvalid
	}

	for i, v := range src {
		binary.LittleEndian.PutUint64(dst[i*8:], uint64(v))
	}

	return need, nil
}

func (RawInt64Codec) Decode(dst []int64, src []byte, n int) error {
	if len(dst) != n || len(src) < n*8 {
		return ErrInvalid
	}

	for i := range n {
		dst[i] = int64(binary.LittleEndian.Uint64(src[i*8:]))
	}

	return nil
}

// RawBytesCodec is the reference Codec for []byte elements (each
// already opaque bytes): it writes each element length-prefixed with a
// uint32, no compression.
type RawBytesCodec struct{}

func (RawBytesCodec) EncodedSizeUpperBound(n int) int {
	// Conservative: caller must pre-sum actual element lengths; this
	// only accounts for the length prefixes.
	return n * 4
}

func (RawBytesCodec) Encode(dst []byte, src [][]byte) (int, error) {
	off := 0

	for _, v := range src {
		need := off + 4 + len(v)
		if len(dst) < need {
			return 0, ErrInvalid
		}

		binary.LittleEndian.PutUint32(dst[off:], uint32(len(v)))
		off += 4
		off += copy(dst[off:], v)
	}

	return off, nil
}

func (RawBytesCodec) Decode(dst [][]byte, src []byte, n int) error {
	if len(dst) != n {
		return ErrInvalid
	}

	off := 0

	for i := range n {
		if len(src) < off+4 {
			return ErrInvalid
		}

		l := int(binary.LittleEndian.Uint32(src[off:]))
		off += 4

		if len(src) < off+l {
			return ErrInvalid
		}

		dst[i] = append([]byte(nil), src[off:off+l]...)
		off += l
	}

	return nil
}
