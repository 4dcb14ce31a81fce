package kll

import (
	"encoding/binary"
	"math"
)

// sizeOfT returns sizeof(T) in bytes: 4 for float32, 8 for float64.
func sizeOfT[T Float]() int {
	var zero T
	switch any(zero).(type) {
	case float32:
		return 4
	case float64:
		return 8
	default:
		panic("kll: unsupported element type")
	}
}

// isDoubleT reports whether T is float64 (used for the "doubles
// sketch" preamble flag).
func isDoubleT[T Float]() bool {
	var zero T
	_, ok := any(zero).(float64)
	return ok
}

// encodeT writes v into b (which must have length >= sizeOfT[T]()) in
// native (little-endian) byte order.
func encodeT[T Float](v T, b []byte) {
	switch x := any(v).(type) {
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	default:
		panic("kll: unsupported element type")
	}
}

// decodeT reads a T out of b in native (little-endian) byte order.
func decodeT[T Float](b []byte) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(math.Float32frombits(binary.LittleEndian.Uint32(b))).(T)
	case float64:
		return any(math.Float64frombits(binary.LittleEndian.Uint64(b))).(T)
	default:
		panic("kll: unsupported element type")
	}
}

// isNaNT reports whether v is NaN, for either float width.
func isNaNT[T Float](v T) bool {
	return v != v
}
