package kll

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers distinguish them with errors.Is; every
// error this package returns wraps exactly one of these.
var (
	// ErrEmptySketch is returned by a query that requires at least one
	// retained item on a sketch with N == 0.
	ErrEmptySketch = errors.New("operation is undefined for an empty sketch")

	// ErrInvalidArgument is returned for an out-of-range rank, a NaN or
	// non-monotonic split-point list, or an out-of-range k or m.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrReadOnly is returned by a mutating call on a read-only backing
	// store, or on a sketch wrapped around a compact memory image.
	ErrReadOnly = errors.New("sketch is read-only")

	// ErrTypeMismatch is returned when merging sketches of different
	// element types would be required (the generic type system already
	// prevents this at compile time; this error is reserved for any
	// call path that loses that static guarantee, e.g. byte-image
	// interchange).
	ErrTypeMismatch = errors.New("sketch element types do not match")

	// ErrCorruptImage is returned when a byte image fails preamble or
	// size validation during Heapify/Wrap.
	ErrCorruptImage = errors.New("corrupt or unrecognized sketch image")

	// ErrInsufficientSpace is returned when a memory-backed sketch
	// needs to grow and its MemoryProvider refuses or is absent.
	ErrInsufficientSpace = errors.New("insufficient space to grow sketch")
)

// wrapf annotates a sentinel error with call-specific context while
// keeping it matchable with errors.Is(err, sentinel).
func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
