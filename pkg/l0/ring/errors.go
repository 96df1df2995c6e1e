package ring

import "errors"

var (
	// ErrCapacityExceeded indicates a push would overflow the buffer.
	// The buffer is left untouched.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrIndexOutOfRange indicates an offset at or beyond the current length.
	ErrIndexOutOfRange = errors.New("index out of range")
)
