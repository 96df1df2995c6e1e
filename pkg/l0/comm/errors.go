package comm

import (
	"errors"
	"fmt"

	"github.com/robotalks/mculink/pkg/l0/ring"
)

var (
	// ErrCapacityExceeded indicates a frame payload or a receive buffer
	// is full. The operation has no effect.
	ErrCapacityExceeded = ring.ErrCapacityExceeded
	// ErrIndexOutOfRange is reported by payload accessors.
	ErrIndexOutOfRange = ring.ErrIndexOutOfRange
	// ErrMalformedFrame indicates missing markers or insufficient length.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrQueueEmpty is returned by Peek and Pop on an empty queue.
	ErrQueueEmpty = errors.New("queue empty")
	// ErrQueueFull is returned by Push on a full queue.
	ErrQueueFull = errors.New("queue full")
	// ErrEmptyCommand indicates a frame without a command code.
	ErrEmptyCommand = errors.New("empty command")
)

// UnknownCommandError is reported when no handler is registered
// for a command code.
type UnknownCommandError struct {
	Code byte
}

// Error implements error.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command 0x%02x", e.Code)
}
