package comm

import (
	"fmt"
	"sync"
)

// Queue capacities per link.
const (
	MaxQueueCapacity  = 10
	UARTQueueCapacity = 5
	WiFiQueueCapacity = 5
	AltQueueCapacity  = 10
)

// QueueState is derived from the queue length.
type QueueState int

const (
	// QueueEmpty means no frame is queued.
	QueueEmpty QueueState = iota
	// QueuePartial means frames are queued and more can be pushed.
	QueuePartial
	// QueueFull means Push will fail.
	QueueFull
)

// String implements fmt.Stringer.
func (s QueueState) String() string {
	switch s {
	case QueueEmpty:
		return "empty"
	case QueuePartial:
		return "partial"
	case QueueFull:
		return "full"
	}
	return fmt.Sprintf("QueueState(%d)", int(s))
}

// Queue is a bounded FIFO of frames handed from one producer task
// to one consumer task. Operations never block.
//
// Consumers performing a side effect use Peek first and Pop only
// after the side effect succeeds, so a failed frame stays at the head
// and is retried.
type Queue struct {
	slots  [MaxQueueCapacity]Frame
	cap    int
	head   int
	length int
	lock   sync.Mutex

	readyCh chan struct{}
}

// NewQueue creates a Queue holding up to capacity frames.
// It panics if capacity is not within 1..MaxQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 || capacity > MaxQueueCapacity {
		panic(fmt.Sprintf("invalid queue capacity %d", capacity))
	}
	return &Queue{cap: capacity, readyCh: make(chan struct{}, 1)}
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return q.cap
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.length
}

// State gets the state.
func (q *Queue) State() QueueState {
	q.lock.Lock()
	defer q.lock.Unlock()
	switch q.length {
	case 0:
		return QueueEmpty
	case q.cap:
		return QueueFull
	}
	return QueuePartial
}

// Ready is signaled after a successful Push. It's a wake hint only,
// consumers must still check the queue.
func (q *Queue) Ready() <-chan struct{} {
	return q.readyCh
}

// Push appends a copy of f. Frames over MaxPayloadSize are refused.
func (q *Queue) Push(f Frame) error {
	if f.Len() > MaxPayloadSize {
		return ErrCapacityExceeded
	}
	q.lock.Lock()
	if q.length == q.cap {
		q.lock.Unlock()
		return ErrQueueFull
	}
	q.slots[(q.head+q.length)%q.cap] = f
	q.length++
	q.lock.Unlock()
	select {
	case q.readyCh <- struct{}{}:
	default:
	}
	return nil
}

// Peek returns a copy of the head frame without removing it.
func (q *Queue) Peek() (Frame, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.length == 0 {
		return Frame{}, ErrQueueEmpty
	}
	return q.slots[q.head], nil
}

// Pop removes and returns the head frame.
func (q *Queue) Pop() (f Frame, err error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.length == 0 {
		return f, ErrQueueEmpty
	}
	f = q.slots[q.head]
	q.head = (q.head + 1) % q.cap
	q.length--
	if q.length == 0 {
		q.head = 0
	}
	return f, nil
}
