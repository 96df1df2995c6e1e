package comm

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/mculink/pkg/framework"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l0/ring"
)

// DefaultRequestTimeout is the default time to wait for a reply.
const DefaultRequestTimeout = time.Second

// DeviceConn implements l1.DeviceConn over a Pipe.
// A received frame goes to the oldest Request waiting for its code,
// otherwise it is delivered on Frames. Frames not consumed in time
// are dropped.
type DeviceConn struct {
	Pipe      *Pipe
	Processor *l0.Processor

	rx      *l0.Queue
	tx      *l0.Queue
	frameCh chan l0.Frame
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
	waiters []*waiter
	lock    sync.Mutex
}

type waiter struct {
	code    byte
	replyCh chan l0.Frame
}

// NewDeviceConn creates a DeviceConn over rw.
func NewDeviceConn(name string, rw ChunkReadWriter) *DeviceConn {
	c := &DeviceConn{
		rx:      l0.NewQueue(l0.AltQueueCapacity),
		tx:      l0.NewQueue(l0.AltQueueCapacity),
		frameCh: make(chan l0.Frame, l0.AltQueueCapacity),
		doneCh:  make(chan struct{}),
	}
	c.Pipe = NewPipe(name, rw, c.rx, c.tx)
	c.Processor = l0.NewProcessor(name+".proc", c.rx, l0.HandlerFunc(c.deliver))
	return c
}

// Start runs the connection in background until Close.
func (c *DeviceConn) Start(ctx context.Context) *DeviceConn {
	ctx, c.cancel = context.WithCancel(ctx)
	go func() {
		err := fx.NewRunnerWith(ctx).StopOnError().Go(c.Pipe, c.Processor).Wait()
		c.lock.Lock()
		c.err = err
		c.lock.Unlock()
		close(c.doneCh)
	}()
	return c
}

// Send implements l1.DeviceConn.
func (c *DeviceConn) Send(f l0.Frame) error {
	return c.tx.Push(f)
}

// Frames implements l1.DeviceConn.
func (c *DeviceConn) Frames() <-chan l0.Frame {
	return c.frameCh
}

// Request sends f and waits for the next received frame with code.
// Frames with other codes stay available on Frames.
func (c *DeviceConn) Request(ctx context.Context, f l0.Frame, code byte) (l0.Frame, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}
	w := &waiter{code: code, replyCh: make(chan l0.Frame, 1)}
	c.lock.Lock()
	c.waiters = append(c.waiters, w)
	c.lock.Unlock()
	defer c.removeWaiter(w)

	if err := c.Send(f); err != nil {
		return l0.Frame{}, err
	}
	select {
	case reply := <-w.replyCh:
		return reply, nil
	case <-c.doneCh:
		return l0.Frame{}, c.Err()
	case <-ctx.Done():
		return l0.Frame{}, ctx.Err()
	}
}

func (c *DeviceConn) removeWaiter(w *waiter) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for n, item := range c.waiters {
		if item == w {
			c.waiters = append(c.waiters[:n], c.waiters[n+1:]...)
			return
		}
	}
}

// takeWaiter removes and returns the oldest waiter for code.
func (c *DeviceConn) takeWaiter(code byte) *waiter {
	c.lock.Lock()
	defer c.lock.Unlock()
	for n, w := range c.waiters {
		if w.code == code {
			c.waiters = append(c.waiters[:n], c.waiters[n+1:]...)
			return w
		}
	}
	return nil
}

// Done is closed when the connection stops.
func (c *DeviceConn) Done() <-chan struct{} {
	return c.doneCh
}

// Err returns the error stopping the connection.
func (c *DeviceConn) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

// Close implements l1.DeviceConn.
func (c *DeviceConn) Close() error {
	if c.cancel != nil {
		c.cancel()
		<-c.doneCh
	}
	return nil
}

func (c *DeviceConn) deliver(ctx context.Context, code byte, args *ring.Buffer) error {
	f := l0.NewFrame()
	f.AddData([]byte{code})
	f.AddBuffer(args)
	if w := c.takeWaiter(code); w != nil {
		w.replyCh <- f
		return nil
	}
	select {
	case c.frameCh <- f:
		return nil
	default:
		return l0.ErrQueueFull
	}
}
