package comm

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mculink/pkg/framework"
	"github.com/robotalks/mculink/pkg/l0/ring"
)

// DefaultRetryDelay is the delay before retrying a failed write.
const DefaultRetryDelay = 10 * time.Millisecond

// Writer is the consumer task of a transmit queue. It writes the
// head frame to Sink and removes it only when the write succeeds,
// otherwise the same frame is retried after the poll interval.
type Writer struct {
	Name     string
	Sink     io.Writer
	Queue    *Queue
	Poller   framework.Poller
	Counters Counters
}

// NewWriter creates a Writer.
func NewWriter(name string, sink io.Writer, q *Queue) *Writer {
	return &Writer{
		Name:   name,
		Sink:   sink,
		Queue:  q,
		Poller: framework.Poller{Interval: DefaultRetryDelay},
	}
}

// Run implements framework.Runnable.
func (w *Writer) Run(ctx context.Context) error {
	return w.Poller.Run(ctx, w.Queue.Ready(), w.Flush)
}

// Flush writes queued frames until the queue drains or a write fails.
// Write failures are not returned.
func (w *Writer) Flush(ctx context.Context) error {
	for {
		f, err := w.Queue.Peek()
		if err != nil {
			return nil
		}
		if err = w.write(&f); err != nil {
			w.Counters.Retries.Add(1)
			glog.V(2).Infof("%s: write %s: %v, retry later", w.Name, f.String(), err)
			return nil
		}
		w.Queue.Pop()
		w.Counters.FramesOut.Add(1)
		glog.V(2).Infof("%s: tx %s", w.Name, f.String())
	}
}

func (w *Writer) write(f *Frame) error {
	raw, err := f.Encode()
	if err != nil {
		return err
	}
	var p [ring.Capacity]byte
	n := raw.CopyTo(p[:])
	written, err := w.Sink.Write(p[:n])
	if err == nil && written < n {
		err = io.ErrShortWrite
	}
	return err
}
