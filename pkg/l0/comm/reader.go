package comm

import (
	"context"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/mculink/pkg/l0/ring"
)

// Reader is the producer task of a receive queue. It reads raw
// chunks from Source, assembles frames and pushes them to Queue.
// A frame arriving when Queue is full is dropped.
type Reader struct {
	Name      string
	Source    io.Reader
	Queue     *Queue
	Assembler Assembler
	Counters  Counters
}

// NewReader creates a Reader.
func NewReader(name string, src io.Reader, q *Queue) *Reader {
	return &Reader{Name: name, Source: src, Queue: q}
}

// Run implements framework.Runnable. It returns nil when Source
// reaches EOF. Read timeouts reported by Source are ignored.
func (r *Reader) Run(ctx context.Context) error {
	var buf [ring.Capacity]byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.Source.Read(buf[:])
		if n > 0 {
			r.Feed(buf[:n])
		}
		if err == nil {
			continue
		}
		if os.IsTimeout(err) {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

// Feed consumes one chunk of raw bytes, for links delivering
// data by callbacks instead of io.Reader.
func (r *Reader) Feed(p []byte) {
	if err := r.Assembler.Feed(p, r.push); err != nil {
		r.Counters.countAssembleError(err)
		glog.V(2).Infof("%s: discard %d bytes: %v", r.Name, len(p), err)
	}
}

// FeedUnit consumes a chunk which is known to be a complete unit,
// e.g. a datagram. Any partial frame from previous chunks is discarded.
func (r *Reader) FeedUnit(p []byte) {
	if r.Assembler.Pending() > 0 {
		r.Counters.Malformed.Add(1)
		r.Assembler.Reset()
	}
	r.Feed(p)
}

func (r *Reader) push(f Frame) {
	if err := r.Queue.Push(f); err != nil {
		r.Counters.Dropped.Add(1)
		glog.Warningf("%s: drop frame %s: %v", r.Name, f.String(), err)
		return
	}
	r.Counters.FramesIn.Add(1)
	glog.V(2).Infof("%s: rx %s", r.Name, f.String())
}
