package stream

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/mculink/pkg/framework"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
)

// Link runs a receive Reader and a transmit Writer over a plain byte
// stream carrying marker delimited frames, e.g. a serial port or a
// TCP connection. Frames may be split across reads.
type Link struct {
	Name   string
	Port   io.ReadWriteCloser
	Reader *l0.Reader
	Writer *l0.Writer
}

// NewLink creates a Link. Either queue can be nil to disable that direction.
func NewLink(name string, port io.ReadWriteCloser, rx, tx *l0.Queue) *Link {
	l := &Link{Name: name, Port: port}
	if rx != nil {
		l.Reader = l0.NewReader(name+".rx", port, rx)
	}
	if tx != nil {
		l.Writer = l0.NewWriter(name+".tx", port, tx)
	}
	return l
}

// WithScan makes the receive side resynchronize on start markers.
func (l *Link) WithScan(scan bool) *Link {
	if l.Reader != nil && scan {
		l.Reader.Assembler.Mode = l0.SegmentScan
	}
	return l
}

// Run implements Runnable. It returns nil when the stream reaches EOF.
// The port is closed on return.
func (l *Link) Run(ctx context.Context) error {
	defer l.Port.Close()
	runner := fx.NewRunnerWith(ctx).StopOnError()
	if l.Reader != nil {
		runner.GoNamed(l.Name+".rx", fx.RunnableFunc(l.receive))
	}
	if l.Writer != nil {
		runner.GoNamed(l.Name+".tx", l.Writer)
	}
	glog.V(1).Infof("%s: link up", l.Name)
	err := runner.Wait()
	glog.V(1).Infof("%s: link down", l.Name)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Stats returns counters of both directions.
func (l *Link) Stats() (stats l0.Stats) {
	if l.Reader != nil {
		stats = stats.Add(l.Reader.Counters.Snapshot())
	}
	if l.Writer != nil {
		stats = stats.Add(l.Writer.Counters.Snapshot())
	}
	return
}

func (l *Link) receive(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, l.Port, func() error {
		if err := l.Reader.Run(ctx); err != nil {
			return err
		}
		// stop the writer as well
		return io.EOF
	})
}
