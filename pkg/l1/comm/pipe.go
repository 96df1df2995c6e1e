package comm

import (
	"context"
	"errors"
	"io"

	fx "github.com/robotalks/mculink/pkg/framework"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
)

// Pipe connects a message oriented link to a pair of frame queues.
// Every received chunk is a unit fed to the receive queue, and frames
// from the transmit queue are written one chunk each.
type Pipe struct {
	Name       string
	ReadWriter ChunkReadWriter
	Reader     *l0.Reader
	Writer     *l0.Writer
}

// NewPipe creates a Pipe. Either queue can be nil to disable that direction.
func NewPipe(name string, rw ChunkReadWriter, rx, tx *l0.Queue) *Pipe {
	p := &Pipe{Name: name, ReadWriter: rw}
	if rx != nil {
		p.Reader = l0.NewReader(name+".rx", nil, rx)
	}
	if tx != nil {
		p.Writer = l0.NewWriter(name+".tx", SinkOf(rw), tx)
	}
	return p
}

// Run implements Runnable. It returns nil when the link reaches EOF.
// The link is closed on return if it implements io.Closer.
func (p *Pipe) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx).StopOnError()
	if p.Writer != nil {
		runner.GoNamed(p.Name+".tx", p.Writer)
	}
	runner.GoNamed(p.Name+".rx", fx.RunnableFunc(p.receive))
	err := runner.Wait()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (p *Pipe) receive(ctx context.Context) error {
	fn := func() error {
		for {
			chunk, err := p.ReadWriter.ReadChunk()
			if err != nil {
				return err
			}
			if p.Reader != nil {
				p.Reader.FeedUnit(chunk)
			}
		}
	}
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, fn)
	}
	return fx.RunWithContext(ctx, fn)
}

// Stats returns counters of both directions.
func (p *Pipe) Stats() (stats l0.Stats) {
	if p.Reader != nil {
		stats = stats.Add(p.Reader.Counters.Snapshot())
	}
	if p.Writer != nil {
		stats = stats.Add(p.Writer.Counters.Snapshot())
	}
	return
}
