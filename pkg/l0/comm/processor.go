package comm

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/mculink/pkg/framework"
)

// DefaultBatch is the max frames handled in one pass.
const DefaultBatch = 5

// Processor is the consumer task of a receive queue. It pops frames,
// strips the leading command code and hands the rest to Handler.
// Handler errors are logged and counted, they never stop the task.
type Processor struct {
	Name     string
	Queue    *Queue
	Handler  Handler
	Batch    int
	Poller   framework.Poller
	Counters Counters
}

// NewProcessor creates a Processor.
func NewProcessor(name string, q *Queue, h Handler) *Processor {
	return &Processor{
		Name:    name,
		Queue:   q,
		Handler: h,
		Batch:   DefaultBatch,
		Poller:  framework.Poller{Interval: framework.DefaultPollInterval},
	}
}

// Run implements framework.Runnable.
func (p *Processor) Run(ctx context.Context) error {
	return p.Poller.Run(ctx, p.Queue.Ready(), p.Process)
}

// Process handles up to Batch queued frames.
func (p *Processor) Process(ctx context.Context) error {
	batch := p.Batch
	if batch <= 0 {
		batch = DefaultBatch
	}
	for i := 0; i < batch; i++ {
		f, err := p.Queue.Pop()
		if err != nil {
			return nil
		}
		p.dispatch(ctx, &f)
	}
	if p.Queue.Len() > 0 {
		p.Poller.TriggerNext()
	}
	return nil
}

func (p *Processor) dispatch(ctx context.Context, f *Frame) {
	args := f.Data()
	code, err := args.Byte(0)
	if err != nil {
		p.Counters.Malformed.Add(1)
		glog.V(2).Infof("%s: %v", p.Name, ErrEmptyCommand)
		return
	}
	args.RemoveFront(1)
	p.Counters.FramesIn.Add(1)
	glog.V(2).Infof("%s: command 0x%02x args %s", p.Name, code, args.String())
	if p.Handler == nil {
		err = &UnknownCommandError{Code: code}
	} else {
		err = p.Handler.HandleCommand(ctx, code, &args)
	}
	if err != nil {
		p.Counters.Errors.Add(1)
		glog.Warningf("%s: command 0x%02x: %v", p.Name, code, err)
	}
}
