package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mculink/pkg/framework"
	"github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l0/ring"
)

// DefaultInterval is the default streaming interval.
const DefaultInterval = 100 * time.Millisecond

type sensorFlags struct {
	streaming atomic.Bool
	once      atomic.Bool
}

// Service handles data transfer commands and produces report frames.
// HandleCommand may be called from any number of processors, while
// Run is the only producer of every queue in Outputs.
type Service struct {
	Source  Source
	Outputs []*comm.Queue
	Poller  *framework.Poller

	Counters comm.Counters

	speed sensorFlags
	adc   sensorFlags
	table comm.PrefixTable
}

// NewService creates a Service reporting to outputs.
func NewService(src Source, interval time.Duration, outputs ...*comm.Queue) *Service {
	if src == nil {
		src = NewCounterSource()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Service{
		Source:  src,
		Outputs: outputs,
		Poller:  framework.NewPoller(interval),
	}
	s.table = comm.PrefixTable{
		s.rule(SensorSpeed, OpStop),
		s.rule(SensorSpeed, OpOnce),
		s.rule(SensorSpeed, OpStart),
		s.rule(SensorADC, OpStop),
		s.rule(SensorADC, OpOnce),
		s.rule(SensorADC, OpStart),
	}
	return s
}

// Streaming reports whether a sensor is being streamed.
func (s *Service) Streaming(sensor Sensor) bool {
	if flags := s.flags(sensor); flags != nil {
		return flags.streaming.Load()
	}
	return false
}

// HandleCommand implements comm.Handler.
func (s *Service) HandleCommand(ctx context.Context, code byte, args *ring.Buffer) error {
	matched, err := s.table.Dispatch(ctx, args)
	if matched > 0 {
		s.Poller.TriggerNext()
	}
	if err == nil && args.Len() > 0 {
		glog.V(2).Infof("telemetry: ignore trailing %s", args.String())
	}
	return err
}

// Run implements framework.Runnable.
func (s *Service) Run(ctx context.Context) error {
	return s.Poller.Run(ctx, nil, s.Report)
}

// Report builds one report frame from pending one-shot requests and
// streaming sensors, then pushes it to every output.
func (s *Service) Report(ctx context.Context) error {
	f, ok := s.BuildReport()
	if !ok {
		return nil
	}
	for _, q := range s.Outputs {
		if err := q.Push(f); err != nil {
			s.Counters.Dropped.Add(1)
			glog.V(2).Infof("telemetry: drop report %s: %v", f.String(), err)
			continue
		}
		s.Counters.FramesOut.Add(1)
	}
	return nil
}

// BuildReport consumes pending one-shot requests and returns a report
// frame. ok is false when nothing is to be reported.
func (s *Service) BuildReport() (f comm.Frame, ok bool) {
	f.AddByte(CodeDataTransfer)
	if s.speed.once.Swap(false) || s.speed.streaming.Load() {
		f.AddData([]byte{SideRight, byte(SensorSpeed)})
		f.AddF32(s.Source.Speed())
		ok = true
	}
	if s.adc.once.Swap(false) || s.adc.streaming.Load() {
		f.AddData([]byte{SideRight, byte(SensorADC)})
		f.AddU16(s.Source.ADC())
		ok = true
	}
	return
}

func (s *Service) flags(sensor Sensor) *sensorFlags {
	switch sensor {
	case SensorSpeed:
		return &s.speed
	case SensorADC:
		return &s.adc
	}
	return nil
}

func (s *Service) rule(sensor Sensor, op Op) comm.PrefixRule {
	flags := s.flags(sensor)
	return comm.PrefixRule{
		Prefix: Command(SideRight, sensor, op),
		Action: func(context.Context, *ring.Buffer) error {
			glog.V(1).Infof("telemetry: %s %s", sensor, opNames[op])
			switch op {
			case OpStop:
				flags.streaming.Store(false)
			case OpStart:
				flags.streaming.Store(true)
			case OpOnce:
				flags.once.Store(true)
			}
			return nil
		},
	}
}

var opNames = map[Op]string{
	OpStop:  "stop",
	OpOnce:  "once",
	OpStart: "start",
}
