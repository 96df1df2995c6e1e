package device

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sort"

	"github.com/golang/glog"

	fx "github.com/robotalks/mculink/pkg/framework"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l1"
	"github.com/robotalks/mculink/pkg/l1/comm"
	"github.com/robotalks/mculink/pkg/l1/comm/mqtt"
	"github.com/robotalks/mculink/pkg/l1/comm/tcp"
	"github.com/robotalks/mculink/pkg/l1/comm/uart"
	"github.com/robotalks/mculink/pkg/l1/comm/udp"
	"github.com/robotalks/mculink/pkg/l1/comm/websocket"
	"github.com/robotalks/mculink/pkg/telemetry"
)

// Link is a transport with its pair of queues. Rx is consumed by
// Processor and Tx is fed by the telemetry service only.
type Link struct {
	Name      string
	Rx        *l0.Queue
	Tx        *l0.Queue
	Processor *l0.Processor
	Tasks     []fx.Runnable
	Stats     func() l0.Stats
}

type listener interface {
	Listen() (net.Addr, error)
}

// Env is the env of mculinkd.
type Env struct {
	Config *Config
	// Info is the announced device info, listing enabled links.
	Info      l1.DeviceInfo
	Mux       *l0.Mux
	Telemetry *telemetry.Service
	Links     []*Link

	listeners map[string]listener
	closers   []io.Closer
}

var dialUART = uart.Dial

// LinkNames returns the names of enabled links.
func (c *Config) LinkNames() []string {
	var names []string
	for _, l := range []struct {
		name    string
		enabled bool
	}{
		{"uart", c.UART.Port != ""},
		{"ws", c.WebSocketAddr != ""},
		{"mqtt", c.MQTTBrokerURL != ""},
		{"tcp", c.TCPAddr != ""},
		{"udp", c.UDPAddr != ""},
	} {
		if l.enabled {
			names = append(names, l.name)
		}
	}
	return names
}

// NewEnv creates Env from config. Resources opened before a failure
// are released.
func (c *Config) NewEnv() (_ *Env, err error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("device type and id must be specified")
	}
	e := &Env{
		Config:    c,
		Info:      c.Info,
		Mux:       l0.NewMux(),
		Telemetry: telemetry.NewService(nil, c.TelemetryInterval),
		listeners: make(map[string]listener),
	}
	e.Info.Meta.Links = c.LinkNames()
	e.Mux.Handle(telemetry.CodeDataTransfer, e.Telemetry)
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	if c.UART.Port != "" {
		link := e.newLink("uart", l0.UARTQueueCapacity, true)
		l, err := dialUART(c.UART, link.Rx, link.Tx)
		if err != nil {
			return nil, fmt.Errorf("open serial port %s error: %w", c.UART.Port, err)
		}
		e.closers = append(e.closers, l.Port)
		link.Tasks, link.Stats = append(link.Tasks, l), l.Stats
	}
	if c.WebSocketAddr != "" {
		link := e.newLink("ws", l0.WiFiQueueCapacity, true)
		s := websocket.NewServer(c.WebSocketAddr, link.Rx, link.Tx)
		link.Tasks, link.Stats = append(link.Tasks, s), s.Stats
		e.listeners[link.Name] = s
	}
	if c.MQTTBrokerURL != "" {
		link := e.newLink("mqtt", l0.WiFiQueueCapacity, true)
		a, err := mqtt.NewAnnouncer(c.MQTTBrokerURL, e.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT announcer error: %w", err)
		}
		pipe := comm.NewPipe("mqtt", a.ReadWriter(), link.Rx, link.Tx)
		link.Tasks, link.Stats = append(link.Tasks, a, pipe), pipe.Stats
	}
	if c.TCPAddr != "" {
		link := e.newLink("tcp", l0.WiFiQueueCapacity, c.TCPTarget != "")
		s := tcp.NewServer(c.TCPAddr, link.Rx)
		s.Prefixed, s.Scan = c.TCPPrefixed, c.TCPScan
		link.Tasks, link.Stats = append(link.Tasks, s), s.Stats
		e.listeners[link.Name] = s
		if link.Tx != nil {
			e.addWriter(link, tcp.NewSink(c.TCPTarget))
		}
	}
	if c.UDPAddr != "" {
		link := e.newLink("udp", l0.WiFiQueueCapacity, c.UDPTarget != "")
		s := udp.NewServer(c.UDPAddr, link.Rx)
		link.Tasks, link.Stats = append(link.Tasks, s), s.Stats
		e.listeners[link.Name] = s
		if link.Tx != nil {
			e.addWriter(link, udp.NewSink(c.UDPTarget))
		}
	}
	if len(e.Links) == 0 {
		return nil, fmt.Errorf("at least one link is required")
	}
	return e, nil
}

// Close releases resources opened by NewEnv. It is only needed when
// the links are not run, as running links close their own ports.
func (e *Env) Close() error {
	errs := &fx.AggregatedError{}
	for _, c := range e.closers {
		errs.Add(c.Close())
	}
	e.closers = nil
	return errs.Aggregate()
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

func (e *Env) newLink(name string, capacity int, withTx bool) *Link {
	if e.Config.AltQueues {
		capacity = l0.AltQueueCapacity
	}
	link := &Link{Name: name, Rx: l0.NewQueue(capacity)}
	if withTx {
		link.Tx = l0.NewQueue(capacity)
		e.Telemetry.Outputs = append(e.Telemetry.Outputs, link.Tx)
	}
	link.Processor = l0.NewProcessor(name+".proc", link.Rx, e.Mux)
	e.Links = append(e.Links, link)
	return link
}

func (e *Env) addWriter(link *Link, sink io.Writer) {
	w := l0.NewWriter(link.Name+".tx", sink, link.Tx)
	link.Tasks = append(link.Tasks, w)
	rxStats := link.Stats
	link.Stats = func() l0.Stats {
		return rxStats().Add(w.Counters.Snapshot())
	}
}

// Listen binds all listening links and returns bound addresses by
// link name. Links not bound here listen when they start.
func (e *Env) Listen() (map[string]net.Addr, error) {
	addrs := make(map[string]net.Addr)
	for name, l := range e.listeners {
		addr, err := l.Listen()
		if err != nil {
			return nil, fmt.Errorf("%s listen error: %w", name, err)
		}
		addrs[name] = addr
	}
	return addrs, nil
}

// Go spawns all tasks with runner.
func (e *Env) Go(runner *fx.Runner) {
	for _, link := range e.Links {
		for n, task := range link.Tasks {
			runner.GoNamed(fmt.Sprintf("%s.%d", link.Name, n), task)
		}
		runner.GoNamed(link.Processor.Name, link.Processor)
	}
	runner.GoNamed("telemetry", e.Telemetry)
	if e.Config.StatsInterval > 0 {
		runner.GoNamed("stats", fx.RunnableFunc(e.reportStats))
	}
}

// Stats returns counters by link name. Processors are reported as
// "<link>.proc" and reports produced as "telemetry".
func (e *Env) Stats() map[string]l0.Stats {
	stats := map[string]l0.Stats{
		"telemetry": e.Telemetry.Counters.Snapshot(),
	}
	for _, link := range e.Links {
		stats[link.Name] = link.Stats()
		stats[link.Processor.Name] = link.Processor.Counters.Snapshot()
	}
	return stats
}

func (e *Env) reportStats(ctx context.Context) error {
	poller := fx.NewPoller(e.Config.StatsInterval)
	started := false
	return poller.Run(ctx, nil, func(context.Context) error {
		if !started {
			started = true
			return nil
		}
		stats := e.Stats()
		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := stats[name]
			glog.Infof("stats %s: in=%d out=%d dropped=%d malformed=%d overflows=%d retries=%d errors=%d",
				name, s.FramesIn, s.FramesOut, s.Dropped, s.Malformed, s.Overflows, s.Retries, s.Errors)
		}
		return nil
	})
}
