// Package tcp receives frames from TCP connections and sends frames
// to a TCP peer.
package tcp

import (
	"context"
	"net"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/mculink/pkg/framework"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l1/comm"
	"github.com/robotalks/mculink/pkg/l1/comm/stream"
)

// Server accepts connections and feeds received frames into Rx.
// Connections are served one after another so Rx keeps a single
// producer. A connection is read until the peer closes it.
type Server struct {
	Addr string
	Rx   *l0.Queue
	// Prefixed expects every chunk to be prefixed by a length byte,
	// otherwise the connection carries marker delimited frames.
	Prefixed bool
	// Scan resynchronizes on start markers in unprefixed mode.
	Scan bool

	listener net.Listener
	statLock sync.Mutex
	stats    l0.Stats
	current  func() l0.Stats
}

// NewServer creates a Server.
func NewServer(addr string, rx *l0.Queue) *Server {
	return &Server{Addr: addr, Rx: rx}
}

// Listen starts listening and returns the bound address.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	return fx.RunWithContextCloser(ctx, s.listener, func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			s.serve(ctx, conn)
		}
	})
}

// Stats returns accumulated counters of served connections,
// including the one being served.
func (s *Server) Stats() l0.Stats {
	s.statLock.Lock()
	defer s.statLock.Unlock()
	if s.current != nil {
		return s.stats.Add(s.current())
	}
	return s.stats
}

func (s *Server) track(stats func() l0.Stats) {
	s.statLock.Lock()
	s.current = stats
	s.statLock.Unlock()
}

func (s *Server) untrack() {
	s.statLock.Lock()
	s.stats = s.stats.Add(s.current())
	s.current = nil
	s.statLock.Unlock()
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	glog.V(1).Infof("tcp: %s connected", remote)
	var (
		task  fx.Runnable
		stats func() l0.Stats
	)
	if s.Prefixed {
		pipe := comm.NewPipe("tcp", stream.New(conn), s.Rx, nil)
		task, stats = pipe, pipe.Stats
	} else {
		link := stream.NewLink("tcp", conn, s.Rx, nil).WithScan(s.Scan)
		task, stats = link, link.Stats
	}
	s.track(stats)
	if err := task.Run(ctx); err != nil && ctx.Err() == nil {
		glog.Warningf("tcp: %s: %v", remote, err)
	}
	s.untrack()
	glog.V(1).Infof("tcp: %s disconnected", remote)
}
