package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/mculink/pkg/framework"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l1/comm"
)

// DefaultPath is the HTTP path serving the link.
const DefaultPath = "/link"

// Server accepts websocket links. Only one connection is served
// at a time so the queues keep a single producer and consumer;
// later connections wait until the current one closes.
type Server struct {
	Addr string
	Path string
	Rx   *l0.Queue
	Tx   *l0.Queue

	ctx      context.Context
	listener net.Listener
	connLock sync.Mutex
	statLock sync.Mutex
	stats    l0.Stats
	current  func() l0.Stats
}

// NewServer creates a Server.
func NewServer(addr string, rx, tx *l0.Queue) *Server {
	return &Server{Addr: addr, Path: DefaultPath, Rx: rx, Tx: tx}
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
	s.ctx = ctx
	mux := http.NewServeMux()
	mux.Handle(s.Path, websocket.Handler(s.serve))
	srv := &http.Server{Handler: mux}
	err := fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		return srv.Serve(s.listener)
	})
	if err == http.ErrServerClosed {
		return nil
	}
	return err
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

func (s *Server) serve(conn *websocket.Conn) {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	remote := conn.Request().RemoteAddr
	glog.Infof("websocket: %s connected", remote)
	pipe := comm.NewPipe("ws", New(conn), s.Rx, s.Tx)
	s.track(pipe.Stats)
	if err := pipe.Run(s.ctx); err != nil {
		glog.Warningf("websocket: %s: %v", remote, err)
	}
	s.untrack()
	glog.Infof("websocket: %s disconnected", remote)
}
