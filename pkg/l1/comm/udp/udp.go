// Package udp exchanges frames as datagrams, one frame per datagram.
package udp

import (
	"context"
	"net"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/mculink/pkg/framework"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l0/ring"
)

// Server feeds every received datagram into Rx as a complete unit.
type Server struct {
	Addr   string
	Reader *l0.Reader

	conn *net.UDPConn
}

// NewServer creates a Server.
func NewServer(addr string, rx *l0.Queue) *Server {
	return &Server{Addr: addr, Reader: l0.NewReader("udp.rx", nil, rx)}
}

// Listen binds the socket and returns the bound address.
func (s *Server) Listen() (net.Addr, error) {
	addr, err := net.ResolveUDPAddr("udp", s.Addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn.LocalAddr(), nil
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	if s.conn == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	return fx.RunWithContextCloser(ctx, s.conn, func() error {
		// a datagram larger than a frame is truncated and then rejected
		var buf [ring.Capacity + 1]byte
		for {
			n, from, err := s.conn.ReadFromUDP(buf[:])
			if err != nil {
				return err
			}
			if n > ring.Capacity {
				s.Reader.Counters.Overflows.Add(1)
				glog.V(2).Infof("udp: oversized datagram from %s", from)
				continue
			}
			s.Reader.FeedUnit(buf[:n])
		}
	})
}

// Stats returns receive counters.
func (s *Server) Stats() l0.Stats {
	return s.Reader.Counters.Snapshot()
}

// Sink sends one datagram to Addr per write.
type Sink struct {
	Addr string

	conn *net.UDPConn
	lock sync.Mutex
}

// NewSink creates a Sink.
func NewSink(addr string) *Sink {
	return &Sink{Addr: addr}
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn == nil {
		addr, err := net.ResolveUDPAddr("udp", s.Addr)
		if err != nil {
			return 0, err
		}
		if s.conn, err = net.DialUDP("udp", nil, addr); err != nil {
			return 0, err
		}
	}
	n, err := s.conn.Write(p)
	if err != nil {
		s.conn.Close()
		s.conn = nil
	}
	return n, err
}

// Close releases the socket.
func (s *Sink) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
