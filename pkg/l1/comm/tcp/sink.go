package tcp

import (
	"net"
	"time"
)

// DefaultDialTimeout bounds connecting to the peer.
const DefaultDialTimeout = time.Second

// Sink sends every write over a fresh connection to Addr: connect,
// send and close. A failed write is retried by the queue writer.
type Sink struct {
	Addr    string
	Timeout time.Duration
}

// NewSink creates a Sink.
func NewSink(addr string) *Sink {
	return &Sink{Addr: addr, Timeout: DefaultDialTimeout}
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := net.DialTimeout("tcp", s.Addr, timeout)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	conn.SetWriteDeadline(time.Now().Add(timeout))
	return conn.Write(p)
}
