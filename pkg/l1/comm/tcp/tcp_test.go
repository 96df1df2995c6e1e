package tcp

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	l0 "github.com/robotalks/mculink/pkg/l0/comm"
)

func startServer(t *testing.T, s *Server) (net.Addr, context.CancelFunc, <-chan error) {
	addr, err := s.Listen()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	return addr, cancel, errCh
}

func popFrame(t *testing.T, q *l0.Queue) []byte {
	f, err := q.Pop()
	require.NoError(t, err)
	return f.Payload()
}

func TestServer(t *testing.T) {
	testCases := []struct {
		name     string
		prefixed bool
		scan     bool
		data     []byte
	}{
		{"scan", false, true, []byte("x{ab}{cd}")},
		{"prefixed", true, false, []byte{4, '{', 'a', 'b', '}', 4, '{', 'c', 'd', '}'}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rx := l0.NewQueue(l0.WiFiQueueCapacity)
			s := NewServer("127.0.0.1:0", rx)
			s.Prefixed, s.Scan = tc.prefixed, tc.scan
			addr, cancel, errCh := startServer(t, s)

			conn, err := net.Dial("tcp", addr.String())
			require.NoError(t, err)
			_, err = conn.Write(tc.data)
			require.NoError(t, err)
			require.NoError(t, conn.Close())

			require.Eventually(t, func() bool { return rx.Len() == 2 }, time.Second, time.Millisecond)
			require.Equal(t, []byte("ab"), popFrame(t, rx))
			require.Equal(t, []byte("cd"), popFrame(t, rx))
			require.Eventually(t, func() bool {
				return s.Stats().FramesIn == 2
			}, time.Second, time.Millisecond)

			cancel()
			select {
			case err := <-errCh:
				require.Equal(t, context.Canceled, err)
			case <-time.After(time.Second):
				t.Fatal("server not stopped")
			}
		})
	}
}

func TestSink(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	recvCh := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		recvCh <- data
	}()

	f, err := l0.NewFrameWith([]byte("hi"))
	require.NoError(t, err)
	_, err = f.WriteTo(NewSink(ln.Addr().String()))
	require.NoError(t, err)
	select {
	case data := <-recvCh:
		require.Equal(t, []byte("{hi}"), data)
	case <-time.After(time.Second):
		t.Fatal("expect data timeout")
	}
}

func TestSinkRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	_, err = NewSink(addr).Write([]byte("{}"))
	require.Error(t, err)
}

func TestServerStatsWhileConnected(t *testing.T) {
	rx := l0.NewQueue(l0.WiFiQueueCapacity)
	s := NewServer("127.0.0.1:0", rx)
	s.Scan = true
	addr, cancel, errCh := startServer(t, s)
	defer func() {
		cancel()
		<-errCh
	}()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("{ab}"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.Stats().FramesIn == 1
	}, time.Second, time.Millisecond)

	_, err = conn.Write([]byte("{cd}"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return s.Stats().FramesIn == 2 && rx.Len() == 2
	}, time.Second, time.Millisecond)
}
