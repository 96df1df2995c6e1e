package udp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	l0 "github.com/robotalks/mculink/pkg/l0/comm"
)

func TestServerAndSink(t *testing.T) {
	rx := l0.NewQueue(l0.WiFiQueueCapacity)
	s := NewServer("127.0.0.1:0", rx)
	addr, err := s.Listen()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	sink := NewSink(addr.String())
	defer sink.Close()
	for _, data := range [][]byte{
		[]byte("{a"),
		[]byte("{bc}"),
		make([]byte, 300),
	} {
		_, err := sink.Write(data)
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		return s.Stats().Overflows == 1
	}, time.Second, time.Millisecond)

	f, err := rx.Pop()
	require.NoError(t, err)
	require.Equal(t, []byte("bc"), f.Payload())
	require.Equal(t, 0, rx.Len())
	stats := s.Stats()
	require.Equal(t, uint64(1), stats.FramesIn)
	require.Equal(t, uint64(1), stats.Malformed)

	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("server not stopped")
	}
}

func TestWriterOverSink(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer conn.Close()

	tx := l0.NewQueue(l0.WiFiQueueCapacity)
	sink := NewSink(conn.LocalAddr().String())
	defer sink.Close()
	w := l0.NewWriter("udp.tx", sink, tx)
	f, err := l0.NewFrameWith([]byte{0x10, 0x01, 0x00})
	require.NoError(t, err)
	require.NoError(t, tx.Push(f))
	require.NoError(t, w.Flush(context.Background()))
	require.Equal(t, 0, tx.Len())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 300)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x7B, 0x10, 0x01, 0x00, 0x7D}, buf[:n])
}
