package comm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustFrame(t *testing.T, p ...byte) Frame {
	f, err := NewFrameWith(p)
	require.NoError(t, err)
	return f
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(UARTQueueCapacity)
	require.Equal(t, QueueEmpty, q.State())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(mustFrame(t, byte(i))))
	}
	require.Equal(t, QueueFull, q.State())
	require.Equal(t, ErrQueueFull, q.Push(mustFrame(t, 5)))
	require.Equal(t, 5, q.Len())
	for i := 0; i < 5; i++ {
		f, err := q.Pop()
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, f.Payload())
	}
	_, err := q.Pop()
	require.Equal(t, ErrQueueEmpty, err)
	_, err = q.Peek()
	require.Equal(t, ErrQueueEmpty, err)
}

func TestQueueWrap(t *testing.T) {
	q := NewQueue(3)
	var next, expect byte
	for round := 0; round < 10; round++ {
		for q.State() != QueueFull {
			require.NoError(t, q.Push(mustFrame(t, next)))
			next++
		}
		f, err := q.Pop()
		require.NoError(t, err)
		require.Equal(t, []byte{expect}, f.Payload())
		expect++
		require.Equal(t, QueuePartial, q.State())
	}
}

func TestQueuePeekCommit(t *testing.T) {
	q := NewQueue(AltQueueCapacity)
	require.NoError(t, q.Push(mustFrame(t, 1)))
	require.NoError(t, q.Push(mustFrame(t, 2)))
	for i := 0; i < 3; i++ {
		f, err := q.Peek()
		require.NoError(t, err)
		require.Equal(t, []byte{1}, f.Payload())
		require.Equal(t, 2, q.Len())
		require.Equal(t, 0, q.head)
	}
	f, err := q.Peek()
	require.NoError(t, err)
	require.NoError(t, f.AddData([]byte{9}))
	f, err = q.Pop()
	require.NoError(t, err)
	require.Equal(t, []byte{1}, f.Payload())
	require.Equal(t, 1, q.Len())
	_, err = q.Pop()
	require.NoError(t, err)
	require.Equal(t, 0, q.head)
}

func TestQueueCapacity(t *testing.T) {
	require.Panics(t, func() { NewQueue(0) })
	require.Panics(t, func() { NewQueue(MaxQueueCapacity + 1) })
	require.Equal(t, WiFiQueueCapacity, NewQueue(WiFiQueueCapacity).Cap())
}

func TestQueueReady(t *testing.T) {
	q := NewQueue(2)
	select {
	case <-q.Ready():
		t.Fatal("unexpected ready")
	default:
	}
	require.NoError(t, q.Push(NewFrame()))
	require.NoError(t, q.Push(NewFrame()))
	<-q.Ready()
	select {
	case <-q.Ready():
		t.Fatal("ready signal should coalesce")
	default:
	}
}

func TestQueueProducerConsumer(t *testing.T) {
	const total = 1000
	q := NewQueue(UARTQueueCapacity)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if q.Push(mustFrame(t, byte(i), byte(i>>8))) == nil {
				i++
			}
		}
	}()
	for i := 0; i < total; {
		f, err := q.Peek()
		if err != nil {
			continue
		}
		require.Equal(t, []byte{byte(i), byte(i >> 8)}, f.Payload())
		popped, err := q.Pop()
		require.NoError(t, err)
		require.Equal(t, f.Payload(), popped.Payload())
		i++
	}
	wg.Wait()
}
