package mqtt

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/mculink/pkg/l1"
)

// Topic suffixes relative to a device name.
const (
	TopicMeta = "/meta"
	TopicCmd  = "/cmd"
	TopicMsg  = "/msg"
)

// ReadWriter implements ChunkReadWriter, each chunk is the payload
// of an Envelope.
type ReadWriter struct {
	PubSub   *PubSub
	Device   string
	SubTopic string
	PubTopic string

	seq     atomic.Uint64
	sub     *Subscription
	chunkCh chan []byte
	closed  bool
	lock    sync.Mutex
}

// DefaultChunkBuffer is the number of received chunks buffered
// before dropping.
const DefaultChunkBuffer = 16

// NewReadWriter creates the ReadWriter.
func NewReadWriter(q *PubSub) *ReadWriter {
	return &ReadWriter{PubSub: q, chunkCh: make(chan []byte, DefaultChunkBuffer)}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForDevice sets topics for the device side:
// SubTopic = name/cmd
// PubTopic = name/msg
func (p *ReadWriter) ForDevice(ref l1.DeviceRef) *ReadWriter {
	p.Device = ref.Name()
	return p.WithTopics(p.Device+TopicCmd, p.Device+TopicMsg)
}

// ForClient sets topics for the host tools side:
// SubTopic = name/msg
// PubTopic = name/cmd
func (p *ReadWriter) ForClient(ref l1.DeviceRef) *ReadWriter {
	p.Device = ref.Name()
	return p.WithTopics(p.Device+TopicMsg, p.Device+TopicCmd)
}

// Open subscribes SubTopic.
func (p *ReadWriter) Open() *ReadWriter {
	p.sub = p.PubSub.Sub(p.SubTopic, Handler(p.handleMsg))
	return p
}

// ReadChunk implements ChunkReader.
func (p *ReadWriter) ReadChunk() ([]byte, error) {
	chunk, ok := <-p.chunkCh
	if !ok {
		return nil, io.EOF
	}
	return chunk, nil
}

// WriteChunk implements ChunkWriter.
func (p *ReadWriter) WriteChunk(chunk []byte) error {
	data, err := EncodeEnvelope(p.Device, p.seq.Add(1), chunk)
	if err != nil {
		return err
	}
	token := p.PubSub.Pub(p.PubTopic, data)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil
	}
	p.closed = true
	close(p.chunkCh)
	p.lock.Unlock()
	if p.sub != nil {
		return p.sub.Close()
	}
	return nil
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		glog.Warningf("%s: bad envelope: %v", topic, err)
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return
	}
	select {
	case p.chunkCh <- env.Payload:
	default:
		glog.Warningf("%s: drop envelope seq %d", topic, env.Seq)
	}
}
