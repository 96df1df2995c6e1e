package stream

import (
	"io"

	"github.com/robotalks/mculink/pkg/l0/ring"
)

// ReadWriter implements ChunkReadWriter over a byte stream.
// Each chunk is prefixed by 1-byte length, so chunks are limited
// to ring.Capacity bytes and frame boundaries survive payloads
// containing marker bytes.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadChunk implements ChunkReader.
func (p *ReadWriter) ReadChunk() ([]byte, error) {
	var size [1]byte
	if _, err := io.ReadFull(p, size[:]); err != nil {
		return nil, err
	}
	chunk := make([]byte, size[0])
	if _, err := io.ReadFull(p, chunk); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return chunk, nil
}

// WriteChunk implements ChunkWriter.
func (p *ReadWriter) WriteChunk(chunk []byte) error {
	if len(chunk) > ring.Capacity {
		return ring.ErrCapacityExceeded
	}
	var buf [ring.Capacity + 1]byte
	buf[0] = byte(len(chunk))
	n := copy(buf[1:], chunk) + 1
	_, err := p.Write(buf[:n])
	return err
}

// Close closes the underlying stream if it's an io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
