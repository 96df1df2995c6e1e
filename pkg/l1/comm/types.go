package comm

// ChunkReader reads one unit of raw bytes as delivered by a message
// oriented link, e.g. a websocket message or an MQTT publish.
type ChunkReader interface {
	ReadChunk() ([]byte, error)
}

// ChunkWriter writes one unit of raw bytes.
type ChunkWriter interface {
	WriteChunk([]byte) error
}

// ChunkReadWriter reads/writes chunks.
type ChunkReadWriter interface {
	ChunkReader
	ChunkWriter
}

// SinkOf adapts a ChunkWriter to io.Writer, one chunk per Write.
func SinkOf(w ChunkWriter) *Sink {
	return &Sink{ChunkWriter: w}
}

// Sink is an io.Writer over a ChunkWriter.
type Sink struct {
	ChunkWriter
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	if err := s.WriteChunk(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
