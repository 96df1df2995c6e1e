package comm

import (
	"io"

	"github.com/robotalks/mculink/pkg/l0/ring"
)

const (
	// StartMarker begins every frame.
	StartMarker byte = 0x7B
	// EndMarker terminates every frame.
	EndMarker byte = 0x7D
	// MaxPayloadSize is the largest payload fitting an encoded frame
	// in a ring.Buffer.
	MaxPayloadSize = ring.Capacity - 2
)

// Frame is a framed unit. The markers are constant so only the
// payload is stored.
type Frame struct {
	payload ring.Buffer
}

// NewFrame creates an empty Frame.
func NewFrame() Frame {
	return Frame{}
}

// NewFrameWith creates a Frame with payload p.
func NewFrameWith(p []byte) (f Frame, err error) {
	err = f.AddData(p)
	return
}

// Decode extracts the payload from one encoded frame.
func Decode(raw *ring.Buffer) (f Frame, err error) {
	n := raw.Len()
	if n < 2 {
		return f, ErrMalformedFrame
	}
	if first, _ := raw.Byte(0); first != StartMarker {
		return f, ErrMalformedFrame
	}
	if last, _ := raw.Byte(n - 1); last != EndMarker {
		return f, ErrMalformedFrame
	}
	f.payload = *raw
	f.payload.RemoveRange(n-1, 1)
	f.payload.RemoveFront(1)
	return f, nil
}

// DecodeBytes is Decode over a plain byte slice.
func DecodeBytes(p []byte) (Frame, error) {
	raw, err := ring.FromBytes(p)
	if err != nil {
		return Frame{}, ErrMalformedFrame
	}
	return Decode(&raw)
}

// AddData appends p to the payload. Nothing is appended if the payload
// would exceed MaxPayloadSize.
func (f *Frame) AddData(p []byte) error {
	if f.payload.Len()+len(p) > MaxPayloadSize {
		return ErrCapacityExceeded
	}
	return f.payload.Push(p)
}

// AddBuffer appends the content of b to the payload.
func (f *Frame) AddBuffer(b *ring.Buffer) error {
	var p [ring.Capacity]byte
	return f.AddData(p[:b.CopyTo(p[:])])
}

// AddByte appends v to the payload.
func (f *Frame) AddByte(v byte) error {
	return f.AddData([]byte{v})
}

// AddU16 appends v in big-endian order.
func (f *Frame) AddU16(v uint16) error {
	if f.payload.Len()+2 > MaxPayloadSize {
		return ErrCapacityExceeded
	}
	return f.payload.PushU16(v)
}

// AddF32 appends the IEEE-754 bits of v in big-endian order.
func (f *Frame) AddF32(v float32) error {
	if f.payload.Len()+4 > MaxPayloadSize {
		return ErrCapacityExceeded
	}
	return f.payload.PushF32(v)
}

// Payload returns a copy of the payload bytes.
func (f *Frame) Payload() []byte {
	return f.payload.Bytes()
}

// Data returns a copy of the payload.
func (f *Frame) Data() ring.Buffer {
	return f.payload
}

// Len returns the payload length.
func (f *Frame) Len() int {
	return f.payload.Len()
}

// Code returns the leading command code of the payload.
func (f *Frame) Code() (byte, bool) {
	b, err := f.payload.Byte(0)
	return b, err == nil
}

// Encode produces the wire form of the frame, always payload length
// plus 2 bytes. A payload over MaxPayloadSize is refused with
// ErrCapacityExceeded.
func (f *Frame) Encode() (raw ring.Buffer, err error) {
	if f.payload.Len() > MaxPayloadSize {
		return raw, ErrCapacityExceeded
	}
	var p [MaxPayloadSize]byte
	n := f.payload.CopyTo(p[:])
	raw.PushByte(StartMarker)
	raw.Push(p[:n])
	raw.PushByte(EndMarker)
	return raw, nil
}

// Bytes returns encoded bytes for sending, nil if the frame can't
// be encoded.
func (f *Frame) Bytes() []byte {
	raw, err := f.Encode()
	if err != nil {
		return nil
	}
	return raw.Bytes()
}

// WriteTo writes the encoded frame to w in a single Write.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	raw, err := f.Encode()
	if err != nil {
		return 0, err
	}
	var p [ring.Capacity]byte
	n, err := w.Write(p[:raw.CopyTo(p[:])])
	return int64(n), err
}

// String renders the payload as hex.
func (f *Frame) String() string {
	return f.payload.String()
}
