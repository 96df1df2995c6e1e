package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mculink/pkg/l0/ring"
)

func TestFrameEncode(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		expect  []byte
	}{
		{"empty", nil, []byte{0x7B, 0x7D}},
		{"hello", []byte("hello"), []byte{0x7B, 'h', 'e', 'l', 'l', 'o', 0x7D}},
		{"markers in payload", []byte{0x7D, 0x7B}, []byte{0x7B, 0x7D, 0x7B, 0x7D}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFrameWith(tc.payload)
			require.NoError(t, err)
			require.Equal(t, tc.expect, f.Bytes())
			raw, err := f.Encode()
			require.NoError(t, err)
			require.Equal(t, len(tc.payload)+2, raw.Len())

			var buf bytes.Buffer
			n, err := f.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())

			decoded, err := Decode(&raw)
			require.NoError(t, err)
			data := decoded.Data()
			require.Equal(t, len(tc.payload), data.Len())
			require.True(t, bytes.Equal(tc.payload, data.Bytes()))
		})
	}
}

func TestFrameDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"single", []byte{0x7B}},
		{"no start", []byte{'a', 'b', 0x7D}},
		{"no end", []byte{0x7B, 'a', 'b'}},
		{"swapped", []byte{0x7D, 0x7B}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBytes(tc.raw)
			require.Equal(t, ErrMalformedFrame, err)
		})
	}
}

func TestFrameRoundTripMaxPayload(t *testing.T) {
	payload := make([]byte, MaxPayloadSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	f, err := NewFrameWith(payload)
	require.NoError(t, err)
	require.Equal(t, ErrCapacityExceeded, f.AddData([]byte{1}))
	require.Equal(t, MaxPayloadSize, f.Len())

	decoded, err := DecodeBytes(f.Bytes())
	require.NoError(t, err)
	require.Equal(t, payload, decoded.Payload())

	_, err = NewFrameWith(make([]byte, MaxPayloadSize+1))
	require.Equal(t, ErrCapacityExceeded, err)
}

func TestFrameDecodeOffsetHead(t *testing.T) {
	var raw ring.Buffer
	require.NoError(t, raw.Push(make([]byte, 248)))
	require.NoError(t, raw.Push([]byte{0x7B, 1, 2, 3, 0x7D}))
	require.NoError(t, raw.RemoveFront(248))
	f, err := Decode(&raw)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, f.Payload())
	require.Equal(t, 5, raw.Len())
}

func TestFrameCode(t *testing.T) {
	f := NewFrame()
	_, ok := f.Code()
	require.False(t, ok)

	var args ring.Buffer
	require.NoError(t, args.PushU16(0x1234))
	require.NoError(t, f.AddData([]byte{0x10}))
	require.NoError(t, f.AddBuffer(&args))
	code, ok := f.Code()
	require.True(t, ok)
	require.Equal(t, byte(0x10), code)
	require.Equal(t, []byte{0x7B, 0x10, 0x12, 0x34, 0x7D}, f.Bytes())
	require.Equal(t, "101234", f.String())

	require.NoError(t, f.AddF32(1))
	require.Equal(t, 7, f.Len())
	require.NoError(t, f.AddByte(0xff))
	require.Equal(t, []byte{0x10, 0x12, 0x34, 0x3f, 0x80, 0, 0, 0xff}, f.Payload())
}

func TestFrameBuildersRespectMaxPayload(t *testing.T) {
	testCases := []struct {
		name string
		free int
		add  func(f *Frame) error
	}{
		{"byte", 0, func(f *Frame) error { return f.AddByte(1) }},
		{"u16", 1, func(f *Frame) error { return f.AddU16(0x1234) }},
		{"f32", 3, func(f *Frame) error { return f.AddF32(1) }},
		{"data", 2, func(f *Frame) error { return f.AddData([]byte{1, 2, 3}) }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFrameWith(make([]byte, MaxPayloadSize-tc.free))
			require.NoError(t, err)
			require.Equal(t, ErrCapacityExceeded, tc.add(&f))
			require.Equal(t, MaxPayloadSize-tc.free, f.Len())
			require.Len(t, f.Bytes(), f.Len()+2)
		})
	}
}

func TestFramePayloadIsCopy(t *testing.T) {
	f, err := NewFrameWith([]byte{1, 2})
	require.NoError(t, err)
	p := f.Payload()
	p[0] = 9
	require.Equal(t, []byte{1, 2}, f.Payload())
}

func TestFrameOversizedRefused(t *testing.T) {
	var f Frame
	require.NoError(t, f.payload.Push(make([]byte, ring.Capacity)))

	_, err := f.Encode()
	require.Equal(t, ErrCapacityExceeded, err)
	require.Nil(t, f.Bytes())
	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.Equal(t, ErrCapacityExceeded, err)
	require.Zero(t, n)
	require.Zero(t, buf.Len())

	q := NewQueue(UARTQueueCapacity)
	require.Equal(t, ErrCapacityExceeded, q.Push(f))
	require.Zero(t, q.Len())
}
