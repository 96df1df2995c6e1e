package ring

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"
)

// Capacity is the fixed size of every Buffer in bytes.
// Length fields on the wire are single bytes, hence 255.
const Capacity = 255

// Buffer is a fixed-capacity circular byte container.
// The zero value is an empty buffer ready to use.
type Buffer struct {
	data   [Capacity]byte
	head   uint16
	length uint16
}

// FromBytes creates a Buffer holding a copy of p.
func FromBytes(p []byte) (b Buffer, err error) {
	err = b.Push(p)
	return
}

// Len returns the number of valid bytes.
func (b *Buffer) Len() int {
	return int(b.length)
}

// Cap returns the capacity.
func (b *Buffer) Cap() int {
	return Capacity
}

// Available returns how many more bytes can be pushed.
func (b *Buffer) Available() int {
	return Capacity - int(b.length)
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.head, b.length = 0, 0
}

// Push appends p after the logical end. It fails atomically with
// ErrCapacityExceeded if p doesn't fit.
func (b *Buffer) Push(p []byte) error {
	n := len(p)
	if int(b.length)+n > Capacity {
		return ErrCapacityExceeded
	}
	if n == 0 {
		return nil
	}
	if int(b.head)+int(b.length)+n > Capacity {
		b.Realign()
	}
	copy(b.data[int(b.head)+int(b.length):], p)
	b.length += uint16(n)
	return nil
}

// PushByte appends a single byte.
func (b *Buffer) PushByte(v byte) error {
	var p [1]byte
	p[0] = v
	return b.Push(p[:])
}

// PushU16 appends v in big-endian order.
func (b *Buffer) PushU16(v uint16) error {
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], v)
	return b.Push(p[:])
}

// PushF32 appends the IEEE-754 bits of v in big-endian order.
func (b *Buffer) PushF32(v float32) error {
	var p [4]byte
	binary.BigEndian.PutUint32(p[:], math.Float32bits(v))
	return b.Push(p[:])
}

// Byte returns the logical byte at index i.
func (b *Buffer) Byte(i int) (byte, error) {
	if i < 0 || i >= int(b.length) {
		return 0, ErrIndexOutOfRange
	}
	return b.data[(int(b.head)+i)%Capacity], nil
}

// StartsWith reports whether the logical content begins with prefix.
func (b *Buffer) StartsWith(prefix []byte) bool {
	if int(b.length) < len(prefix) {
		return false
	}
	first, second := b.segments()
	if len(prefix) <= len(first) {
		return string(first[:len(prefix)]) == string(prefix)
	}
	return string(first) == string(prefix[:len(first)]) &&
		string(second[:len(prefix)-len(first)]) == string(prefix[len(first):])
}

// RemoveFront drops n bytes from the front.
func (b *Buffer) RemoveFront(n int) error {
	return b.RemoveRange(0, n)
}

// RemoveRange removes size logical bytes starting at offset, i.e. the
// half-open range [offset, offset+size).
//
// The cases are checked in order:
//   - offset out of range: ErrIndexOutOfRange, nothing changes;
//   - size 0: nothing changes;
//   - size covers the whole length: the buffer is cleared;
//   - offset 0: head advances, O(1);
//   - range reaches the end: length truncates to offset, O(1);
//   - otherwise the buffer is realigned and the tail shifted left.
func (b *Buffer) RemoveRange(offset, size int) error {
	length := int(b.length)
	switch {
	case offset < 0 || size < 0 || offset >= length:
		return ErrIndexOutOfRange
	case size == 0:
	case size >= length:
		b.Reset()
	case offset == 0:
		b.head = uint16((int(b.head) + size) % Capacity)
		b.length -= uint16(size)
	case offset+size >= length:
		b.length = uint16(offset)
	default:
		b.Realign()
		copy(b.data[offset:length-size], b.data[offset+size:length])
		b.length -= uint16(size)
	}
	return nil
}

// Realign rotates the storage in place so the logical content starts at
// physical index 0.
func (b *Buffer) Realign() {
	if b.length == 0 {
		b.head = 0
		return
	}
	if b.head == 0 {
		return
	}
	h := int(b.head)
	reverse(b.data[:h])
	reverse(b.data[h:])
	reverse(b.data[:])
	b.head = 0
}

// CopyTo copies the logical content into dst and returns the number of
// bytes copied.
func (b *Buffer) CopyTo(dst []byte) int {
	first, second := b.segments()
	n := copy(dst, first)
	return n + copy(dst[n:], second)
}

// Bytes returns a copy of the logical content.
func (b *Buffer) Bytes() []byte {
	p := make([]byte, b.length)
	b.CopyTo(p)
	return p
}

// WriteTo writes the logical content to w.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	first, second := b.segments()
	for _, seg := range [2][]byte{first, second} {
		if len(seg) == 0 {
			continue
		}
		var k int
		k, err = w.Write(seg)
		n += int64(k)
		if err != nil {
			return
		}
	}
	return
}

// Equal compares logical content.
func (b *Buffer) Equal(other *Buffer) bool {
	if b.length != other.length {
		return false
	}
	for i := 0; i < int(b.length); i++ {
		if b.data[(int(b.head)+i)%Capacity] != other.data[(int(other.head)+i)%Capacity] {
			return false
		}
	}
	return true
}

// String renders the content as hex for logging.
func (b *Buffer) String() string {
	var p [Capacity]byte
	n := b.CopyTo(p[:])
	return hex.EncodeToString(p[:n])
}

// segments returns the logical content as at most two views of storage.
func (b *Buffer) segments() (first, second []byte) {
	head, end := int(b.head), int(b.head)+int(b.length)
	if end <= Capacity {
		return b.data[head:end], nil
	}
	return b.data[head:], b.data[:end-Capacity]
}

func reverse(p []byte) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
