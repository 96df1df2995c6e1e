package ring

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func seq(from, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(from + i)
	}
	return p
}

// wrapped returns a buffer whose content p starts at physical index head.
func wrapped(t *testing.T, head int, p []byte) *Buffer {
	var b Buffer
	b.head = uint16(head)
	for i, v := range p {
		b.data[(head+i)%Capacity] = v
	}
	b.length = uint16(len(p))
	require.True(t, bytes.Equal(p, b.Bytes()))
	return &b
}

func TestPush(t *testing.T) {
	var b Buffer
	require.NoError(t, b.Push(seq(0, 200)))
	require.Equal(t, 200, b.Len())
	before := b
	require.Equal(t, ErrCapacityExceeded, b.Push(seq(0, 60)))
	require.Equal(t, before, b)
	require.Equal(t, seq(0, 200), b.Bytes())
	require.NoError(t, b.Push(seq(200, 55)))
	require.Equal(t, Capacity, b.Len())
	require.Equal(t, 0, b.Available())
	require.Equal(t, ErrCapacityExceeded, b.PushByte(1))
	require.NoError(t, b.Push(nil))
}

func TestPushRealignsOnWrap(t *testing.T) {
	b := wrapped(t, 250, []byte{1, 2, 3})
	require.NoError(t, b.Push([]byte{4, 5, 6, 7}))
	require.Equal(t, uint16(0), b.head)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7}, b.Bytes())

	b = wrapped(t, 100, []byte{1, 2})
	require.NoError(t, b.Push([]byte{3}))
	require.Equal(t, uint16(100), b.head)
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())
}

func TestPushNumbers(t *testing.T) {
	var b Buffer
	require.NoError(t, b.PushU16(0x1234))
	require.Equal(t, []byte{0x12, 0x34}, b.Bytes())
	b.Reset()
	require.NoError(t, b.PushF32(1.0))
	require.Equal(t, []byte{0x3f, 0x80, 0x00, 0x00}, b.Bytes())
	b.Reset()
	require.NoError(t, b.PushF32(-2.5))
	require.Equal(t, []byte{0xc0, 0x20, 0x00, 0x00}, b.Bytes())

	full, err := FromBytes(seq(0, Capacity-1))
	require.NoError(t, err)
	require.Equal(t, ErrCapacityExceeded, full.PushU16(1))
	require.Equal(t, ErrCapacityExceeded, full.PushF32(1))
	require.Equal(t, Capacity-1, full.Len())
}

func TestByte(t *testing.T) {
	b := wrapped(t, 253, []byte{10, 11, 12, 13})
	for i := 0; i < 4; i++ {
		v, err := b.Byte(i)
		require.NoError(t, err)
		require.Equal(t, byte(10+i), v)
	}
	_, err := b.Byte(4)
	require.Equal(t, ErrIndexOutOfRange, err)
	_, err = b.Byte(-1)
	require.Equal(t, ErrIndexOutOfRange, err)
}

func TestStartsWith(t *testing.T) {
	testCases := []struct {
		name   string
		head   int
		prefix []byte
		expect bool
	}{
		{"aligned", 0, []byte{1, 2, 3}, true},
		{"empty prefix", 0, nil, true},
		{"mismatch", 0, []byte{1, 3}, false},
		{"across wrap", 253, []byte{1, 2, 3, 4}, true},
		{"across wrap mismatch", 253, []byte{1, 2, 4}, false},
		{"whole", 254, []byte{1, 2, 3, 4, 5}, true},
		{"too long", 100, []byte{1, 2, 3, 4, 5, 6}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := wrapped(t, tc.head, []byte{1, 2, 3, 4, 5})
			require.Equal(t, tc.expect, b.StartsWith(tc.prefix))
		})
	}
}

func TestRemoveRange(t *testing.T) {
	testCases := []struct {
		name   string
		head   int
		offset int
		size   int
		expect []byte
		err    error
	}{
		{"middle", 0, 3, 4, []byte{0, 1, 2, 7, 8, 9}, nil},
		{"middle wrapped", 250, 3, 4, []byte{0, 1, 2, 7, 8, 9}, nil},
		{"front", 0, 0, 3, seq(3, 7), nil},
		{"front wrapped", 250, 0, 6, seq(6, 4), nil},
		{"back", 0, 6, 4, seq(0, 6), nil},
		{"back beyond end", 250, 6, 100, seq(0, 6), nil},
		{"last byte", 0, 9, 1, seq(0, 9), nil},
		{"all", 250, 0, 10, nil, nil},
		{"size covers length", 0, 2, 10, nil, nil},
		{"zero size", 0, 5, 0, seq(0, 10), nil},
		{"offset at length", 0, 10, 1, seq(0, 10), ErrIndexOutOfRange},
		{"negative offset", 0, -1, 1, seq(0, 10), ErrIndexOutOfRange},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := wrapped(t, tc.head, seq(0, 10))
			require.Equal(t, tc.err, b.RemoveRange(tc.offset, tc.size))
			if len(tc.expect) == 0 {
				require.Equal(t, 0, b.Len())
				require.Equal(t, uint16(0), b.head)
				return
			}
			require.Equal(t, tc.expect, b.Bytes())
		})
	}

	var empty Buffer
	require.Equal(t, ErrIndexOutOfRange, empty.RemoveFront(0))
}

func TestRealign(t *testing.T) {
	for _, head := range []int{0, 1, 100, 250, 254} {
		b := wrapped(t, head, seq(7, 20))
		b.Realign()
		require.Equal(t, uint16(0), b.head)
		require.Equal(t, seq(7, 20), b.Bytes())
	}
	b := wrapped(t, 30, nil)
	b.Realign()
	require.Equal(t, uint16(0), b.head)
}

func TestCopyAndWrite(t *testing.T) {
	b := wrapped(t, 252, []byte("hello"))
	require.Equal(t, "68656c6c6f", b.String())

	var dst [3]byte
	require.Equal(t, 3, b.CopyTo(dst[:]))
	require.Equal(t, []byte("hel"), dst[:])

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, "hello", out.String())

	other, err := FromBytes([]byte("hello"))
	require.NoError(t, err)
	require.True(t, b.Equal(&other))
	require.NoError(t, other.PushByte('!'))
	require.False(t, b.Equal(&other))

	_, err = FromBytes(seq(0, Capacity+1))
	require.Equal(t, ErrCapacityExceeded, err)
}

func TestAgainstModel(t *testing.T) {
	rnd := rand.New(rand.NewSource(255))
	var b Buffer
	var model []byte
	for step := 0; step < 5000; step++ {
		switch op := rnd.Intn(4); op {
		case 0, 1:
			p := seq(rnd.Intn(256), rnd.Intn(64))
			err := b.Push(p)
			if len(model)+len(p) > Capacity {
				require.Equal(t, ErrCapacityExceeded, err)
			} else {
				require.NoError(t, err)
				model = append(model, p...)
			}
		case 2:
			offset, size := rnd.Intn(len(model)+2)-1, rnd.Intn(40)
			err := b.RemoveRange(offset, size)
			switch {
			case offset < 0 || offset >= len(model):
				require.Equal(t, ErrIndexOutOfRange, err)
			case size >= len(model):
				require.NoError(t, err)
				model = model[:0]
			case offset+size >= len(model):
				require.NoError(t, err)
				model = model[:offset]
			default:
				require.NoError(t, err)
				model = append(model[:offset], model[offset+size:]...)
			}
		case 3:
			prefix := seq(rnd.Intn(256), rnd.Intn(8))
			if k := rnd.Intn(8); k <= len(model) && rnd.Intn(2) == 0 {
				prefix = append([]byte(nil), model[:k]...)
			}
			require.Equal(t, bytes.HasPrefix(model, prefix), b.StartsWith(prefix))
		}
		require.Equal(t, len(model), b.Len())
		require.Less(t, int(b.head), Capacity)
		require.True(t, bytes.Equal(model, b.Bytes()), "step %d", step)
		if len(model) > 0 {
			i := rnd.Intn(len(model))
			v, err := b.Byte(i)
			require.NoError(t, err)
			require.Equal(t, model[i], v, "step %d index %d", step, i)
		}
	}
}
