package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type assembleStep struct {
	in     []byte
	err    error
	frames [][]byte
}

func TestAssembler(t *testing.T) {
	testCases := []struct {
		name  string
		mode  SegmentMode
		steps []assembleStep
	}{
		{
			name: "chunk single",
			steps: []assembleStep{
				{in: []byte("{hello}"), frames: [][]byte{[]byte("hello")}},
				{in: []byte("{}"), frames: [][]byte{{}}},
			},
		},
		{
			name: "chunk split",
			steps: []assembleStep{
				{in: []byte("{he")},
				{in: []byte("ll")},
				{in: []byte("o}"), frames: [][]byte{[]byte("hello")}},
			},
		},
		{
			name: "chunk garbage",
			steps: []assembleStep{
				{in: []byte("xx{a}"), err: ErrMalformedFrame},
				{in: []byte("{a}"), frames: [][]byte{[]byte("a")}},
			},
		},
		{
			name: "chunk overflow",
			steps: []assembleStep{
				{in: append([]byte{'{'}, make([]byte, 200)...)},
				{in: make([]byte, 60), err: ErrCapacityExceeded},
				{in: []byte("{b}"), frames: [][]byte{[]byte("b")}},
			},
		},
		{
			name: "chunk full without end",
			steps: []assembleStep{
				{in: append([]byte{'{'}, make([]byte, 254)...), err: ErrMalformedFrame},
				{in: []byte("{c}"), frames: [][]byte{[]byte("c")}},
			},
		},
		{
			name: "scan stream",
			mode: SegmentScan,
			steps: []assembleStep{
				{in: []byte("xx{a}yy{b"), frames: [][]byte{[]byte("a")}},
				{in: []byte("c}{d}"), frames: [][]byte{[]byte("bc"), []byte("d")}},
			},
		},
		{
			name: "scan overflow",
			mode: SegmentScan,
			steps: []assembleStep{
				{in: append([]byte{'{'}, make([]byte, 300)...), err: ErrCapacityExceeded},
				{in: []byte("}{e}"), frames: [][]byte{[]byte("e")}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := Assembler{Mode: tc.mode}
			for n, step := range tc.steps {
				var frames [][]byte
				err := a.Feed(step.in, func(f Frame) {
					frames = append(frames, f.Payload())
				})
				require.Equalf(t, step.err, err, "steps[%d] error mismatch", n)
				require.Equalf(t, step.frames, frames, "steps[%d] frames mismatch", n)
			}
		})
	}
}

func TestAssemblerReset(t *testing.T) {
	var a Assembler
	require.NoError(t, a.Feed([]byte("{abc"), func(Frame) {}))
	require.Equal(t, 4, a.Pending())
	a.Reset()
	require.Equal(t, 0, a.Pending())
	require.Equal(t, ErrMalformedFrame, a.Feed([]byte("abc}"), func(Frame) {}))
}
