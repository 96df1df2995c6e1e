package comm

import "github.com/robotalks/mculink/pkg/l0/ring"

// SegmentMode defines how an Assembler finds frame boundaries.
type SegmentMode int

const (
	// SegmentChunks expects a link to deliver exactly one frame per
	// unit, possibly split across reads. A unit not beginning with
	// StartMarker is discarded.
	SegmentChunks SegmentMode = iota
	// SegmentScan scans an arbitrary stream: bytes before a
	// StartMarker are skipped and a frame ends at the first
	// EndMarker.
	SegmentScan
)

type assembleState int

const (
	stateIdle  assembleState = iota // waiting for start marker
	stateFrame                      // start marker received
)

// Assembler accumulates raw bytes from a link into frames.
// It's owned by a single reader task.
type Assembler struct {
	Mode SegmentMode

	buf   ring.Buffer
	state assembleState
}

// Reset discards any partial frame.
func (a *Assembler) Reset() {
	a.buf.Reset()
	a.state = stateIdle
}

// Pending returns the number of buffered bytes of a partial frame.
func (a *Assembler) Pending() int {
	return a.buf.Len()
}

// Feed consumes a chunk and calls emit for every complete frame.
// The last error encountered is returned after the whole chunk is
// consumed; offending bytes are discarded.
func (a *Assembler) Feed(p []byte, emit func(Frame)) error {
	if a.Mode == SegmentScan {
		return a.scan(p, emit)
	}
	return a.chunk(p, emit)
}

func (a *Assembler) chunk(p []byte, emit func(Frame)) error {
	if len(p) == 0 {
		return nil
	}
	if a.state == stateIdle && p[0] != StartMarker {
		return ErrMalformedFrame
	}
	if err := a.buf.Push(p); err != nil {
		a.Reset()
		return err
	}
	a.state = stateFrame
	if last, _ := a.buf.Byte(a.buf.Len() - 1); last != EndMarker {
		if a.buf.Available() == 0 {
			a.Reset()
			return ErrMalformedFrame
		}
		return nil
	}
	f, err := Decode(&a.buf)
	a.Reset()
	if err != nil {
		return err
	}
	emit(f)
	return nil
}

func (a *Assembler) scan(p []byte, emit func(Frame)) (err error) {
	for _, b := range p {
		switch a.state {
		case stateIdle:
			if b != StartMarker {
				continue
			}
			a.buf.Reset()
			a.buf.PushByte(b)
			a.state = stateFrame
		case stateFrame:
			if e := a.buf.PushByte(b); e != nil {
				a.Reset()
				err = e
				continue
			}
			if b != EndMarker {
				if a.buf.Available() == 0 {
					a.Reset()
					err = ErrCapacityExceeded
				}
				continue
			}
			f, e := Decode(&a.buf)
			a.Reset()
			if e != nil {
				err = e
				continue
			}
			emit(f)
		}
	}
	return
}
