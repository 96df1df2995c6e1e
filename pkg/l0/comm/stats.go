package comm

import "sync/atomic"

// Counters are updated by link tasks and safe for concurrent reads.
type Counters struct {
	FramesIn  atomic.Uint64
	FramesOut atomic.Uint64
	Dropped   atomic.Uint64
	Malformed atomic.Uint64
	Overflows atomic.Uint64
	Retries   atomic.Uint64
	Errors    atomic.Uint64
}

// Stats is a snapshot of Counters.
type Stats struct {
	FramesIn  uint64 `json:"frames_in"`
	FramesOut uint64 `json:"frames_out"`
	Dropped   uint64 `json:"dropped"`
	Malformed uint64 `json:"malformed"`
	Overflows uint64 `json:"overflows"`
	Retries   uint64 `json:"retries"`
	Errors    uint64 `json:"errors"`
}

// Snapshot reads all counters.
func (c *Counters) Snapshot() Stats {
	return Stats{
		FramesIn:  c.FramesIn.Load(),
		FramesOut: c.FramesOut.Load(),
		Dropped:   c.Dropped.Load(),
		Malformed: c.Malformed.Load(),
		Overflows: c.Overflows.Load(),
		Retries:   c.Retries.Load(),
		Errors:    c.Errors.Load(),
	}
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	s.FramesIn += o.FramesIn
	s.FramesOut += o.FramesOut
	s.Dropped += o.Dropped
	s.Malformed += o.Malformed
	s.Overflows += o.Overflows
	s.Retries += o.Retries
	s.Errors += o.Errors
	return s
}

func (c *Counters) countAssembleError(err error) {
	if err == ErrCapacityExceeded {
		c.Overflows.Add(1)
	} else {
		c.Malformed.Add(1)
	}
}
